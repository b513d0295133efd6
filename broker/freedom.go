package broker

import (
	"errors"
	"regexp"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/adapter"
	"github.com/etnz/folio/date"
)

// FreedomFinance parses the Freedom Finance broker report ("Отчет брокера"),
// written in Russian.
type FreedomFinance struct{}

var (
	ffPeriod = regexp.MustCompile(`(?i)отч[её]т брокера за период\s+\d{4}-\d{2}-\d{2}\s*-\s*(\d{4}-\d{2}-\d{2})`)
	ffEnd    = regexp.MustCompile(`(?i)остатки на конец периода`)
)

var ffHoldings = []adapter.Column{
	{Name: colTicker, Aliases: []string{"Тикер"}},
	{Name: colISIN, Aliases: []string{"ISIN"}},
	{Name: colName, Aliases: []string{"Наименование", "Название"}},
	{Name: colClass, Aliases: []string{"Тип", "Класс актива"}},
	{Name: colQuantity, Aliases: []string{"Количество", "Кол-во"}, Required: true},
	{Name: colCost, Aliases: []string{"Средняя цена", "Цена покупки"}},
	{Name: colValue, Aliases: []string{"Стоимость", "Рыночная стоимость"}, Required: true},
	{Name: colCurrency, Aliases: []string{"Валюта"}},
}

var ffTrades = []adapter.Column{
	{Name: colDate, Aliases: []string{"Дата"}, Required: true},
	{Name: colType, Aliases: []string{"Операция"}, Required: true},
	{Name: colTicker, Aliases: []string{"Тикер"}},
	{Name: colISIN, Aliases: []string{"ISIN"}},
	{Name: colQuantity, Aliases: []string{"Количество"}},
	{Name: colAmount, Aliases: []string{"Сумма"}, Required: true},
	{Name: colCurrency, Aliases: []string{"Валюта"}},
	{Name: colRef, Aliases: []string{"Номер сделки", "Номер"}},
}

var ffTransfers = []adapter.Column{
	{Name: colDate, Aliases: []string{"Дата"}, Required: true},
	{Name: colType, Aliases: []string{"Операция", "Тип"}, Required: true},
	{Name: colAmount, Aliases: []string{"Сумма"}, Required: true},
	{Name: colCurrency, Aliases: []string{"Валюта"}},
}

func (FreedomFinance) Name() string { return "freedom-finance" }

func (FreedomFinance) Matches(text string) bool {
	l := strings.ToLower(text)
	return strings.Contains(l, "freedom finance") &&
		(strings.Contains(l, "отчет брокера") || strings.Contains(l, "отчёт брокера"))
}

func (FreedomFinance) Fingerprint() string {
	return "Freedom Finance\nОтчет брокера за период 2025-04-01 - 2025-06-30"
}

func (f FreedomFinance) Parse(doc adapter.Document) (folio.Statement, error) {
	text := doc.Text
	raw, err := adapter.Require(text, ffPeriod, "report period")
	if err != nil {
		return folio.Statement{}, doc.Fail(f.Name(), err)
	}
	asOf, err := adapter.Date(raw, date.LayoutISO)
	if err != nil {
		return folio.Statement{}, doc.Fail(f.Name(), err)
	}
	cells, ok := adapter.Value(text, "Номер счета", "Счет", "Субсчет")
	if !ok {
		return folio.Statement{}, doc.Fail(f.Name(), adapter.Missing(text, "account number"))
	}
	base := "USD"
	if c, ok := adapter.Value(text, "Валюта счета"); ok {
		if base, err = adapter.Currency(c[0], base); err != nil {
			return folio.Statement{}, doc.Fail(f.Name(), err)
		}
	}
	account := folio.Account{ID: cells[0], Broker: "Freedom Finance", BaseCurrency: base}

	st := doc.Statement(f.Name(), account, asOf)
	l := &layout{account: account, asOf: asOf, dates: []string{date.LayoutISO, date.LayoutEU}, doc: doc, st: &st}

	t, err := adapter.FindTable(text, []string{"Портфель ценных бумаг", "Открытые позиции"}, ffHoldings)
	if err != nil {
		return folio.Statement{}, doc.Fail(f.Name(), err)
	}
	if err := l.positions(t); err != nil {
		return folio.Statement{}, doc.Fail(f.Name(), err)
	}

	optional := []struct {
		headings []string
		columns  []adapter.Column
		typ      folio.TxType
	}{
		{[]string{"Сделки"}, ffTrades, ""},
		{[]string{"Ввод/Вывод денежных средств", "Движение денежных средств"}, ffTransfers, folio.Transfer},
	}
	for _, o := range optional {
		t, err := adapter.FindTable(text, o.headings, o.columns)
		switch {
		case errors.Is(err, adapter.ErrSectionNotFound):
		case err != nil:
			return folio.Statement{}, doc.Fail(f.Name(), err)
		default:
			l.transactions(t, o.typ)
		}
	}

	// the report prints the net assets at the start and at the end of the period.
	end := text
	if loc := ffEnd.FindStringIndex(text); loc != nil {
		end = text[loc[0]:]
	}
	if cells, ok := adapter.Value(end, "Чистые активы"); ok {
		if err := l.valuation(cells); err != nil {
			return folio.Statement{}, doc.Fail(f.Name(), err)
		}
	}
	return st, nil
}
