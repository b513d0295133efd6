package broker

import (
	"regexp"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/adapter"
	"github.com/etnz/folio/date"
)

// UBS parses the UBS "Executive Summary" portfolio statement.
type UBS struct{}

var (
	ubsName = regexp.MustCompile(`(?i)\bUBS\b`)
	ubsAsOf = regexp.MustCompile(`(?i)as of\s+([A-Z][a-z]{2,8}\.? \d{1,2},? \d{4})`)
)

var ubsHoldings = []adapter.Column{
	{Name: colName, Aliases: []string{"Description", "Security", "Name"}},
	{Name: colTicker, Aliases: []string{"Symbol", "Ticker"}},
	{Name: colISIN, Aliases: []string{"ISIN"}},
	{Name: colCUSIP, Aliases: []string{"CUSIP"}},
	{Name: colClass, Aliases: []string{"Asset class", "Asset type"}},
	{Name: colQuantity, Aliases: []string{"Quantity", "Shares", "Units"}, Required: true},
	{Name: colCost, Aliases: []string{"Unit cost", "Average cost", "Cost per share"}},
	{Name: colValue, Aliases: []string{"Market value", "Value"}, Required: true},
	{Name: colCurrency, Aliases: []string{"Currency", "Ccy"}},
}

func (UBS) Name() string { return "ubs" }

func (UBS) Matches(text string) bool {
	l := strings.ToLower(text)
	return ubsName.MatchString(text) &&
		(strings.Contains(l, "executive summary") || strings.Contains(l, "portfolio holdings"))
}

func (UBS) Fingerprint() string {
	return "UBS Financial Services Inc.\nExecutive Summary as of May 27 2025"
}

func (u UBS) Parse(doc adapter.Document) (folio.Statement, error) {
	text := doc.Text
	raw, err := adapter.Require(text, ubsAsOf, "as of date")
	if err != nil {
		return folio.Statement{}, doc.Fail(u.Name(), err)
	}
	asOf, err := adapter.Date(raw, date.LayoutEnglish, date.LayoutShort)
	if err != nil {
		return folio.Statement{}, doc.Fail(u.Name(), err)
	}
	cells, ok := adapter.Value(text, "Account number", "Account")
	if !ok {
		return folio.Statement{}, doc.Fail(u.Name(), adapter.Missing(text, "account number"))
	}
	base := "USD"
	if c, ok := adapter.Value(text, "Base currency", "Reference currency"); ok {
		if base, err = adapter.Currency(c[0], base); err != nil {
			return folio.Statement{}, doc.Fail(u.Name(), err)
		}
	}
	account := folio.Account{ID: cells[0], Broker: "UBS", BaseCurrency: base}

	st := doc.Statement(u.Name(), account, asOf)
	l := &layout{account: account, asOf: asOf, doc: doc, st: &st}

	t, err := adapter.FindTable(text, []string{"Portfolio Holdings", "Holdings"}, ubsHoldings)
	if err != nil {
		return folio.Statement{}, doc.Fail(u.Name(), err)
	}
	if err := l.positions(t); err != nil {
		return folio.Statement{}, doc.Fail(u.Name(), err)
	}
	if cells, ok := adapter.Value(text, "Total Portfolio", "Total portfolio value"); ok {
		if err := l.valuation(cells); err != nil {
			return folio.Statement{}, doc.Fail(u.Name(), err)
		}
	}
	return st, nil
}
