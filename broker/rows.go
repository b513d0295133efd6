package broker

import (
	"fmt"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/adapter"
	"github.com/etnz/folio/date"
)

// canonical column names shared by all layouts.
const (
	colName     = "name"
	colTicker   = "ticker"
	colISIN     = "isin"
	colCUSIP    = "cusip"
	colClass    = "class"
	colQuantity = "quantity"
	colCost     = "cost"
	colValue    = "value"
	colCurrency = "currency"
	colDate     = "date"
	colType     = "type"
	colAmount   = "amount"
	colRef      = "ref"
)

// layout gathers what differs between two statement layouts once their
// tables have been located.
type layout struct {
	account folio.Account
	asOf    date.Date
	dates   []string // date layouts of activity rows
	doc     adapter.Document
	st      *folio.Statement
}

func (l *layout) skip(row adapter.Row, format string, args ...any) {
	l.st.Warnings = append(l.st.Warnings, l.doc.Skip(l.account.ID, row, fmt.Sprintf(format, args...)))
}

// security reads the security columns of a row.
func (l *layout) security(row adapter.Row) folio.Security {
	s := folio.Security{
		Ticker: row.Get(colTicker),
		ISIN:   row.Get(colISIN),
		CUSIP:  row.Get(colCUSIP),
		Name:   row.Get(colName),
		Class:  folio.ParseAssetClass(row.Get(colClass)),
	}.Normalize()
	switch {
	case !s.HasIdentifier():
		s.Class = ""
	case s.Class == folio.Other:
		// infer from the name, stocks rarely say so
		s.Class = folio.ParseAssetClass(s.Name)
		if s.Class == folio.Other {
			s.Class = folio.Equity
		}
	}
	return s
}

// positions appends one Position per holdings row. Unusable rows are
// skipped with a RowSkipped warning.
func (l *layout) positions(t *adapter.Table) error {
	if err := t.RequireAny(colTicker, colISIN, colCUSIP); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if !row.Complete() {
			l.skip(row, "%d cells, the header has %d", len(row.Cells), len(t.Header))
			continue
		}
		sec := l.security(row)
		if !sec.HasIdentifier() {
			l.skip(row, "missing security identifier")
			continue
		}
		if row.Get(colQuantity) == "" {
			l.skip(row, "missing quantity")
			continue
		}
		qty, err := adapter.Quantity(row.Get(colQuantity))
		if err != nil {
			l.skip(row, "quantity: %v", err)
			continue
		}
		if row.Get(colValue) == "" {
			l.skip(row, "missing market value")
			continue
		}
		cur, err := adapter.Currency(row.Get(colCurrency), l.account.BaseCurrency)
		if err != nil {
			l.skip(row, "%v", err)
			continue
		}
		value, err := adapter.Amount(row.Get(colValue), cur)
		if err != nil {
			l.skip(row, "market value: %v", err)
			continue
		}
		var cost folio.Money
		if c := row.Get(colCost); c != "" {
			if cost, err = adapter.Amount(c, cur); err != nil {
				l.skip(row, "unit cost: %v", err)
				continue
			}
		}
		p := folio.Position{
			Account:     l.account.ID,
			Security:    sec,
			Quantity:    qty,
			UnitCost:    cost,
			MarketValue: value,
			AsOf:        l.asOf,
			Short:       qty.IsNegative() || value.IsNegative(),
		}
		if err := p.Validate(); err != nil {
			l.skip(row, "%v", err)
			continue
		}
		l.st.Positions = append(l.st.Positions, p)
	}
	return nil
}

// transactions appends one Transaction per activity row. typ, when not
// empty, forces the type of every row.
func (l *layout) transactions(t *adapter.Table, typ folio.TxType) {
	for _, row := range t.Rows {
		if !row.Complete() {
			l.skip(row, "%d cells, the header has %d", len(row.Cells), len(t.Header))
			continue
		}
		on, err := adapter.Date(row.Get(colDate), l.dates...)
		if err != nil {
			l.skip(row, "%v", err)
			continue
		}
		label := row.Get(colType)
		tt, ok := folio.ParseTxType(label)
		if typ != "" {
			tt, ok = typ, true
		}
		if !ok {
			l.skip(row, "unknown activity %q", label)
			continue
		}
		if row.Get(colAmount) == "" {
			l.skip(row, "missing amount")
			continue
		}
		cur, err := adapter.Currency(row.Get(colCurrency), l.account.BaseCurrency)
		if err != nil {
			l.skip(row, "%v", err)
			continue
		}
		amount, err := adapter.Amount(row.Get(colAmount), cur)
		if err != nil {
			l.skip(row, "amount: %v", err)
			continue
		}
		if tt == folio.Transfer && outflow(label) {
			amount = amount.Abs().Neg()
		} else if tt == folio.Transfer {
			amount = amount.Abs()
		}
		var qty folio.Quantity
		if q := row.Get(colQuantity); q != "" {
			if qty, err = adapter.Quantity(q); err != nil {
				l.skip(row, "quantity: %v", err)
				continue
			}
		}
		tx := folio.Transaction{
			Account:   l.account.ID,
			Security:  l.security(row),
			Type:      tt,
			Quantity:  qty,
			Amount:    amount,
			Date:      on,
			BrokerRef: row.Get(colRef),
		}
		if err := tx.Validate(); err != nil {
			l.skip(row, "%v", err)
			continue
		}
		l.st.Transactions = append(l.st.Transactions, tx)
	}
}

// outflow reports whether a transfer label describes money leaving the account.
func outflow(label string) bool {
	l := strings.ToLower(label)
	return strings.Contains(l, "withdraw") || strings.Contains(l, "вывод")
}

// valuation appends the total reported by the statement, from the cells that
// follow its label: an optional currency then the amount.
func (l *layout) valuation(cells []string) error {
	cur := l.account.BaseCurrency
	if len(cells) > 1 {
		if c, err := adapter.Currency(cells[0], cur); err == nil {
			cur = c
		}
	}
	total, err := adapter.Amount(cells[len(cells)-1], cur)
	if err != nil {
		return fmt.Errorf("reported total: %w", err)
	}
	l.st.Valuations = append(l.st.Valuations, folio.Valuation{Account: l.account.ID, AsOf: l.asOf, Total: total})
	return nil
}
