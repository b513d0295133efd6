package broker

import (
	"errors"
	"regexp"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/adapter"
	"github.com/etnz/folio/date"
)

// RaymondJames parses the Raymond James Client Access "Account Detail" statement.
type RaymondJames struct{}

var (
	rjAccount = regexp.MustCompile(`(?i)account (?:no\.?|number|#)\s*:?\s*([A-Z0-9][A-Z0-9-]*)`)
	rjAsOf    = regexp.MustCompile(`(?i)as of\s+(\d{2}/\d{2}/\d{4})`)
)

var rjHoldings = []adapter.Column{
	{Name: colTicker, Aliases: []string{"Symbol"}},
	{Name: colCUSIP, Aliases: []string{"CUSIP"}},
	{Name: colName, Aliases: []string{"Description"}},
	{Name: colClass, Aliases: []string{"Asset Class", "Type"}},
	{Name: colQuantity, Aliases: []string{"Quantity", "Shares"}, Required: true},
	{Name: colCost, Aliases: []string{"Unit Cost", "Avg Unit Cost"}},
	{Name: colValue, Aliases: []string{"Current Value", "Market Value"}, Required: true},
}

var rjActivity = []adapter.Column{
	{Name: colDate, Aliases: []string{"Date", "Trade Date"}, Required: true},
	{Name: colType, Aliases: []string{"Type", "Activity"}, Required: true},
	{Name: colTicker, Aliases: []string{"Symbol"}},
	{Name: colCUSIP, Aliases: []string{"CUSIP"}},
	{Name: colQuantity, Aliases: []string{"Quantity"}},
	{Name: colAmount, Aliases: []string{"Amount", "Net Amount"}, Required: true},
	{Name: colRef, Aliases: []string{"Reference", "Ref #"}},
}

func (RaymondJames) Name() string { return "raymond-james" }

func (RaymondJames) Matches(text string) bool {
	l := strings.ToLower(text)
	// the firm name alone is also a security held at other brokers.
	return (strings.Contains(l, "raymond james & associates") || strings.Contains(l, "raymond james") && strings.Contains(l, "client access")) &&
		(strings.Contains(l, "account detail") || strings.Contains(l, "current value"))
}

func (RaymondJames) Fingerprint() string {
	return "Raymond James & Associates\nClient Access    Account Detail"
}

func (r RaymondJames) Parse(doc adapter.Document) (folio.Statement, error) {
	text := doc.Text
	id, err := adapter.Require(text, rjAccount, "account number")
	if err != nil {
		return folio.Statement{}, doc.Fail(r.Name(), err)
	}
	raw, err := adapter.Require(text, rjAsOf, "as of date")
	if err != nil {
		return folio.Statement{}, doc.Fail(r.Name(), err)
	}
	asOf, err := adapter.Date(raw, date.LayoutUS)
	if err != nil {
		return folio.Statement{}, doc.Fail(r.Name(), err)
	}
	account := folio.Account{ID: id, Broker: "Raymond James", BaseCurrency: "USD"}

	st := doc.Statement(r.Name(), account, asOf)
	l := &layout{account: account, asOf: asOf, dates: []string{date.LayoutUS}, doc: doc, st: &st}

	t, err := adapter.FindTable(text, []string{"Holdings", "Account Holdings"}, rjHoldings)
	if err != nil {
		return folio.Statement{}, doc.Fail(r.Name(), err)
	}
	if err := l.positions(t); err != nil {
		return folio.Statement{}, doc.Fail(r.Name(), err)
	}

	switch t, err := adapter.FindTable(text, []string{"Activity", "Account Activity"}, rjActivity); {
	case errors.Is(err, adapter.ErrSectionNotFound):
		// statements without activity over the period
	case err != nil:
		return folio.Statement{}, doc.Fail(r.Name(), err)
	default:
		l.transactions(t, "")
	}

	if cells, ok := adapter.Value(text, "Current Value", "Total Value"); ok {
		if err := l.valuation(cells); err != nil {
			return folio.Statement{}, doc.Fail(r.Name(), err)
		}
	}
	return st, nil
}
