// Package report reshapes a reconciled portfolio into the consolidated
// report, and renders it as JSON, Markdown, HTML or MessagePack.
//
// The JSON field names are the stable schema of the report.
package report

import (
	"cmp"
	"slices"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/kpi"
	"github.com/shopspring/decimal"
)

// Status of a document in a run.
type Status string

const (
	StatusOK           Status = "ok"
	StatusUnrecognized Status = "unrecognized"
	StatusError        Status = "error"
	StatusDuplicate    Status = "duplicate"
)

// Report is the consolidated portfolio report.
type Report struct {
	Generated    date.Date       `json:"generated"`
	BaseCurrency string          `json:"baseCurrency"`
	Total        folio.Money     `json:"total"`
	Performance  kpi.Performance `json:"performance"`
	Accounts     []Account       `json:"accounts"`
	Holdings     []Holding       `json:"holdings"`
	AssetClasses []AssetClass    `json:"assetClasses"`
	Transactions []Transaction   `json:"transactions"`
	Documents    []Document      `json:"documents"`
	Warnings     []folio.Warning `json:"warnings"`
	Errors       []folio.Warning `json:"errors"`
}

// Account is the breakdown of one account.
type Account struct {
	ID           string           `json:"id"`
	Broker       string           `json:"broker"`
	BaseCurrency string           `json:"baseCurrency"`
	Total        folio.Money      `json:"total"`              // sum of the resolved positions, in the report currency
	Reported     *Valuation       `json:"reported,omitempty"` // total printed by the statement itself
	Positions    []AccountHolding `json:"positions"`
}

// Valuation is an account total as reported by the broker.
type Valuation struct {
	AsOf  date.Date   `json:"asOf"`
	Total folio.Money `json:"total"`
}

// AccountHolding is one position of an account.
type AccountHolding struct {
	Key         string         `json:"key"`
	Security    folio.Security `json:"security"`
	Quantity    folio.Quantity `json:"quantity"`
	MarketValue folio.Money    `json:"marketValue"`        // in the statement currency
	UnitCost    *folio.Money   `json:"unitCost,omitempty"` // in the statement currency
	Value       folio.Money    `json:"value"`              // in the report currency
	AsOf        date.Date      `json:"asOf"`
	Short       bool           `json:"short,omitempty"`
	Resolved    bool           `json:"resolved"`
	Source      string         `json:"source"`
}

// Holding is a security consolidated across accounts.
type Holding struct {
	Key      string          `json:"key"`
	Security folio.Security  `json:"security"`
	Quantity folio.Quantity  `json:"quantity"`
	Value    folio.Money     `json:"value"`
	Cost     folio.Money     `json:"cost"`
	Weight   decimal.Decimal `json:"weight"` // share of the total, in [0, 1]
	Accounts []string        `json:"accounts"`
	Partial  bool            `json:"partial,omitempty"` // some positions could not be valued
}

// AssetClass groups the consolidated holdings of one class.
type AssetClass struct {
	Class    folio.AssetClass `json:"class"`
	Value    folio.Money      `json:"value"`
	Weight   decimal.Decimal  `json:"weight"`
	Holdings int              `json:"holdings"`
}

// Transaction is one activity row.
type Transaction struct {
	Date      date.Date      `json:"date"`
	Account   string         `json:"account"`
	Type      folio.TxType   `json:"type"`
	Security  string         `json:"security,omitempty"` // label of the security, empty for cash movements
	Quantity  folio.Quantity `json:"quantity"`
	Amount    folio.Money    `json:"amount"`
	BrokerRef string         `json:"brokerRef,omitempty"`
}

// Document is the outcome of one input document.
type Document struct {
	Source      string    `json:"source"`
	Adapter     string    `json:"adapter,omitempty"`
	Status      Status    `json:"status"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Account     string    `json:"account,omitempty"`
	AsOf        date.Date `json:"asOf,omitzero"`
	Message     string    `json:"message,omitempty"`
}

// weightPlaces is the precision of the weights.
const weightPlaces = 4

// classOrder is the presentation order of asset classes.
var classOrder = []folio.AssetClass{folio.Equity, folio.FixedIncome, folio.Fund, folio.Cash, folio.Other}

// Assemble builds the report of a portfolio and its performance. Fatal issues
// are reported as errors, the others as warnings, both in their given order.
func Assemble(p *folio.Portfolio, perf kpi.Performance, documents []Document, issues []folio.Warning) *Report {
	r := &Report{
		Generated:    p.On,
		BaseCurrency: p.Currency,
		Total:        p.Total,
		Performance:  perf,
		Accounts:     []Account{},
		Holdings:     []Holding{},
		AssetClasses: []AssetClass{},
		Transactions: []Transaction{},
		Documents:    []Document{},
		Warnings:     []folio.Warning{},
		Errors:       []folio.Warning{},
	}
	if r.Total.Currency() == "" {
		r.Total = folio.M(0, p.Currency)
	}
	if r.Performance.Accounts == nil {
		r.Performance = kpi.Empty(p.Currency)
	}

	for _, a := range p.Accounts {
		r.Accounts = append(r.Accounts, account(p, a))
	}
	for _, c := range p.Consolidated {
		r.Holdings = append(r.Holdings, Holding{
			Key:      c.Key,
			Security: c.Security,
			Quantity: c.Quantity,
			Value:    c.Value,
			Cost:     c.Cost,
			Weight:   weight(c.Value, r.Total),
			Accounts: c.Accounts,
			Partial:  c.Partial,
		})
	}
	r.AssetClasses = classes(r.Holdings, r.Total)
	for _, tx := range p.Transactions {
		r.Transactions = append(r.Transactions, Transaction{
			Date:      tx.Date,
			Account:   tx.Account,
			Type:      tx.Type,
			Security:  tx.Security.Label(),
			Quantity:  tx.Quantity,
			Amount:    tx.Amount,
			BrokerRef: tx.BrokerRef,
		})
	}
	r.Documents = append(r.Documents, documents...)
	for _, w := range issues {
		if w.Kind.Fatal() {
			r.Errors = append(r.Errors, w)
		} else {
			r.Warnings = append(r.Warnings, w)
		}
	}
	return r
}

func account(p *folio.Portfolio, a folio.Account) Account {
	ra := Account{
		ID:           a.ID,
		Broker:       a.Broker,
		BaseCurrency: a.BaseCurrency,
		Total:        p.AccountTotal(a.ID),
		Positions:    []AccountHolding{},
	}
	if v, ok := p.Valuation(a.ID); ok {
		ra.Reported = &Valuation{AsOf: v.AsOf, Total: v.Total}
	}
	for _, h := range p.AccountHoldings(a.ID) {
		ah := AccountHolding{
			Key:         h.Key,
			Security:    h.Security,
			Quantity:    h.Quantity,
			MarketValue: h.MarketValue,
			Value:       h.Value,
			AsOf:        h.AsOf,
			Short:       h.Short,
			Resolved:    h.Resolved,
			Source:      h.Source,
		}
		if !h.UnitCost.IsZero() {
			cost := h.UnitCost
			ah.UnitCost = &cost
		}
		ra.Positions = append(ra.Positions, ah)
	}
	return ra
}

// weight returns v/total, zero when the total is not positive.
func weight(v, total folio.Money) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return v.Decimal().DivRound(total.Decimal(), weightPlaces)
}

func classes(hs []Holding, total folio.Money) []AssetClass {
	byClass := make(map[folio.AssetClass]*AssetClass)
	for _, h := range hs {
		class := h.Security.Class
		if !slices.Contains(classOrder, class) {
			class = folio.Other
		}
		c, ok := byClass[class]
		if !ok {
			c = &AssetClass{Class: class, Value: folio.M(0, total.Currency())}
			byClass[class] = c
		}
		c.Value = c.Value.Add(h.Value)
		c.Holdings++
	}
	cs := make([]AssetClass, 0, len(byClass))
	for _, c := range byClass {
		c.Weight = weight(c.Value, total)
		cs = append(cs, *c)
	}
	slices.SortFunc(cs, func(a, b AssetClass) int {
		return cmp.Compare(slices.Index(classOrder, a.Class), slices.Index(classOrder, b.Class))
	})
	return cs
}
