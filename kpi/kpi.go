// Package kpi computes the performance figures of a reconciled portfolio:
// the net asset value, the money-weighted return (XIRR), the time-weighted
// return and the bridge from a starting to an ending net asset value.
//
// Performance is measured from the external cash flows, that is the
// transfers in and out of the accounts, and the valuations reported by the
// brokers.
package kpi

import (
	"fmt"
	"slices"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/fx"
	"github.com/shopspring/decimal"
)

// ratePlaces is the precision of the returns.
const ratePlaces = 6

// Bridge explains the change of net asset value over a period: End equals
// Start plus NetFlows plus PnL.
type Bridge struct {
	From          date.Date   `json:"from,omitzero"` // zero when the period starts at the opening of the account
	To            date.Date   `json:"to"`
	Start         folio.Money `json:"start"`
	Contributions folio.Money `json:"contributions"`
	Withdrawals   folio.Money `json:"withdrawals"` // positive
	NetFlows      folio.Money `json:"netFlows"`
	PnL           folio.Money `json:"pnl"`
	End           folio.Money `json:"end"`
}

// NAVBridge returns the bridge from start to end.
func NAVBridge(from, to date.Date, start, end, contributions, withdrawals folio.Money) Bridge {
	net := contributions.Sub(withdrawals)
	return Bridge{
		From:          from,
		To:            to,
		Start:         start,
		Contributions: contributions,
		Withdrawals:   withdrawals,
		NetFlows:      net,
		PnL:           end.Sub(start).Sub(net),
		End:           end,
	}
}

// merge returns the bridge of two accounts taken together.
func (b Bridge) merge(o Bridge) Bridge {
	from := b.From
	if from.IsZero() || o.From.IsZero() {
		from = date.Date{}
	} else if o.From.Before(from) {
		from = o.From
	}
	to := b.To
	if o.To.After(to) {
		to = o.To
	}
	return NAVBridge(from, to, b.Start.Add(o.Start), b.End.Add(o.End),
		b.Contributions.Add(o.Contributions), b.Withdrawals.Add(o.Withdrawals))
}

// Account is the performance of one account.
type Account struct {
	ID       string           `json:"id"`
	AsOf     date.Date        `json:"asOf"`
	NAV      folio.Money      `json:"nav"`
	Reported bool             `json:"reported"` // NAV is the broker's figure, otherwise the sum of the positions
	Resolved bool             `json:"resolved"` // false when a figure could not be converted
	XIRR     *decimal.Decimal `json:"xirr,omitempty"`
	TWR      *decimal.Decimal `json:"twr,omitempty"`
	Bridge   Bridge           `json:"bridge"`
}

// Performance is the consolidated performance of the portfolio.
type Performance struct {
	NAV      folio.Money      `json:"nav"` // sum of the resolved accounts
	XIRR     *decimal.Decimal `json:"xirr,omitempty"`
	Bridge   Bridge           `json:"bridge"`
	Partial  bool             `json:"partial,omitempty"` // some accounts could not be resolved
	Accounts []Account        `json:"accounts"`
}

// Empty returns the performance of a portfolio without accounts.
func Empty(currency string) Performance {
	zero := folio.M(0, currency)
	return Performance{
		NAV:      zero,
		Bridge:   NAVBridge(date.Date{}, date.Date{}, zero, zero, zero, zero),
		Accounts: []Account{},
	}
}

// Compute returns the performance of every account of p and of the whole
// portfolio, in the base currency of p.
//
// The net asset value of an account is its latest reported valuation, or the
// sum of its positions when the broker reports none. Its bridge runs from its
// first reported valuation, or from its opening when there is at most one,
// up to the net asset value. The starting value counts as a contribution for
// the XIRR. Transfers after the net asset value date are ignored.
//
// Accounts with a figure that cannot be converted are reported unresolved,
// with a MissingCurrencyRate warning, and left out of the consolidated
// figures.
func Compute(p *folio.Portfolio, rates fx.Source) (Performance, []folio.Warning) {
	c := &calculator{p: p, rates: rates, zero: folio.M(0, p.Currency)}
	perf := Empty(p.Currency)

	var (
		flows    []CashFlow
		resolved int
		to       date.Date
	)
	for _, a := range p.Accounts {
		acc, accFlows := c.account(a.ID)
		perf.Accounts = append(perf.Accounts, acc)
		if !acc.Resolved {
			perf.Partial = true
			continue
		}
		if resolved == 0 {
			perf.Bridge = acc.Bridge
		} else {
			perf.Bridge = perf.Bridge.merge(acc.Bridge)
		}
		resolved++
		perf.NAV = perf.NAV.Add(acc.NAV)
		flows = append(flows, accFlows...)
		if acc.AsOf.After(to) {
			to = acc.AsOf
		}
	}
	if resolved > 0 && !perf.Partial {
		perf.XIRR = rate(XIRR(append(flows, CashFlow{On: to, Amount: perf.NAV.Decimal().InexactFloat64()})))
	}
	return perf, c.warnings
}

type calculator struct {
	p        *folio.Portfolio
	rates    fx.Source
	zero     folio.Money
	warnings []folio.Warning
}

// account returns the performance of an account and its cash flows, the
// terminal value excluded.
func (c *calculator) account(id string) (Account, []CashFlow) {
	acc := Account{ID: id, AsOf: c.p.On, NAV: c.p.AccountTotal(id)}
	unresolved := func(what string, m folio.Money, on date.Date, err error) (Account, []CashFlow) {
		c.warnings = append(c.warnings, folio.Warning{
			Kind:    folio.MissingCurrencyRate,
			Account: id,
			Message: fmt.Sprintf("cannot measure the performance: %s of %s %s on %s: %v", what, m.StringFixed(), m.Currency(), on, err),
		})
		return Account{ID: id, AsOf: acc.AsOf, NAV: c.zero, Bridge: NAVBridge(date.Date{}, acc.AsOf, c.zero, c.zero, c.zero, c.zero)}, nil
	}

	var valuations []Amount
	for _, v := range c.p.AccountHistory(id) {
		m, err := fx.Convert(c.rates, v.Total, c.p.Currency, v.AsOf)
		if err != nil {
			return unresolved("valuation", v.Total, v.AsOf, err)
		}
		valuations = append(valuations, Amount{On: v.AsOf, Value: m.Decimal()})
	}
	if n := len(valuations); n > 0 {
		acc.AsOf = valuations[n-1].On
		acc.NAV = folio.M(valuations[n-1].Value, c.p.Currency)
		acc.Reported = true
	}

	var (
		from  date.Date
		start = c.zero
		flows []CashFlow
	)
	if len(valuations) > 1 {
		from = valuations[0].On
		start = folio.M(valuations[0].Value, c.p.Currency)
		flows = append(flows, CashFlow{On: from, Amount: -start.Decimal().InexactFloat64()})
	}

	contributions, withdrawals := c.zero, c.zero
	var moves []Amount
	for _, tx := range c.p.Transactions {
		if tx.Account != id || tx.Type != folio.Transfer || !tx.Date.After(from) || tx.Date.After(acc.AsOf) {
			continue
		}
		m, err := fx.Convert(c.rates, tx.Amount, c.p.Currency, tx.Date)
		if err != nil {
			return unresolved("transfer", tx.Amount, tx.Date, err)
		}
		if m.IsNegative() {
			withdrawals = withdrawals.Sub(m)
		} else {
			contributions = contributions.Add(m)
		}
		moves = append(moves, Amount{On: tx.Date, Value: m.Decimal()})
		flows = append(flows, CashFlow{On: tx.Date, Amount: -m.Decimal().InexactFloat64()})
	}

	acc.Resolved = true
	acc.Bridge = NAVBridge(from, acc.AsOf, start, acc.NAV, contributions, withdrawals)
	acc.XIRR = rate(XIRR(append(slices.Clone(flows), CashFlow{On: acc.AsOf, Amount: acc.NAV.Decimal().InexactFloat64()})))
	if twr, ok := TimeWeightedReturn(valuations, moves); ok {
		twr = twr.Round(ratePlaces)
		acc.TWR = &twr
	}
	return acc, flows
}

func rate(r float64, ok bool) *decimal.Decimal {
	if !ok {
		return nil
	}
	d := decimal.NewFromFloat(r).Round(ratePlaces)
	return &d
}
