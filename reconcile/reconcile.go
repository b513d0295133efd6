// Package reconcile merges the statements parsed from many documents into a
// single portfolio valued in one base currency.
package reconcile

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/fx"
)

// Options of a reconciliation.
type Options struct {
	Currency   string            // base reporting currency
	On         date.Date         // generation date, the latest as-of date when zero
	Rates      fx.Source         // may be nil when every amount is in the base currency
	References map[string]string // ticker -> ISIN links known by the user
}

// Result of a reconciliation. Warnings are in processing order.
type Result struct {
	Portfolio *folio.Portfolio
	Warnings  []folio.Warning
}

// entry is a position retained for an (account, security) slot.
type entry struct {
	pos    folio.Position
	key    string
	source string
	order  int
}

type slot struct{ account, key string }

type reconciler struct {
	opt      Options
	ids      *identities
	warnings []folio.Warning
}

func (r *reconciler) warn(w folio.Warning) { r.warnings = append(r.warnings, w) }

// Reconcile folds statements into a Portfolio.
//
// Statements are processed in ingestion order (Statement.Order). For each
// account and security, the position with the latest as-of date is kept;
// when two statements disagree at the same date the later ingested one wins
// and a DuplicateRecordResolved warning is raised. Positions that cannot be
// converted to the base currency are kept but excluded from every total,
// with a MissingCurrencyRate warning.
func Reconcile(statements []folio.Statement, opt Options) Result {
	opt.Currency = strings.ToUpper(opt.Currency)
	sts := slices.Clone(statements)
	slices.SortStableFunc(sts, func(a, b folio.Statement) int { return cmp.Compare(a.Order, b.Order) })

	r := &reconciler{opt: opt, ids: newIdentities(opt.References)}
	for _, st := range sts {
		for _, p := range st.Positions {
			r.ids.observe(p.Security)
		}
		for _, tx := range st.Transactions {
			r.ids.observe(tx.Security)
		}
	}

	p := &folio.Portfolio{Currency: opt.Currency, On: opt.On}
	p.Accounts = accounts(sts)
	if p.On.IsZero() {
		p.On = latest(sts)
	}
	p.Holdings = r.holdings(r.positions(sts))
	p.Consolidated = consolidate(p.Holdings, opt.Currency)
	p.Total = folio.M(0, opt.Currency)
	for _, h := range p.Holdings {
		if h.Resolved {
			p.Total = p.Total.Add(h.Value)
		}
	}
	p.Transactions = r.transactions(sts)
	p.Valuations = valuations(sts)
	p.History = history(sts)
	return Result{Portfolio: p, Warnings: r.warnings}
}

// accounts returns the accounts of all statements, sorted by id. Later
// statements complete the broker and currency of an account.
func accounts(sts []folio.Statement) []folio.Account {
	byID := make(map[string]folio.Account)
	for _, st := range sts {
		a := st.Account
		if a.ID == "" {
			continue
		}
		prev := byID[a.ID]
		if a.Broker == "" {
			a.Broker = prev.Broker
		}
		if a.BaseCurrency == "" {
			a.BaseCurrency = prev.BaseCurrency
		}
		byID[a.ID] = a
	}
	as := make([]folio.Account, 0, len(byID))
	for _, a := range byID {
		as = append(as, a)
	}
	slices.SortFunc(as, func(a, b folio.Account) int { return cmp.Compare(a.ID, b.ID) })
	return as
}

// latest returns the latest as-of date of all statements.
func latest(sts []folio.Statement) date.Date {
	var on date.Date
	for _, st := range sts {
		if st.AsOf.After(on) {
			on = st.AsOf
		}
		for _, p := range st.Positions {
			if p.AsOf.After(on) {
				on = p.AsOf
			}
		}
	}
	return on
}

// positions retains one entry per (account, security). Lots are merged
// within each statement first, then statements are resolved against each
// other.
func (r *reconciler) positions(sts []folio.Statement) map[slot]entry {
	kept := make(map[slot]entry)
	for _, st := range sts {
		for _, e := range r.lots(st) {
			s := slot{e.pos.Account, e.key}
			prev, ok := kept[s]
			switch {
			case !ok, e.pos.AsOf.After(prev.pos.AsOf):
				kept[s] = e
			case e.pos.AsOf.Before(prev.pos.AsOf):
			case same(prev.pos, e.pos):
				// later ingestion wins, nothing to report.
				kept[s] = e
			default:
				r.duplicate(prev, e)
				kept[s] = e
			}
		}
	}
	return kept
}

// lots returns the positions of one statement, one entry per (account,
// security, as-of), in the order they first appear. Several lines for the
// same security are lots and are summed.
func (r *reconciler) lots(st folio.Statement) []entry {
	type lot struct {
		slot
		on date.Date
	}
	var es []entry
	index := make(map[lot]int)
	for _, pos := range st.Positions {
		pos.Security = r.ids.enrich(pos.Security)
		e := entry{pos: pos, key: r.ids.key(pos.Security), source: st.Source, order: st.Order}
		l := lot{slot{pos.Account, e.key}, pos.AsOf}
		i, ok := index[l]
		if !ok {
			index[l] = len(es)
			es = append(es, e)
			continue
		}
		if merged, ok := merge(es[i].pos, e.pos); ok {
			es[i].pos = merged
			continue
		}
		r.duplicate(es[i], e)
		es[i] = e
	}
	return es
}

func (r *reconciler) duplicate(prev, e entry) {
	r.warn(folio.Warning{
		Kind:     folio.DuplicateRecordResolved,
		Source:   e.source,
		Account:  e.pos.Account,
		Security: e.key,
		Message: fmt.Sprintf("%s reports %s for %s on %s, %s reports %s: keeping %s",
			prev.source, describe(prev.pos), e.key, e.pos.AsOf, e.source, describe(e.pos), e.source),
	})
}

func describe(p folio.Position) string {
	return fmt.Sprintf("%s units worth %s %s", p.Quantity, p.MarketValue.StringFixed(), p.MarketValue.Currency())
}

// same reports whether two positions carry the same figures.
func same(a, b folio.Position) bool {
	return a.Quantity.Equal(b.Quantity) && a.MarketValue.Equal(b.MarketValue) &&
		a.UnitCost.Equal(b.UnitCost) && a.Short == b.Short
}

// merge sums two lots of the same security printed by one statement.
func merge(a, b folio.Position) (folio.Position, bool) {
	if a.MarketValue.Currency() != b.MarketValue.Currency() {
		return a, false
	}
	if !a.UnitCost.IsZero() && !b.UnitCost.IsZero() && a.UnitCost.Currency() != b.UnitCost.Currency() {
		return a, false
	}
	cost := a.Cost().Add(b.Cost())
	m := a
	m.Quantity = a.Quantity.Add(b.Quantity)
	m.MarketValue = a.MarketValue.Add(b.MarketValue)
	m.UnitCost = folio.Money{}
	if !m.Quantity.IsZero() && !cost.IsZero() {
		m.UnitCost = cost.Div(m.Quantity)
	}
	m.Short = m.Quantity.IsNegative() || m.MarketValue.IsNegative()
	return m, true
}

// convert returns m in the base currency at a date.
func (r *reconciler) convert(m folio.Money, on date.Date) (folio.Money, error) {
	return fx.Convert(r.opt.Rates, m, r.opt.Currency, on)
}

// holdings values the retained positions in the base currency, sorted by
// account then key.
func (r *reconciler) holdings(kept map[slot]entry) []folio.Holding {
	slots := make([]slot, 0, len(kept))
	for s := range kept {
		slots = append(slots, s)
	}
	slices.SortFunc(slots, func(a, b slot) int {
		return cmp.Or(cmp.Compare(a.account, b.account), cmp.Compare(a.key, b.key))
	})

	zero := folio.M(0, r.opt.Currency)
	hs := make([]folio.Holding, 0, len(slots))
	for _, s := range slots {
		e := kept[s]
		h := folio.Holding{Position: e.pos, Key: e.key, Source: e.source, Value: zero, Cost: zero}
		value, err := r.convert(e.pos.MarketValue, e.pos.AsOf)
		if err == nil && !e.pos.UnitCost.IsZero() {
			h.Cost, err = r.convert(e.pos.Cost(), e.pos.AsOf)
		}
		if err != nil {
			h.Cost = zero
			r.warn(folio.Warning{
				Kind:     folio.MissingCurrencyRate,
				Source:   e.source,
				Account:  e.pos.Account,
				Security: e.key,
				Message:  fmt.Sprintf("cannot value %s in %s: %v", describe(e.pos), r.opt.Currency, err),
			})
		} else {
			h.Value, h.Resolved = value, true
		}
		hs = append(hs, h)
	}
	return hs
}

// consolidate sums holdings per security across accounts, sorted by key.
func consolidate(hs []folio.Holding, currency string) []folio.Consolidated {
	zero := folio.M(0, currency)
	byKey := make(map[string]*folio.Consolidated)
	var keys []string
	for _, h := range hs {
		c, ok := byKey[h.Key]
		if !ok {
			c = &folio.Consolidated{Key: h.Key, Security: h.Security, Value: zero, Cost: zero}
			byKey[h.Key] = c
			keys = append(keys, h.Key)
		}
		c.Security = complete(c.Security, h.Security)
		c.Quantity = c.Quantity.Add(h.Quantity)
		if h.Resolved {
			c.Value = c.Value.Add(h.Value)
			c.Cost = c.Cost.Add(h.Cost)
		} else {
			c.Partial = true
		}
		if !slices.Contains(c.Accounts, h.Account) {
			c.Accounts = append(c.Accounts, h.Account)
		}
	}
	slices.Sort(keys)
	cs := make([]folio.Consolidated, 0, len(keys))
	for _, k := range keys {
		c := byKey[k]
		slices.Sort(c.Accounts)
		cs = append(cs, *c)
	}
	return cs
}

// complete fills the blank fields of a with those of b.
func complete(a, b folio.Security) folio.Security {
	if a.Ticker == "" {
		a.Ticker = b.Ticker
	}
	if a.ISIN == "" {
		a.ISIN = b.ISIN
	}
	if a.CUSIP == "" {
		a.CUSIP = b.CUSIP
	}
	if a.Name == "" {
		a.Name = b.Name
	}
	if a.Class == "" || a.Class == folio.Other {
		a.Class = b.Class
	}
	return a
}

// transactions concatenates the transactions of all statements, removes the
// exact duplicates reported by overlapping statements and sorts them by date.
func (r *reconciler) transactions(sts []folio.Statement) []folio.Transaction {
	type txKey struct {
		account, security, amount, currency string
		on                                  date.Date
		typ                                 folio.TxType
	}
	seen := make(map[txKey]bool)
	var txs []folio.Transaction
	for _, st := range sts {
		for _, tx := range st.Transactions {
			tx.Security = r.ids.enrich(tx.Security)
			k := txKey{
				account:  tx.Account,
				security: r.ids.key(tx.Security),
				amount:   tx.Amount.Decimal().String(),
				currency: tx.Amount.Currency(),
				on:       tx.Date,
				typ:      tx.Type,
			}
			if seen[k] {
				continue
			}
			seen[k] = true
			txs = append(txs, tx)
		}
	}
	slices.SortStableFunc(txs, func(a, b folio.Transaction) int {
		return cmp.Or(
			a.Date.Compare(b.Date),
			cmp.Compare(a.Account, b.Account),
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(r.ids.key(a.Security), r.ids.key(b.Security)),
			a.Amount.Decimal().Cmp(b.Amount.Decimal()),
			cmp.Compare(a.BrokerRef, b.BrokerRef),
		)
	})
	return txs
}

// valuations keeps the latest reported valuation of each account, sorted by account.
func valuations(sts []folio.Statement) []folio.Valuation {
	byAccount := make(map[string]folio.Valuation)
	for _, st := range sts {
		for _, v := range st.Valuations {
			if prev, ok := byAccount[v.Account]; !ok || !v.AsOf.Before(prev.AsOf) {
				byAccount[v.Account] = v
			}
		}
	}
	vs := make([]folio.Valuation, 0, len(byAccount))
	for _, v := range byAccount {
		vs = append(vs, v)
	}
	slices.SortFunc(vs, func(a, b folio.Valuation) int { return cmp.Compare(a.Account, b.Account) })
	return vs
}

// history keeps every reported valuation, one per account and date, sorted by
// account then date. A later statement replaces an earlier figure of the same day.
func history(sts []folio.Statement) []folio.Valuation {
	type day struct {
		account string
		on      date.Date
	}
	byDay := make(map[day]folio.Valuation)
	for _, st := range sts {
		for _, v := range st.Valuations {
			byDay[day{v.Account, v.AsOf}] = v
		}
	}
	vs := make([]folio.Valuation, 0, len(byDay))
	for _, v := range byDay {
		vs = append(vs, v)
	}
	slices.SortFunc(vs, func(a, b folio.Valuation) int {
		return cmp.Or(cmp.Compare(a.Account, b.Account), a.AsOf.Compare(b.AsOf))
	})
	return vs
}
