package folio

import "github.com/etnz/folio/date"

// Holding is a Position retained by the reconciliation, valued in the base currency.
type Holding struct {
	Position
	Key      string // resolved security identity
	Source   string // statement the position comes from
	Value    Money  // market value in the base currency, zero when unresolved
	Cost     Money  // cost basis in the base currency, zero when unknown or unresolved
	Resolved bool   // false when no exchange rate was available
}

// Consolidated is the sum of the holdings of one security across all accounts.
type Consolidated struct {
	Key      string
	Security Security
	Quantity Quantity
	Value    Money    // sum of resolved holding values
	Cost     Money    // sum of resolved holding costs
	Accounts []string // accounts holding the security, sorted
	Partial  bool     // true when at least one holding could not be converted
}

// Portfolio is the aggregation root built fresh by each run.
type Portfolio struct {
	On           date.Date // report generation date
	Currency     string    // base reporting currency
	Accounts     []Account // sorted by ID
	Holdings     []Holding // sorted by account, then key
	Consolidated []Consolidated
	Transactions []Transaction // sorted by date
	Valuations   []Valuation   // latest reported valuation per account
	History      []Valuation   // every reported valuation, sorted by account then date
	Total        Money
}

// AccountHoldings returns the holdings of one account.
func (p *Portfolio) AccountHoldings(id string) []Holding {
	var hs []Holding
	for _, h := range p.Holdings {
		if h.Account == id {
			hs = append(hs, h)
		}
	}
	return hs
}

// AccountTotal returns the sum of the resolved holding values of one account.
func (p *Portfolio) AccountTotal(id string) Money {
	total := M(0, p.Currency)
	for _, h := range p.AccountHoldings(id) {
		if h.Resolved {
			total = total.Add(h.Value)
		}
	}
	return total
}

// Valuation returns the latest reported valuation of an account.
func (p *Portfolio) Valuation(id string) (Valuation, bool) {
	for _, v := range p.Valuations {
		if v.Account == id {
			return v, true
		}
	}
	return Valuation{}, false
}

// AccountHistory returns the reported valuations of one account, oldest first.
func (p *Portfolio) AccountHistory(id string) []Valuation {
	var vs []Valuation
	for _, v := range p.History {
		if v.Account == id {
			vs = append(vs, v)
		}
	}
	return vs
}
