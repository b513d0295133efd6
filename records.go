package folio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/folio/date"
)

// RawDocument is the decoded text of one source statement, one string per page.
type RawDocument struct {
	Source     string   // file identifier
	BrokerHint string   // optional adapter name suggested by the caller
	Pages      []string // page texts as produced by the pdf-to-text step
}

// Account is a brokerage account. Its identity is the broker-assigned number.
type Account struct {
	ID           string `json:"id"`
	Broker       string `json:"broker"`
	BaseCurrency string `json:"baseCurrency"`
}

// Position is one holding of an account at a point in time.
type Position struct {
	Account     string
	Security    Security
	Quantity    Quantity
	UnitCost    Money // zero when the statement does not report a cost
	MarketValue Money
	AsOf        date.Date
	Short       bool
}

// Cost returns the cost basis of the position: quantity times unit cost.
func (p Position) Cost() Money { return p.UnitCost.Mul(p.Quantity) }

// Validate checks the invariants of a position.
func (p Position) Validate() error {
	var errs []error
	if p.Account == "" {
		errs = append(errs, errors.New("missing account"))
	}
	if !p.Security.HasIdentifier() {
		errs = append(errs, errors.New("missing security identifier"))
	}
	if p.MarketValue.Currency() == "" {
		errs = append(errs, errors.New("market value has no currency"))
	}
	if !p.UnitCost.IsZero() && p.UnitCost.Currency() == "" {
		errs = append(errs, errors.New("unit cost has no currency"))
	}
	if p.AsOf.IsZero() {
		errs = append(errs, errors.New("missing as-of date"))
	}
	if !p.Short && (p.Quantity.IsNegative() || p.MarketValue.IsNegative()) {
		errs = append(errs, fmt.Errorf("negative long position: quantity %v, value %v", p.Quantity, p.MarketValue))
	}
	return errors.Join(errs...)
}

// TxType is the kind of a Transaction.
type TxType string

const (
	Buy      TxType = "buy"
	Sell     TxType = "sell"
	Dividend TxType = "dividend"
	Fee      TxType = "fee"
	Transfer TxType = "transfer"
)

// txTypeKeywords are tried in order, the first keyword found wins.
var txTypeKeywords = []struct {
	keyword string
	typ     TxType
}{
	{"dividend", Dividend},
	{"дивиденд", Dividend},
	{"fee", Fee},
	{"commission", Fee},
	{"комисси", Fee},
	{"buy", Buy},
	{"bought", Buy},
	{"purchase", Buy},
	{"покупка", Buy},
	{"sell", Sell},
	{"sold", Sell},
	{"sale", Sell},
	{"продажа", Sell},
	{"deposit", Transfer},
	{"withdraw", Transfer},
	{"transfer", Transfer},
	{"ввод", Transfer},
	{"вывод", Transfer},
	{"перевод", Transfer},
}

// ParseTxType maps a free-text activity label (English or Russian) to a TxType.
func ParseTxType(label string) (TxType, bool) {
	l := strings.ToLower(label)
	for _, k := range txTypeKeywords {
		if strings.Contains(l, k.keyword) {
			return k.typ, true
		}
	}
	return "", false
}

// Transaction is one row of an account activity table.
type Transaction struct {
	Account   string
	Security  Security // zero for cash movements
	Type      TxType
	Quantity  Quantity
	Amount    Money
	Date      date.Date
	BrokerRef string
}

// Validate checks the invariants of a transaction.
func (t Transaction) Validate() error {
	var errs []error
	if t.Account == "" {
		errs = append(errs, errors.New("missing account"))
	}
	switch t.Type {
	case Buy, Sell, Dividend, Fee, Transfer:
	default:
		errs = append(errs, fmt.Errorf("unknown transaction type %q", t.Type))
	}
	if t.Amount.Currency() == "" {
		errs = append(errs, errors.New("amount has no currency"))
	}
	if t.Date.IsZero() {
		errs = append(errs, errors.New("missing date"))
	}
	return errors.Join(errs...)
}

// Valuation is the total value of an account as reported by the statement itself.
type Valuation struct {
	Account string
	AsOf    date.Date
	Total   Money
}

// Statement gathers the canonical records parsed from one document.
type Statement struct {
	Source       string // document identifier
	Order        int    // ingestion order, later documents win ties
	Adapter      string // name of the adapter that parsed it
	Fingerprint  string // content fingerprint of the normalized text
	Account      Account
	AsOf         date.Date
	Positions    []Position
	Transactions []Transaction
	Valuations   []Valuation
	Warnings     []Warning
}
