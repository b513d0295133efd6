// Package fx provides the exchange rates used to value holdings in the base
// currency.
package fx

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// ErrRateNotAvailable is returned when no rate is known for a currency pair at a date.
var ErrRateNotAvailable = errors.New("exchange rate not available")

// Source provides exchange rates.
type Source interface {
	// Rate returns how many units of to are worth one unit of from, on a given day.
	Rate(from, to string, on date.Date) (decimal.Decimal, error)
}

// Convert returns m in the currency to, at the rate of a day. An amount
// without currency, or already in to, needs no rate.
func Convert(src Source, m folio.Money, to string, on date.Date) (folio.Money, error) {
	if m.Currency() == to || m.Currency() == "" {
		return folio.M(m.Decimal(), to), nil
	}
	if src == nil {
		return folio.Money{}, fmt.Errorf("%s/%s on %s: %w", m.Currency(), to, on, ErrRateNotAvailable)
	}
	rate, err := src.Rate(m.Currency(), to, on)
	if err != nil {
		return folio.Money{}, err
	}
	return m.Convert(rate, to), nil
}

type pair struct{ base, quote string }

// Table is an in-memory Source of daily rates.
//
// A rate is valid for LookBack days after its date, so that weekend and
// holiday gaps do not make a conversion fail. Inverse pairs are derived.
type Table struct {
	LookBack int
	rates    map[pair]*date.History[decimal.Decimal]
}

// NewTable returns an empty table.
func NewTable(lookBack int) *Table {
	return &Table{LookBack: lookBack, rates: make(map[pair]*date.History[decimal.Decimal])}
}

// Add records that one unit of base is worth rate units of quote on a day.
func (t *Table) Add(on date.Date, base, quote string, rate decimal.Decimal) error {
	base, quote = strings.ToUpper(base), strings.ToUpper(quote)
	if !folio.IsCurrency(base) || !folio.IsCurrency(quote) {
		return fmt.Errorf("invalid currency pair %s/%s", base, quote)
	}
	if !rate.IsPositive() {
		return fmt.Errorf("invalid rate %s for %s/%s on %s", rate, base, quote, on)
	}
	p := pair{base, quote}
	h, ok := t.rates[p]
	if !ok {
		h = new(date.History[decimal.Decimal])
		t.rates[p] = h
	}
	h.Append(on, rate)
	return nil
}

// Rate implements Source.
func (t *Table) Rate(from, to string, on date.Date) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if r, ok := t.lookup(pair{from, to}, on); ok {
		return r, nil
	}
	if r, ok := t.lookup(pair{to, from}, on); ok {
		return decimal.NewFromInt(1).DivRound(r, 16), nil
	}
	return decimal.Zero, fmt.Errorf("%s/%s on %s: %w", from, to, on, ErrRateNotAvailable)
}

func (t *Table) lookup(p pair, on date.Date) (decimal.Decimal, bool) {
	h, ok := t.rates[p]
	if !ok {
		return decimal.Zero, false
	}
	r, day, ok := h.ValueAsOf(on)
	if !ok || day.Add(t.LookBack).Before(on) {
		return decimal.Zero, false
	}
	return r, true
}

// rateLine is one line of a rates file.
type rateLine struct {
	On    date.Date       `json:"on"`
	Base  string          `json:"base"`
	Quote string          `json:"quote"`
	Rate  decimal.Decimal `json:"rate"`
}

// Decode reads rates from a stream of JSONL data, one rate per line:
//
//	{"on":"2025-05-27","base":"EUR","quote":"USD","rate":"1.10"}
func Decode(r io.Reader, lookBack int) (*Table, error) {
	t := NewTable(lookBack)
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var l rateLine
		if err := json.Unmarshal(line, &l); err != nil {
			return nil, fmt.Errorf("line %d: invalid rate %q: %w", n, string(line), err)
		}
		if err := t.Add(l.On, l.Base, l.Quote, l.Rate); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading rates: %w", err)
	}
	return t, nil
}

// Load reads a rates file, see Decode.
func Load(path string, lookBack int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open rates file: %w", err)
	}
	defer f.Close()
	t, err := Decode(f, lookBack)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
