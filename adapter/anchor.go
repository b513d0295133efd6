package adapter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/normalize"
)

// Find returns the first submatch of re in text, trimmed.
func Find(text string, re *regexp.Regexp) (string, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Require is like Find but fails when the anchor is absent.
func Require(text string, re *regexp.Regexp, what string) (string, error) {
	v, ok := Find(text, re)
	if !ok || v == "" {
		return "", Missing(text, what)
	}
	return v, nil
}

// Value returns the cells that follow a label on the first line starting with
// one of labels. A label may be followed by a colon or by a tab.
func Value(text string, labels ...string) ([]string, bool) {
	for _, l := range strings.Split(text, "\n") {
		cells := strings.Split(l, "\t")
		label, rest := cells[0], cells[1:]
		if before, after, ok := strings.Cut(label, ":"); ok {
			label = before
			if after = strings.TrimSpace(after); after != "" {
				rest = append([]string{after}, rest...)
			}
		}
		label = strings.TrimSpace(label)
		for _, want := range labels {
			if strings.EqualFold(label, want) && len(rest) > 0 {
				return rest, true
			}
		}
	}
	return nil, false
}

// Amount parses a numeric cell as an amount in the given currency.
func Amount(cell, currency string) (folio.Money, error) {
	d, err := normalize.Decimal(cell)
	if err != nil {
		return folio.Money{}, err
	}
	return folio.M(d, currency), nil
}

// Quantity parses a numeric cell as a quantity.
func Quantity(cell string) (folio.Quantity, error) {
	d, err := normalize.Decimal(cell)
	if err != nil {
		return folio.Quantity{}, err
	}
	return folio.Q(d), nil
}

// Currency returns cell as an ISO 4217 code, or def when the cell is empty.
func Currency(cell, def string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(cell))
	switch c {
	case "":
		c = def
	case "$", "US$":
		c = "USD"
	case "€":
		c = "EUR"
	case "£":
		c = "GBP"
	case "₽", "РУБ", "RUR":
		c = "RUB"
	}
	if !folio.IsCurrency(c) {
		return "", fmt.Errorf("unknown currency %q", cell)
	}
	return c, nil
}

// Date parses a date cell in one of the layouts.
func Date(cell string, layouts ...string) (date.Date, error) {
	return date.ParseAny(cell, layouts...)
}

// Missing returns the error raised when an anchor is absent from text.
func Missing(text, what string) error {
	return sectionErrorf(text, "%s not found", what)
}
