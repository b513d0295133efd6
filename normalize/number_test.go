package normalize

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		tok  string
		want string
		ok   bool
	}{
		{"1234", "1234", true},
		{"1234.56", "1234.56", true},
		{"1 234,56", "1234.56", true},
		{"1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"1'234.50", "1234.50", true},
		{"1,234,567.89", "1234567.89", true},
		{"1.234.567", "1234567", true},
		{"12 000", "12000", true},
		{"1,234", "1234", true},
		{"12,5", "12.5", true},
		{"0,123", "0.123", true},
		{"27.05.2025", "27.05.2025", false},
		{"10 100.00", "10 100.00", false},
		{"1234,567.8", "1234,567.8", false},
		{"1,2,3", "1,2,3", false},
	}
	for _, tt := range tests {
		got, ok := canonical(tt.tok)
		if got != tt.want || ok != tt.ok {
			t.Errorf("canonical(%q) = %q, %v, want %q, %v", tt.tok, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"Total 1 234,56 EUR", "Total 1234.56 EUR"},
		{"as of 27.05.2025", "as of 27.05.2025"},
		{"US0378331005", "US0378331005"},
		{"ISIN US0378331005 qty 1,000", "ISIN US0378331005 qty 1000"},
		{"May 27 2025", "May 27 2025"},
		{"07/23/2025", "07/23/2025"},
		{"(1,234.50)", "(1234.50)"},
		{"12,5%", "12.5%"},
		{"v1.2.3", "v1.2.3"},
	}
	for _, tt := range tests {
		if got := Numbers(tt.line); got != tt.want {
			t.Errorf("Numbers(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		cell string
		want string
	}{
		{"1234.56", "1234.56"},
		{"$1,234.56", "1234.56"},
		{"1 234,56 €", "1234.56"},
		{"USD 1'234.50", "1234.5"},
		{"(1,234.56)", "-1234.56"},
		{"-12.5", "-12.5"},
		{"12.5-", "-12.5"},
		{"\u2212100", "-100"},
		{"1\u00a0234,56", "1234.56"},
		{"12,5%", "12.5"},
		{"+3", "3"},
		{"0", "0"},
	}
	for _, tt := range tests {
		got, err := Decimal(tt.cell)
		if err != nil {
			t.Errorf("Decimal(%q) unexpected error: %v", tt.cell, err)
			continue
		}
		if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
			t.Errorf("Decimal(%q) = %v, want %v", tt.cell, got, want)
		}
	}
}

func TestDecimal_Errors(t *testing.T) {
	for _, cell := range []string{"", "  ", "-", "USD"} {
		_, err := Decimal(cell)
		if !errors.Is(err, ErrNoNumber) {
			t.Errorf("Decimal(%q) error = %v, want ErrNoNumber", cell, err)
		}
	}
	for _, cell := range []string{"27.05.2025", "1,2,3", "12 34", "n/a"} {
		if _, err := Decimal(cell); err == nil {
			t.Errorf("Decimal(%q) expected an error", cell)
		}
	}
}
