package folio

import "github.com/etnz/folio/date"

var (
	apple  = Security{Ticker: "AAPL", ISIN: "US0378331005", Name: "Apple Inc.", Class: Equity}
	google = Security{Ticker: "GOOG", CUSIP: "38259P508", Name: "Alphabet Inc.", Class: Equity}
	day    = date.New(2025, 5, 27)
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// NO is a helper for test to create money from const wit no currency set
func NO(v float64) Money { return M(v, "") }
