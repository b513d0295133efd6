package folio

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// isinRegex checks for the basic structure: 2 letters, 9 alphanumeric, 1 digit.
var isinRegex = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// cusipRegex checks for 8 alphanumeric characters (or *@#) and 1 digit.
var cusipRegex = regexp.MustCompile(`^[A-Z0-9*@#]{8}[0-9]$`)

// AssetClass is the coarse category used to group holdings in reports.
type AssetClass string

const (
	Equity      AssetClass = "equity"
	FixedIncome AssetClass = "fixed_income"
	Fund        AssetClass = "fund"
	Cash        AssetClass = "cash"
	Other       AssetClass = "other"
)

// assetClassKeywords are tried in order, the first keyword found wins.
var assetClassKeywords = []struct {
	keyword string
	class   AssetClass
}{
	{"money market", Cash},
	{"cash", Cash},
	{"денеж", Cash},
	{"bond", FixedIncome},
	{"fixed", FixedIncome},
	{"облигац", FixedIncome},
	{"etf", Fund},
	{"fund", Fund},
	{"фонд", Fund},
	{"equit", Equity},
	{"stock", Equity},
	{"share", Equity},
	{"акци", Equity},
}

// ParseAssetClass maps a free-text asset class label (English or Russian) to an AssetClass.
// Unknown or empty labels are Other.
func ParseAssetClass(label string) AssetClass {
	l := strings.ToLower(label)
	for _, k := range assetClassKeywords {
		if strings.Contains(l, k.keyword) {
			return k.class
		}
	}
	return Other
}

// Security represents a tradeable asset as printed on a statement.
// Several identifiers may be present, the Name is metadata only.
type Security struct {
	Ticker string     `json:"ticker,omitempty"`
	ISIN   string     `json:"isin,omitempty"`
	CUSIP  string     `json:"cusip,omitempty"`
	Name   string     `json:"name,omitempty"`
	Class  AssetClass `json:"assetClass,omitempty"`
}

// Normalize returns a copy with identifiers trimmed and upper-cased.
func (s Security) Normalize() Security {
	s.Ticker = strings.ToUpper(strings.TrimSpace(s.Ticker))
	s.ISIN = strings.ToUpper(strings.TrimSpace(s.ISIN))
	s.CUSIP = strings.ToUpper(strings.TrimSpace(s.CUSIP))
	s.Name = strings.TrimSpace(s.Name)
	if s.Class == "" {
		s.Class = Other
	}
	return s
}

// HasIdentifier reports whether at least one identifier is set.
func (s Security) HasIdentifier() bool {
	return s.Ticker != "" || s.ISIN != "" || s.CUSIP != ""
}

// IsZero reports whether s carries no identifier and no name, as for cash movements.
func (s Security) IsZero() bool { return !s.HasIdentifier() && s.Name == "" }

// GlobalID returns the ISIN of the security, either printed or derived from
// its CUSIP, or "" when none is valid.
func (s Security) GlobalID() string {
	s = s.Normalize()
	if ValidateISIN(s.ISIN) == nil {
		return s.ISIN
	}
	if isin, err := CUSIPToISIN(s.CUSIP); err == nil {
		return isin
	}
	return ""
}

// Key returns the identity key of the security, from its own identifiers only:
// the ISIN when known, otherwise "TICKER:<ticker>".
func (s Security) Key() string {
	if id := s.GlobalID(); id != "" {
		return id
	}
	s = s.Normalize()
	if s.Ticker != "" {
		return TickerKey(s.Ticker)
	}
	if s.ISIN != "" {
		return "ID:" + s.ISIN
	}
	if s.CUSIP != "" {
		return "ID:" + s.CUSIP
	}
	return ""
}

// TickerKey is the identity key of a security known only by its ticker.
func TickerKey(ticker string) string {
	return "TICKER:" + strings.ToUpper(strings.TrimSpace(ticker))
}

// Label is the human friendly identifier: the ticker when known, else the global id.
func (s Security) Label() string {
	s = s.Normalize()
	switch {
	case s.Ticker != "":
		return s.Ticker
	case s.GlobalID() != "":
		return s.GlobalID()
	default:
		return s.Name
	}
}

// checkDigit applies the ISIN variation of the Luhn algorithm to the 11 first characters.
func checkDigit(body string) int {
	// Convert letters to numbers for check digit calculation
	var numericStr strings.Builder
	for _, char := range body {
		if char >= 'A' && char <= 'Z' {
			numericStr.WriteString(strconv.Itoa(int(char - 'A' + 10)))
		} else {
			numericStr.WriteRune(char)
		}
	}

	sum := 0
	isSecond := true
	digits := numericStr.String()
	for i := len(digits) - 1; i >= 0; i-- {
		digit, _ := strconv.Atoi(string(digits[i]))

		if isSecond {
			digit *= 2
		}

		sum += (digit / 10) + (digit % 10)
		isSecond = !isSecond
	}
	return (10 - (sum % 10)) % 10
}

// ValidateISIN checks if a string is a validly formatted ISIN.
// It returns nil if valid, or a descriptive error if invalid.
func ValidateISIN(isin string) error {
	if len(isin) != 12 {
		return fmt.Errorf("invalid length: must be 12 characters, got %d", len(isin))
	}
	if !isinRegex.MatchString(isin) {
		return fmt.Errorf("invalid format: must be 2 uppercase letters, 9 alphanumeric chars, and 1 digit")
	}
	expected := checkDigit(isin[:11])
	actual, _ := strconv.Atoi(string(isin[11]))
	if expected != actual {
		return fmt.Errorf("invalid check digit: expected %d, got %d", expected, actual)
	}
	return nil
}

// ValidateCUSIP checks the format and the check digit of a CUSIP.
func ValidateCUSIP(cusip string) error {
	if !cusipRegex.MatchString(cusip) {
		return fmt.Errorf("invalid CUSIP %q: must be 8 alphanumeric chars and 1 digit", cusip)
	}
	sum := 0
	for i, c := range cusip[:8] {
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case c >= 'A' && c <= 'Z':
			v = int(c-'A') + 10
		case c == '*':
			v = 36
		case c == '@':
			v = 37
		case c == '#':
			v = 38
		}
		if i%2 == 1 {
			v *= 2
		}
		sum += v/10 + v%10
	}
	expected := (10 - sum%10) % 10
	if actual := int(cusip[8] - '0'); actual != expected {
		return fmt.Errorf("invalid CUSIP %q check digit: expected %d, got %d", cusip, expected, actual)
	}
	return nil
}

// CUSIPToISIN returns the US ISIN that embeds a valid CUSIP.
func CUSIPToISIN(cusip string) (string, error) {
	if err := ValidateCUSIP(cusip); err != nil {
		return "", err
	}
	body := "US" + cusip
	return body + strconv.Itoa(checkDigit(body)), nil
}
