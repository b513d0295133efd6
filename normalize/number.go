package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// numberRun matches candidate number tokens: digits possibly interleaved with
// single grouping or decimal separators.
var numberRun = regexp.MustCompile(`\d(?:[\d.,'’ ]*\d)?`)

// ErrNoNumber is returned by Decimal when the text holds no number at all,
// as for empty cells or a lone dash.
var ErrNoNumber = errors.New("no number")

// canonical rewrites a number token to its canonical form: no grouping and '.'
// as decimal separator. It reports false when tok is not a well formed number,
// for instance a date like 27.05.2025.
func canonical(tok string) (string, bool) {
	var groups []string
	var seps []rune
	var cur strings.Builder
	lastSep := true
	for _, r := range tok {
		if r >= '0' && r <= '9' {
			cur.WriteRune(r)
			lastSep = false
			continue
		}
		if lastSep {
			return tok, false // two separators in a row
		}
		groups = append(groups, cur.String())
		cur.Reset()
		seps = append(seps, r)
		lastSep = true
	}
	if lastSep {
		return tok, false
	}
	groups = append(groups, cur.String())
	if len(seps) == 0 {
		return tok, true
	}

	distinct := make(map[rune]bool)
	for _, s := range seps {
		distinct[s] = true
	}
	last := seps[len(seps)-1]

	var decimalSep, groupSep rune
	switch len(distinct) {
	case 1:
		switch {
		case last == ' ' || last == '\'' || last == '’':
			groupSep = last
		case len(seps) > 1:
			groupSep = last
		case last == '.':
			decimalSep = last
		case len(groups[1]) == 3 && groups[0] != "0":
			// 1,234 reads as a thousand, 12,5 or 0,123 as decimals.
			groupSep = last
		default:
			decimalSep = last
		}
	case 2:
		if last != '.' && last != ',' {
			return tok, false
		}
		decimalSep = last
		for _, s := range seps[:len(seps)-1] {
			if s == last {
				return tok, false
			}
			groupSep = s
		}
		if groupSep == ' ' && decimalSep == '.' {
			// "10 100.00" is more likely two columns than a grouped number.
			return tok, false
		}
	default:
		return tok, false
	}

	intGroups := groups
	fraction := ""
	if decimalSep != 0 {
		intGroups = groups[:len(groups)-1]
		fraction = groups[len(groups)-1]
	}
	if groupSep != 0 {
		if len(intGroups[0]) > 3 {
			return tok, false
		}
		for _, g := range intGroups[1:] {
			if len(g) != 3 {
				return tok, false
			}
		}
	}
	out := strings.Join(intGroups, "")
	if decimalSep != 0 {
		out += "." + fraction
	}
	return out, true
}

// Numbers rewrites every well formed number of a line to its canonical form.
// Tokens glued to letters (identifiers) and tokens that are not numbers
// (dates) are left untouched.
func Numbers(line string) string {
	locs := numberRun.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return line
	}
	var b strings.Builder
	prev := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		b.WriteString(line[prev:start])
		prev = end
		tok := line[start:end]
		if gluedBefore(line[:start]) || gluedAfter(line[end:]) {
			b.WriteString(tok)
			continue
		}
		b.WriteString(rewrite(tok))
	}
	b.WriteString(line[prev:])
	return b.String()
}

// rewrite canonicalizes tok, or each of its space separated parts when tok as
// a whole is not a number.
func rewrite(tok string) string {
	if out, ok := canonical(tok); ok {
		return out
	}
	if !strings.Contains(tok, " ") {
		return tok
	}
	parts := strings.Split(tok, " ")
	for i, p := range parts {
		if out, ok := canonical(p); ok {
			parts[i] = out
		}
	}
	return strings.Join(parts, " ")
}

func gluedBefore(s string) bool {
	if s == "" {
		return false
	}
	r := lastRune(s)
	return unicode.IsLetter(r) || r == '.' || r == ','
}

func gluedAfter(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lastRune(s string) rune {
	r := []rune(s)
	return r[len(r)-1]
}

// Decimal parses a numeric cell as printed on a statement. It is the single
// numeric routine shared by all adapters.
//
// It accepts currency symbols and codes, percent signs, grouping separators,
// comma or dot decimals, and negative amounts written as -1, 1- or (1).
func Decimal(s string) (decimal.Decimal, error) {
	raw := s
	s = foldRunes(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.Is(unicode.Sc, r) || r == '%' || r == '+' || r == '*' {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	} else if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[:len(s)-1])
	}
	if s == "" {
		return decimal.Zero, fmt.Errorf("%q: %w", raw, ErrNoNumber)
	}
	if numberRun.FindString(s) != s {
		return decimal.Zero, fmt.Errorf("invalid number %q", raw)
	}
	core, ok := canonical(s)
	if !ok {
		return decimal.Zero, fmt.Errorf("ambiguous number %q", raw)
	}
	d, err := decimal.NewFromString(core)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
