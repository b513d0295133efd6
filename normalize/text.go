// Package normalize turns the page text extracted from statements into a
// canonical text that adapters can match and parse without caring about
// Unicode variants, column spacing or locale specific number formats.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// a horizontal gap containing a tab, or of two spaces or more, separates columns.
	columnGap = regexp.MustCompile(`[ ]*\t[ \t]*|[ ]{2,}`)
	// page numbering lines, in English and Russian.
	pageNumber = regexp.MustCompile(`(?i)^(page|стр\.?|страница)\s*\d+(\s*(of|/|из)\s*\d+)?$`)
)

// edge is the number of lines at the top and bottom of a page inspected for
// repeated headers and footers.
const edge = 3

// foldRunes maps the typographic variants of spaces and dashes to ASCII and
// applies NFKC compatibility folding.
func foldRunes(s string) string {
	s = norm.NFKC.String(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u00a0', '\u2007', '\u2009', '\u200a', '\u202f', '\u2002', '\u2003':
			return ' '
		case '\u2212', '\u2010', '\u2011', '\u2012', '\u2013', '\u2014', '\u2015', '\ufe63', '\uff0d':
			return '-'
		case '\r', '\u200b', '\ufeff':
			return -1
		}
		return r
	}, s)
}

// Line normalizes a single line of text: folding, column gaps and numbers.
func Line(s string) string {
	s = foldRunes(s)
	s = strings.Trim(s, " \t")
	s = columnGap.ReplaceAllString(s, "\t")
	cells := strings.Split(s, "\t")
	for i, c := range cells {
		cells[i] = Numbers(c)
	}
	return strings.Join(cells, "\t")
}

// page normalizes the lines of one page and drops page numbering. Blank line
// runs collapse to one and the page is trimmed of leading and trailing blank
// lines.
func page(text string) []string {
	var lines []string
	blank := false
	for _, l := range strings.Split(foldRunes(text), "\n") {
		l = Line(l)
		if pageNumber.MatchString(l) {
			continue
		}
		if l == "" {
			blank = len(lines) > 0
			continue
		}
		if blank {
			lines = append(lines, "")
			blank = false
		}
		lines = append(lines, l)
	}
	return lines
}

// Pages normalizes the page texts of a document.
//
// Lines repeated at the top or bottom of every page (running headers and
// footers) are kept on the first page only. Pages is idempotent.
func Pages(pages []string) []string {
	split := make([][]string, len(pages))
	for i, p := range pages {
		split[i] = page(p)
	}
	for len(split) > 1 && dropRepeated(split) {
	}
	out := make([]string, len(split))
	for i, lines := range split {
		out[i] = strings.Join(trimBlank(lines), "\n")
	}
	return out
}

// Text normalizes pages and joins them into a single text.
func Text(pages []string) string { return Join(Pages(pages)) }

// Join concatenates normalized pages, separated by a blank line. Empty pages
// are skipped.
func Join(pages []string) string {
	var parts []string
	for _, p := range pages {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

// dropRepeated removes from pages 2..n the edge lines found at the edge of
// every page. It reports whether something was removed.
func dropRepeated(pages [][]string) bool {
	common := edgeLines(pages[0])
	for _, p := range pages[1:] {
		lines := edgeLines(p)
		for l := range common {
			if !lines[l] {
				delete(common, l)
			}
		}
	}
	if len(common) == 0 {
		return false
	}
	removed := false
	for i, p := range pages[1:] {
		n := len(p)
		kept := p[:0:0]
		for j, l := range p {
			if common[l] && isEdge(p, j, n) {
				removed = true
				continue
			}
			kept = append(kept, l)
		}
		pages[i+1] = trimBlank(kept)
	}
	return removed
}

// edgeLines returns the set of non blank lines in the top and bottom edges of a page.
func edgeLines(lines []string) map[string]bool {
	set := make(map[string]bool)
	for j, l := range lines {
		if l != "" && isEdge(lines, j, len(lines)) {
			set[l] = true
		}
	}
	return set
}

// isEdge reports whether line j is among the first or last edge non blank lines.
func isEdge(lines []string, j, n int) bool {
	before, after := 0, 0
	for k := 0; k < j; k++ {
		if lines[k] != "" {
			before++
		}
	}
	for k := j + 1; k < n; k++ {
		if lines[k] != "" {
			after++
		}
	}
	return before < edge || after < edge
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	// collapse blank runs left by removals
	out := lines[:0:0]
	for i, l := range lines {
		if l == "" && i > 0 && lines[i-1] == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
