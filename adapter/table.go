package adapter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSectionNotFound is returned by FindTable when no heading matches.
var ErrSectionNotFound = errors.New("section not found")

// Column describes a table column by the header labels it may carry.
type Column struct {
	Name     string   // canonical name used by Row.Get
	Aliases  []string // header labels, compared case insensitively
	Required bool
}

// Table is a table located in a normalized text: a heading line, a header row
// and the rows that follow. Cells are tab separated.
type Table struct {
	Heading string
	Header  []string
	Rows    []Row
	columns map[string]int // canonical name -> cell index
}

// Row is one line of a table body.
type Row struct {
	Line  int // 1-based line number in the document text
	Cells []string
	table *Table
}

// placeholders printed in place of an empty cell.
var placeholders = map[string]bool{"-": true, "--": true, "n/a": true, "N/A": true}

// Text returns the row as printed.
func (r Row) Text() string { return strings.Join(r.Cells, "  ") }

// Get returns the cell of a named column. It is empty when the table has no
// such column, or when the cell is missing or a placeholder.
func (r Row) Get(name string) string {
	i, ok := r.table.columns[name]
	if !ok || i >= len(r.Cells) {
		return ""
	}
	c := strings.TrimSpace(r.Cells[i])
	if placeholders[c] {
		return ""
	}
	return c
}

// Complete reports whether the row has as many cells as the header.
func (r Row) Complete() bool { return len(r.Cells) == len(r.table.Header) }

// Has reports whether the table has a named column.
func (t *Table) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// RequireAny checks that at least one of the named columns is present.
func (t *Table) RequireAny(names ...string) error {
	for _, n := range names {
		if t.Has(n) {
			return nil
		}
	}
	return sectionErrorf(t.Heading+"\n"+strings.Join(t.Header, "\t"), "table %q: none of the columns %s", t.Heading, strings.Join(names, ", "))
}

// stopWords start the lines that close a table body.
var stopWords = []string{"total", "итого", "всего"}

// FindTable locates the table introduced by one of the headings.
//
// The header row is the first non blank line after the heading. Its cells are
// mapped to columns by alias, in any order; unknown header cells are kept but
// never returned. The body ends at a line with a single cell (the next
// heading or free text) or a line starting with a total. Blank lines and
// repetitions of the header row are skipped.
func FindTable(text string, headings []string, columns []Column) (*Table, error) {
	lines := strings.Split(text, "\n")
	start := -1
	var heading string
	for i, l := range lines {
		first, _, _ := strings.Cut(l, "\t")
		for _, h := range headings {
			if strings.EqualFold(strings.TrimSpace(first), h) {
				start, heading = i, h
				break
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return nil, sectionErrorf(text, "%w: %s", ErrSectionNotFound, strings.Join(headings, " | "))
	}

	i := start + 1
	for i < len(lines) && lines[i] == "" {
		i++
	}
	if i == len(lines) {
		return nil, sectionErrorf(lines[start], "section %q has no header row", heading)
	}
	t := &Table{Heading: heading, Header: strings.Split(lines[i], "\t"), columns: make(map[string]int)}
	for ci, cell := range t.Header {
		for _, c := range columns {
			if _, done := t.columns[c.Name]; done {
				continue
			}
			if matchesAlias(cell, c.Aliases) {
				t.columns[c.Name] = ci
				break
			}
		}
	}
	for _, c := range columns {
		if c.Required && !t.Has(c.Name) {
			return nil, sectionErrorf(lines[start]+"\n"+lines[i], "table %q: missing column %q", heading, c.Name)
		}
	}

	header := lines[i]
	for i++; i < len(lines); i++ {
		l := lines[i]
		if l == "" || l == header {
			continue
		}
		cells := strings.Split(l, "\t")
		if len(cells) < 2 || isTotal(cells[0]) {
			break
		}
		t.Rows = append(t.Rows, Row{Line: i + 1, Cells: cells, table: t})
	}
	return t, nil
}

func matchesAlias(cell string, aliases []string) bool {
	cell = strings.TrimSpace(cell)
	for _, a := range aliases {
		if strings.EqualFold(cell, a) {
			return true
		}
	}
	return false
}

func isTotal(cell string) bool {
	l := strings.ToLower(cell)
	for _, w := range stopWords {
		if strings.HasPrefix(l, w) {
			return true
		}
	}
	return false
}

// String returns a short description of the table, for logs.
func (t *Table) String() string {
	return fmt.Sprintf("%s (%d columns, %d rows)", t.Heading, len(t.Header), len(t.Rows))
}
