// Package adapter defines the contract implemented by broker statement
// parsers, the registry that dispatches a document to the one parser that
// recognizes it, and the text helpers shared by parsers to locate anchors and
// tables in normalized statement text.
package adapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/normalize"
	"github.com/google/uuid"
)

// Adapter parses one broker statement layout.
//
// Implementations must be pure functions of the document text: they share no
// mutable state and can be called concurrently.
type Adapter interface {
	// Name identifies the adapter. It is also the broker hint that selects it.
	Name() string
	// Matches reports whether the normalized text is in this adapter's layout.
	Matches(text string) bool
	// Parse extracts the canonical records of a document. It returns a
	// *folio.ParseError when the layout is recognized but cannot be parsed.
	Parse(doc Document) (folio.Statement, error)
	// Fingerprint returns a minimal text that this adapter, and only this
	// one, recognizes.
	Fingerprint() string
}

// namespace of the content fingerprints.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/etnz/folio/document"))

// Document is a normalized RawDocument, ready to be dispatched and parsed.
type Document struct {
	Source      string
	Hint        string
	Order       int      // ingestion order
	Pages       []string // normalized pages
	Text        string   // normalized pages joined
	Fingerprint string   // derived from Text only, identical contents share it
}

// NewDocument normalizes a raw document.
func NewDocument(raw folio.RawDocument, order int) Document {
	pages := normalize.Pages(raw.Pages)
	text := normalize.Join(pages)
	return Document{
		Source:      raw.Source,
		Hint:        strings.TrimSpace(raw.BrokerHint),
		Order:       order,
		Pages:       pages,
		Text:        text,
		Fingerprint: uuid.NewSHA1(namespace, []byte(text)).String(),
	}
}

// Statement returns an empty statement for doc, parsed by the named adapter.
func (d Document) Statement(adapter string, account folio.Account, asOf date.Date) folio.Statement {
	return folio.Statement{
		Source:      d.Source,
		Order:       d.Order,
		Adapter:     adapter,
		Fingerprint: d.Fingerprint,
		Account:     account,
		AsOf:        asOf,
	}
}

// SectionError is an error located in a section of the document text.
type SectionError struct {
	Section string
	Err     error
}

func (e *SectionError) Error() string { return e.Err.Error() }
func (e *SectionError) Unwrap() error { return e.Err }

// sectionErrorf returns a SectionError for a section of text.
func sectionErrorf(section string, format string, args ...any) error {
	return &SectionError{Section: folio.Excerpt(section), Err: fmt.Errorf(format, args...)}
}

// Fail wraps err into a *folio.ParseError raised by the named adapter on doc.
// When err carries a SectionError, its section becomes the ParseError's one.
func (d Document) Fail(adapter string, err error) error {
	perr := &folio.ParseError{Source: d.Source, Adapter: adapter, Err: err}
	var se *SectionError
	if errors.As(err, &se) {
		perr.Section = se.Section
	}
	return perr
}

// Skip returns the RowSkipped warning for a row that cannot be used.
func (d Document) Skip(account string, row Row, reason string) folio.Warning {
	return folio.Warning{
		Kind:    folio.RowSkipped,
		Source:  d.Source,
		Account: account,
		Message: fmt.Sprintf("line %d %q: %s", row.Line, row.Text(), reason),
	}
}
