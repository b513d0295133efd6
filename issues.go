package folio

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies the issues reported by a run.
type Kind string

const (
	// UnrecognizedFormat: no adapter matched the document. Fatal for that document.
	UnrecognizedFormat Kind = "UnrecognizedFormat"
	// AdapterParseError: an adapter matched but could not find required anchors or columns.
	// Fatal for that document.
	AdapterParseError Kind = "AdapterParseError"
	// MissingCurrencyRate: a figure could not be converted and is excluded from totals.
	MissingCurrencyRate Kind = "MissingCurrencyRate"
	// DuplicateRecordResolved: two statements disagree on the same position at the same date.
	DuplicateRecordResolved Kind = "DuplicateRecordResolved"
	// RowSkipped: a table row lacks a required field.
	RowSkipped Kind = "RowSkipped"
	// DuplicateDocument: the same document content was submitted twice.
	DuplicateDocument Kind = "DuplicateDocument"
)

// Fatal reports whether the kind prevents the document from contributing to the portfolio.
func (k Kind) Fatal() bool { return k == UnrecognizedFormat || k == AdapterParseError }

// Warning is an issue attached to the report. Despite its name it carries
// fatal per-document errors too, see Kind.Fatal.
type Warning struct {
	Kind     Kind   `json:"kind"`
	Source   string `json:"source,omitempty"`
	Account  string `json:"account,omitempty"`
	Security string `json:"security,omitempty"`
	Message  string `json:"message"`
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(string(w.Kind))
	if w.Source != "" {
		fmt.Fprintf(&b, " [%s]", w.Source)
	}
	if w.Account != "" {
		fmt.Fprintf(&b, " account %s", w.Account)
	}
	if w.Security != "" {
		fmt.Fprintf(&b, " security %s", w.Security)
	}
	b.WriteString(": ")
	b.WriteString(w.Message)
	return b.String()
}

// UnrecognizedFormatError is returned when no registered adapter matches a document.
type UnrecognizedFormatError struct {
	Source string
	Tried  []string // adapter names tried, in trial order
}

func (e *UnrecognizedFormatError) Error() string {
	return fmt.Sprintf("unrecognized format for %q: tried %s", e.Source, strings.Join(e.Tried, ", "))
}

// ParseError is returned by an adapter that matched a document but could not
// parse it, usually because the broker changed its layout.
type ParseError struct {
	Source  string
	Adapter string
	Section string // the offending section of text, may be truncated
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: cannot parse %q: %v", e.Adapter, e.Source, e.Err)
	if e.Section != "" {
		msg += fmt.Sprintf(" in section %q", e.Section)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// maxSection bounds the section text carried by a ParseError.
const maxSection = 200

// Excerpt truncates a section of text so that it can be carried by a ParseError.
func Excerpt(section string) string {
	section = strings.TrimSpace(section)
	if r := []rune(section); len(r) > maxSection {
		return string(r[:maxSection]) + "…"
	}
	return section
}

// IssueFromError converts a per-document error into a fatal Warning.
func IssueFromError(source string, err error) Warning {
	kind := AdapterParseError
	var ufe *UnrecognizedFormatError
	if errors.As(err, &ufe) {
		kind = UnrecognizedFormat
	}
	return Warning{Kind: kind, Source: source, Message: err.Error()}
}
