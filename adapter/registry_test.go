package adapter

import (
	"errors"
	"strings"
	"testing"

	"github.com/etnz/folio"
	"github.com/google/go-cmp/cmp"
)

// keyword is a test adapter recognizing texts containing a keyword.
type keyword struct {
	name, word  string
	fingerprint string
}

func (k keyword) Name() string { return k.name }
func (k keyword) Matches(text string) bool {
	return strings.Contains(strings.ToLower(text), k.word)
}
func (k keyword) Parse(doc Document) (folio.Statement, error) {
	return doc.Statement(k.name, folio.Account{ID: k.name}, day), nil
}
func (k keyword) Fingerprint() string {
	if k.fingerprint != "" {
		return k.fingerprint
	}
	return "Statement by " + k.word
}

func names(as []Adapter) []string {
	var ns []string
	for _, a := range as {
		ns = append(ns, a.Name())
	}
	return ns
}

func TestNewRegistry(t *testing.T) {
	alpha := keyword{name: "alpha", word: "alpha"}
	beta := keyword{name: "beta", word: "beta"}

	tests := []struct {
		name     string
		adapters []Adapter
		wantErr  string
	}{
		{"ok", []Adapter{alpha, beta}, ""},
		{"empty", nil, ""},
		{"duplicate name", []Adapter{alpha, keyword{name: "ALPHA", word: "gamma"}}, "duplicate adapter name"},
		{"own fingerprint", []Adapter{keyword{name: "delta", word: "delta", fingerprint: "nothing here"}}, "does not match its own fingerprint"},
		{"ambiguous", []Adapter{alpha, keyword{name: "broad", word: "statement"}}, "ambiguous detection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.adapters...)
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("NewRegistry() unexpected error: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("NewRegistry() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_Select(t *testing.T) {
	reg, err := NewRegistry(
		keyword{name: "alpha", word: "alpha"},
		keyword{name: "beta", word: "beta"},
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	doc := NewDocument(folio.RawDocument{Source: "b.txt", Pages: []string{"Beta report"}}, 0)
	a, err := reg.Select(doc)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if a.Name() != "beta" {
		t.Errorf("Select() = %q, want %q", a.Name(), "beta")
	}

	// Both match, the first registered wins unless the hint says otherwise.
	both := NewDocument(folio.RawDocument{Source: "ab.txt", Pages: []string{"alpha beta"}}, 1)
	if a, _ := reg.Select(both); a.Name() != "alpha" {
		t.Errorf("Select() = %q, want %q", a.Name(), "alpha")
	}
	both.Hint = "Beta"
	if a, _ := reg.Select(both); a.Name() != "beta" {
		t.Errorf("Select() with hint = %q, want %q", a.Name(), "beta")
	}

	// A hint that does not match falls back to the other adapters.
	doc.Hint = "alpha"
	if a, _ := reg.Select(doc); a.Name() != "beta" {
		t.Errorf("Select() with wrong hint = %q, want %q", a.Name(), "beta")
	}

	unknown := NewDocument(folio.RawDocument{Source: "x.txt", Pages: []string{"gamma"}}, 2)
	unknown.Hint = "beta"
	_, err = reg.Select(unknown)
	var ufe *folio.UnrecognizedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("Select() error = %v, want UnrecognizedFormatError", err)
	}
	if diff := cmp.Diff([]string{"beta", "alpha"}, ufe.Tried); diff != "" {
		t.Errorf("tried mismatch (-want +got):\n%s", diff)
	}
	if ufe.Source != "x.txt" {
		t.Errorf("Source = %q, want %q", ufe.Source, "x.txt")
	}
}

func TestRegistry_Immutable(t *testing.T) {
	reg, _ := NewRegistry(keyword{name: "alpha", word: "alpha"})
	as := reg.Adapters()
	as[0] = keyword{name: "beta", word: "beta"}
	if got := names(reg.Adapters()); !cmp.Equal(got, []string{"alpha"}) {
		t.Errorf("Adapters() = %v, want [alpha]", got)
	}
}

func TestNewDocument(t *testing.T) {
	a := NewDocument(folio.RawDocument{Source: "a.txt", Pages: []string{"Total  1 234,56"}}, 0)
	b := NewDocument(folio.RawDocument{Source: "b.txt", Pages: []string{"Total\t1234.56\n\n"}}, 1)
	if a.Text != "Total\t1234.56" {
		t.Errorf("Text = %q, want %q", a.Text, "Total\t1234.56")
	}
	if a.Fingerprint != b.Fingerprint {
		t.Errorf("same normalized content must share the fingerprint: %q != %q", a.Fingerprint, b.Fingerprint)
	}
	c := NewDocument(folio.RawDocument{Source: "c.txt", Pages: []string{"Total  1"}}, 2)
	if a.Fingerprint == c.Fingerprint {
		t.Error("different contents must not share the fingerprint")
	}
}

func TestDocument_Fail(t *testing.T) {
	doc := NewDocument(folio.RawDocument{Source: "a.txt", Pages: []string{"nothing"}}, 0)
	_, err := FindTable(doc.Text, []string{"Holdings"}, nil)
	err = doc.Fail("alpha", err)
	var perr *folio.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Fail() = %v, want a ParseError", err)
	}
	if perr.Source != "a.txt" || perr.Adapter != "alpha" || perr.Section != "nothing" {
		t.Errorf("Fail() = %+v", perr)
	}
}
