package adapter

import (
	"fmt"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/normalize"
)

// Registry is an ordered, immutable set of adapters.
type Registry struct {
	adapters []Adapter
}

// NewRegistry returns a registry trying adapters in the given order.
//
// Registration fails when two adapters share a name, when an adapter does not
// recognize its own fingerprint, or when a fingerprint is recognized by more
// than one adapter: detection must be unambiguous.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	names := make(map[string]bool)
	for _, a := range adapters {
		name := strings.ToLower(a.Name())
		if name == "" {
			return nil, fmt.Errorf("adapter %T has no name", a)
		}
		if names[name] {
			return nil, fmt.Errorf("duplicate adapter name %q", a.Name())
		}
		names[name] = true
	}
	for i, a := range adapters {
		fp := normalize.Text([]string{a.Fingerprint()})
		if !a.Matches(fp) {
			return nil, fmt.Errorf("adapter %q does not match its own fingerprint", a.Name())
		}
		for j, b := range adapters {
			if i != j && b.Matches(fp) {
				return nil, fmt.Errorf("ambiguous detection: adapter %q matches the fingerprint of %q", b.Name(), a.Name())
			}
		}
	}
	return &Registry{adapters: append([]Adapter(nil), adapters...)}, nil
}

// Adapters returns the registered adapters in trial order.
func (r *Registry) Adapters() []Adapter { return append([]Adapter(nil), r.adapters...) }

// Lookup returns the adapter with the given name, case insensitive.
func (r *Registry) Lookup(name string) (Adapter, bool) {
	for _, a := range r.adapters {
		if strings.EqualFold(a.Name(), name) {
			return a, true
		}
	}
	return nil, false
}

// Select returns the first adapter that recognizes the document text.
//
// The adapter named by the document hint, if any, is tried first. When no
// adapter matches, Select returns a *folio.UnrecognizedFormatError listing
// the adapters tried.
func (r *Registry) Select(doc Document) (Adapter, error) {
	order := r.adapters
	if doc.Hint != "" {
		for i, a := range r.adapters {
			if strings.EqualFold(a.Name(), doc.Hint) {
				order = make([]Adapter, 0, len(r.adapters))
				order = append(order, a)
				order = append(order, r.adapters[:i]...)
				order = append(order, r.adapters[i+1:]...)
				break
			}
		}
	}
	var tried []string
	for _, a := range order {
		tried = append(tried, a.Name())
		if a.Matches(doc.Text) {
			return a, nil
		}
	}
	return nil, &folio.UnrecognizedFormatError{Source: doc.Source, Tried: tried}
}

// Matching returns every adapter recognizing the text, in trial order.
func (r *Registry) Matching(text string) []Adapter {
	var as []Adapter
	for _, a := range r.adapters {
		if a.Matches(text) {
			as = append(as, a)
		}
	}
	return as
}
