package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/adapter"
	"github.com/etnz/folio/broker"
	"github.com/etnz/folio/fx"
	"github.com/etnz/folio/report"
	"github.com/google/go-cmp/cmp"
)

func options(t *testing.T) Options {
	t.Helper()
	reg, err := broker.Registry()
	if err != nil {
		t.Fatal(err)
	}
	rates, err := fx.Load("testdata/rates.jsonl", 5)
	if err != nil {
		t.Fatal(err)
	}
	return Options{Registry: reg, Currency: "USD", Rates: rates, Workers: 2, Timeout: 10 * time.Second}
}

func run(t *testing.T, opt Options) *report.Report {
	t.Helper()
	docs, err := Load("testdata/statements")
	if err != nil {
		t.Fatal(err)
	}
	r, err := Run(context.Background(), docs, opt)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return r
}

func TestRun(t *testing.T) {
	r := run(t, options(t))

	if len(r.Holdings) != 1 {
		t.Fatalf("got %d holdings, want 1: %+v", len(r.Holdings), r.Holdings)
	}
	h := r.Holdings[0]
	if h.Key != "TICKER:XYZ" || h.Quantity.String() != "15" || h.Value.StringFixed() != "1522.50" || h.Value.Currency() != "USD" {
		t.Errorf("holding = %s %s %s %s, want TICKER:XYZ 15 1522.50 USD", h.Key, h.Quantity, h.Value.StringFixed(), h.Value.Currency())
	}
	if r.Total.StringFixed() != "1522.50" {
		t.Errorf("Total = %s, want 1522.50", r.Total.StringFixed())
	}
	if r.Generated.String() != "2025-05-27" {
		t.Errorf("Generated = %s, want 2025-05-27", r.Generated)
	}

	type doc struct{ Source, Adapter, Status string }
	var docs []doc
	for _, d := range r.Documents {
		docs = append(docs, doc{d.Source, d.Adapter, string(d.Status)})
	}
	want := []doc{
		{"freedom.txt", "freedom-finance", "ok"},
		{"junk.txt", "", "unrecognized"},
		{"raymond-james--broken.txt", "raymond-james", "error"},
		{"ubs--may.txt", "ubs", "ok"},
		{"ubs-copy.txt", "", "duplicate"},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Errorf("Documents mismatch (-want +got):\n%s", diff)
	}

	var errs, warnings []folio.Kind
	for _, w := range r.Errors {
		errs = append(errs, w.Kind)
	}
	for _, w := range r.Warnings {
		warnings = append(warnings, w.Kind)
	}
	if diff := cmp.Diff([]folio.Kind{folio.UnrecognizedFormat, folio.AdapterParseError}, errs); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]folio.Kind{folio.DuplicateDocument}, warnings); diff != "" {
		t.Errorf("Warnings mismatch (-want +got):\n%s", diff)
	}

	var reported []string
	for _, a := range r.Accounts {
		if a.Reported != nil {
			reported = append(reported, a.ID+" "+a.Reported.Total.StringFixed()+" "+a.Reported.Total.Currency())
		}
	}
	if diff := cmp.Diff([]string{"AB-12345 1000.00 USD", "FF-778899 522.50 USD"}, reported); diff != "" {
		t.Errorf("reported valuations mismatch (-want +got):\n%s", diff)
	}

	if nav := r.Performance.NAV; nav.StringFixed() != "1522.50" || nav.Currency() != "USD" || len(r.Performance.Accounts) != 2 {
		t.Errorf("Performance = %+v, want a NAV of 1522.50 USD over 2 accounts", r.Performance)
	}
}

func TestRun_Deterministic(t *testing.T) {
	var outputs []string
	for _, workers := range []int{1, 4, 1} {
		opt := options(t)
		opt.Workers = workers
		var buf bytes.Buffer
		if err := report.JSON(&buf, run(t, opt)); err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, buf.String())
	}
	for i := 1; i < len(outputs); i++ {
		if outputs[i] != outputs[0] {
			t.Errorf("run %d differs from run 0:\n%s", i, cmp.Diff(outputs[0], outputs[i]))
		}
	}
}

func TestRun_NoDocument(t *testing.T) {
	r, err := Run(context.Background(), nil, options(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Holdings) != 0 || !r.Total.IsZero() || r.Total.Currency() != "USD" {
		t.Errorf("Run(nil) = %+v, want an empty report", r)
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	docs, err := Load("testdata/statements")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Run(ctx, docs, options(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

// stub recognizes documents starting with its name, and runs parse on them.
type stub struct {
	name  string
	parse func(adapter.Document) (folio.Statement, error)
}

func (s stub) Name() string                                      { return s.name }
func (s stub) Matches(text string) bool                          { return strings.HasPrefix(text, s.name+"\n") }
func (s stub) Fingerprint() string                               { return s.name + "\nstatement" }
func (s stub) Parse(d adapter.Document) (folio.Statement, error) { return s.parse(d) }

func TestRun_FailingAdapters(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	reg, err := adapter.NewRegistry(
		stub{"slow", func(adapter.Document) (folio.Statement, error) {
			<-release
			return folio.Statement{}, nil
		}},
		stub{"panic", func(adapter.Document) (folio.Statement, error) { panic("boom") }},
		stub{"plain", func(adapter.Document) (folio.Statement, error) { return folio.Statement{}, errors.New("no table") }},
	)
	if err != nil {
		t.Fatal(err)
	}
	docs := []folio.RawDocument{
		{Source: "slow.txt", Pages: []string{"slow\nstatement 1"}},
		{Source: "panic.txt", Pages: []string{"panic\nstatement 2"}},
		{Source: "plain.txt", Pages: []string{"plain\nstatement 3"}},
	}
	r, err := Run(context.Background(), docs, Options{Registry: reg, Currency: "USD", Workers: 3, Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Errors) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(r.Errors), r.Errors)
	}
	for i, want := range []string{ErrTimeout.Error(), "adapter panic: boom", "no table"} {
		e := r.Errors[i]
		if e.Kind != folio.AdapterParseError || !strings.Contains(e.Message, want) {
			t.Errorf("Errors[%d] = %v, want an AdapterParseError containing %q", i, e, want)
		}
		if r.Documents[i].Status != report.StatusError {
			t.Errorf("Documents[%d].Status = %s, want error", i, r.Documents[i].Status)
		}
	}
}
