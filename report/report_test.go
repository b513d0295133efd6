package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/fx"
	"github.com/etnz/folio/kpi"
	"github.com/etnz/folio/reconcile"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

var may27 = date.New(2025, 5, 27)

// sample returns the report of two accounts holding XYZ, one in EUR.
func sample(t *testing.T) *Report {
	t.Helper()
	rates := fx.NewTable(5)
	for _, on := range []date.Date{date.New(2025, 5, 2), may27} {
		if err := rates.Add(on, "EUR", "USD", decimal.RequireFromString("1.10")); err != nil {
			t.Fatal(err)
		}
	}
	xyz := folio.Security{Ticker: "XYZ", Class: folio.Equity}
	tlt := folio.Security{Ticker: "TLT", Class: folio.FixedIncome}
	sts := []folio.Statement{
		{
			Source: "ubs.txt", Order: 0, Adapter: "ubs", AsOf: may27,
			Account: folio.Account{ID: "A", Broker: "ubs", BaseCurrency: "USD"},
			Positions: []folio.Position{
				{Account: "A", Security: xyz, Quantity: folio.Q(10), MarketValue: folio.M(1000, "USD"), AsOf: may27},
				{Account: "A", Security: tlt, Quantity: folio.Q(5), MarketValue: folio.M(477.5, "USD"), AsOf: may27},
			},
			Valuations: []folio.Valuation{{Account: "A", AsOf: may27, Total: folio.M(1477.5, "USD")}},
		},
		{
			Source: "ff.txt", Order: 1, Adapter: "freedom-finance", AsOf: may27,
			Account: folio.Account{ID: "B", Broker: "freedom-finance", BaseCurrency: "EUR"},
			Positions: []folio.Position{
				{Account: "B", Security: xyz, Quantity: folio.Q(5), MarketValue: folio.M(475, "EUR"), AsOf: may27},
			},
			Transactions: []folio.Transaction{
				{Account: "B", Type: folio.Transfer, Amount: folio.M(5000, "EUR"), Date: date.New(2025, 5, 2)},
			},
		},
	}
	res := reconcile.Reconcile(sts, reconcile.Options{Currency: "USD", Rates: rates})
	docs := []Document{
		{Source: "ubs.txt", Adapter: "ubs", Status: StatusOK, Account: "A", AsOf: may27},
		{Source: "ff.txt", Adapter: "freedom-finance", Status: StatusOK, Account: "B", AsOf: may27},
		{Source: "junk.txt", Status: StatusUnrecognized, Message: "no adapter matched"},
	}
	issues := append(res.Warnings,
		folio.Warning{Kind: folio.UnrecognizedFormat, Source: "junk.txt", Message: "no adapter matched"},
		folio.Warning{Kind: folio.RowSkipped, Source: "ubs.txt", Account: "A", Message: `line 12 "Cash": missing market value`},
	)
	perf, perfIssues := kpi.Compute(res.Portfolio, rates)
	issues = append(issues, perfIssues...)
	return Assemble(res.Portfolio, perf, docs, issues)
}

func TestAssemble(t *testing.T) {
	r := sample(t)

	if !r.Total.Equal(folio.M(2000, "USD")) {
		t.Errorf("Total = %v, want 2000 USD", r.Total)
	}
	type row struct {
		Key, Quantity, Value, Weight string
		Accounts                     []string
	}
	var got []row
	for _, h := range r.Holdings {
		got = append(got, row{h.Key, h.Quantity.String(), h.Value.StringFixed(), h.Weight.String(), h.Accounts})
	}
	want := []row{
		{"TICKER:TLT", "5", "477.50", "0.2388", []string{"A"}},
		{"TICKER:XYZ", "15", "1522.50", "0.7613", []string{"A", "B"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Holdings mismatch (-want +got):\n%s", diff)
	}

	var classes []string
	for _, c := range r.AssetClasses {
		classes = append(classes, string(c.Class)+" "+c.Value.StringFixed()+" "+c.Weight.String())
	}
	if diff := cmp.Diff([]string{"equity 1522.50 0.7613", "fixed_income 477.50 0.2388"}, classes); diff != "" {
		t.Errorf("AssetClasses mismatch (-want +got):\n%s", diff)
	}

	if len(r.Accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(r.Accounts))
	}
	a := r.Accounts[0]
	if a.ID != "A" || len(a.Positions) != 2 || a.Reported == nil || !a.Reported.Total.Equal(a.Total) {
		t.Errorf("Account A = %+v", a)
	}
	if b := r.Accounts[1]; !b.Total.Equal(folio.M(522.5, "USD")) || b.Reported != nil {
		t.Errorf("Account B = %+v, want a total of 522.50 USD and no reported valuation", b)
	}

	perf := r.Performance
	if !perf.NAV.Equal(folio.M(2000, "USD")) || len(perf.Accounts) != 2 {
		t.Errorf("Performance = %+v, want a NAV of 2000 USD over 2 accounts", perf)
	} else if b := perf.Accounts[1].Bridge; !b.Contributions.Equal(folio.M(5500, "USD")) || !b.PnL.Equal(folio.M(-4977.5, "USD")) {
		t.Errorf("Bridge of B = %+v, want 5500 USD contributed and -4977.50 USD of P&L", b)
	}

	if len(r.Errors) != 1 || r.Errors[0].Kind != folio.UnrecognizedFormat {
		t.Errorf("Errors = %v", r.Errors)
	}
	if len(r.Warnings) != 1 || r.Warnings[0].Kind != folio.RowSkipped {
		t.Errorf("Warnings = %v", r.Warnings)
	}
}

func TestJSON_Schema(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sample(t)); err != nil {
		t.Fatal(err)
	}
	dec := json.NewDecoder(&buf)
	if _, err := dec.Token(); err != nil {
		t.Fatal(err)
	}
	var keys []string
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			t.Fatal(err)
		}
		keys = append(keys, key.(string))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"generated", "baseCurrency", "total", "performance", "accounts", "holdings", "assetClasses", "transactions", "documents", "warnings", "errors"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("top level fields mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := JSON(&buf, sample(t)); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{
		`"generated": "2025-05-27"`,
		`"total": {
    "currency": "USD",
    "amount": "2000.00"
  }`,
		`"weight": "0.7613"`,
		`"netFlows": {
        "currency": "USD",
        "amount": "5500.00"
      }`,
		`"quantity": "15"`,
	} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("JSON output does not contain %s", s)
		}
	}
}

func TestJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	r := Assemble(&folio.Portfolio{Currency: "EUR"}, kpi.Performance{}, nil, nil)
	if err := JSON(&buf, r); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{`"accounts": []`, `"holdings": []`, `"errors": []`, `"amount": "0.00"`} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("JSON output does not contain %s:\n%s", s, buf.String())
		}
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sample(t))
	for _, line := range []string{
		"# Consolidated Portfolio on 2025-05-27",
		"Total value: **2000.00 USD**",
		"| XYZ | 15 | 1522.50 USD | 76.13% | A, B |",
		"| TLT | 5 | 477.50 USD | 23.88% | A |",
		"| fixed_income | 1 | 477.50 USD | 23.88% |",
		"Net asset value: **2000.00 USD**, XIRR -",
		"| B | 2025-05-27 | 522.50 USD (computed) | 0.00 USD | 5500.00 USD | 0.00 USD | -4977.50 USD | - | - |",
		"## Account A (ubs)",
		"Total value: **1477.50 USD**, reported 1477.50 USD on 2025-05-27",
		"## Account B (freedom-finance)",
		"| XYZ | 5 | 475.00 EUR | 522.50 USD | 2025-05-27 |",
		"| 2025-05-02 | B | transfer |  |  | 5000.00 EUR |",
		"| junk.txt |  | unrecognized |  |",
		"- UnrecognizedFormat [junk.txt]: no adapter matched",
		`- RowSkipped [ubs.txt] account A: line 12 "Cash": missing market value`,
	} {
		if !strings.Contains(md, line+"\n") {
			t.Errorf("Markdown does not contain line %q:\n%s", line, md)
		}
	}
	if strings.HasPrefix(md, "error ") {
		t.Fatalf("Markdown() failed: %s", md)
	}
}

func TestMarkdown_Unresolved(t *testing.T) {
	p := &folio.Portfolio{
		Currency: "USD",
		On:       may27,
		Accounts: []folio.Account{{ID: "C"}},
		Holdings: []folio.Holding{{
			Position: folio.Position{Account: "C", Security: folio.Security{Ticker: "VOD"}, Quantity: folio.Q(100), MarketValue: folio.M(80, "GBP"), AsOf: may27},
			Key:      "TICKER:VOD",
			Value:    folio.M(0, "USD"),
		}},
		Consolidated: []folio.Consolidated{{Key: "TICKER:VOD", Security: folio.Security{Ticker: "VOD"}, Quantity: folio.Q(100), Value: folio.M(0, "USD"), Accounts: []string{"C"}, Partial: true}},
		Total:        folio.M(0, "USD"),
	}
	md := Markdown(Assemble(p, kpi.Performance{}, nil, nil))
	for _, line := range []string{
		"| VOD | 100 | 0.00 USD (partial) | 0.00% | C |",
		"| VOD | 100 | 80.00 GBP | n/a | 2025-05-27 |",
	} {
		if !strings.Contains(md, line+"\n") {
			t.Errorf("Markdown does not contain line %q:\n%s", line, md)
		}
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := HTML(&buf, sample(t)); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"<h1>Consolidated Portfolio on 2025-05-27</h1>", "<table>", "1522.50 USD</td>"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("HTML does not contain %q:\n%s", s, buf.String())
		}
	}
}

func TestMessagePack(t *testing.T) {
	var a, b bytes.Buffer
	if err := MessagePack(&a, sample(t)); err != nil {
		t.Fatal(err)
	}
	if err := MessagePack(&b, sample(t)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("MessagePack output differs between two renderings of the same report")
	}

	var got map[string]any
	if err := msgpack.Unmarshal(a.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["baseCurrency"] != "USD" {
		t.Errorf("baseCurrency = %v, want USD", got["baseCurrency"])
	}
	total, _ := got["total"].(map[string]any)
	if total["amount"] != "2000.00" {
		t.Errorf("total = %v, want an amount of 2000.00", got["total"])
	}
	classes, _ := got["assetClasses"].([]any)
	if len(classes) != 2 {
		t.Fatalf("assetClasses = %v", got["assetClasses"])
	}
	if n := classes[0].(map[string]any)["holdings"]; fmt.Sprint(n) != "1" {
		t.Errorf("assetClasses[0].holdings = %v, want 1", classes[0])
	}
}

func TestQuery(t *testing.T) {
	r := sample(t)
	tests := []struct {
		path string
		want any
	}{
		{"$.total.amount", "2000.00"},
		{"$.baseCurrency", "USD"},
		{`$.holdings[?(@.key=="TICKER:XYZ")].quantity`, "15"},
		{"$.accounts[1].id", "B"},
	}
	for _, tt := range tests {
		got, err := Query(r, tt.path)
		if err != nil {
			t.Errorf("Query(%q) error = %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Query(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if _, err := Query(r, "$.["); err == nil {
		t.Error("Query with an invalid path: want an error")
	}
}
