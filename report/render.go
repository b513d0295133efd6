package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/folio"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"money": func(m folio.Money) string { return strings.TrimSpace(m.StringFixed() + " " + m.Currency()) },
	"pct": func(d decimal.Decimal) string {
		return d.Shift(2).StringFixed(2) + "%"
	},
	"join":  func(s []string) string { return strings.Join(s, ", ") },
	"label": func(s folio.Security) string { return s.Label() },
	"rate": func(d *decimal.Decimal) string {
		if d == nil {
			return "-"
		}
		return d.Shift(2).StringFixed(2) + "%"
	},
}

// Markdown renders the report as a Markdown document.
func Markdown(r *Report) string {
	partials := map[string]string{
		"report_title":        "report_title.md",
		"report_holdings":     "report_holdings.md",
		"report_performance":  "report_performance.md",
		"report_classes":      "report_classes.md",
		"report_accounts":     "report_accounts.md",
		"report_transactions": "report_transactions.md",
		"report_documents":    "report_documents.md",
		"report_issues":       "report_issues.md",
	}
	return renderTemplate("report", "report.md", partials, r)
}

// renderTemplate renders a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// HTML writes the Markdown rendering of the report as an HTML fragment.
func HTML(w io.Writer, r *Report) error {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	return md.Convert([]byte(Markdown(r)), w)
}

// MessagePack writes the report in MessagePack, with the JSON field names
// and values.
func MessagePack(w io.Writer, r *Report) error {
	v, err := generic(r)
	if err != nil {
		return err
	}
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	return enc.Encode(v)
}

// generic returns the JSON document of the report as maps and slices.
// Integers stay integers, other numbers are kept as their decimal text.
func generic(r *Report) (any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return numbers(v), nil
}

func numbers(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = numbers(e)
		}
	case []any:
		for i, e := range v {
			v[i] = numbers(e)
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		return v.String()
	}
	return v
}
