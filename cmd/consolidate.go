package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/broker"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/fx"
	"github.com/etnz/folio/pipeline"
	"github.com/etnz/folio/report"
	"github.com/google/subcommands"
)

// formats of the consolidated report.
var formats = []string{"text", "md", "json", "html", "msgpack"}

type consolidateCmd struct {
	format   string
	query    string
	output   string
	currency string
	rates    string
	on       string
	workers  int
	timeout  time.Duration
	strict   bool
}

func (*consolidateCmd) Name() string { return "consolidate" }
func (*consolidateCmd) Synopsis() string {
	return "consolidates broker statements into a single portfolio report"
}
func (*consolidateCmd) Usage() string {
	return `folio consolidate [-format text|md|json|html|msgpack] [-q <jsonpath>] [-o <file>] <dir|file>...

  Reads the statements (text files, pages separated by form feeds), detects
  their broker layout, extracts holdings, transactions and reported
  valuations, and consolidates them into one portfolio valued in the base
  currency.

  A file named "<broker>--<anything>.txt" is first tried with the <broker>
  layout. Run 'folio adapters' for the list of layouts.

Usage Examples:
# Render the report of all statements in a folder.
$ folio consolidate statements/

# Print the total value only.
$ folio consolidate -q '$.total.amount' statements/

`
}

func (c *consolidateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "text", "Output format: "+strings.Join(formats, ", "))
	f.StringVar(&c.query, "q", "", "JSONPath query over the JSON report, e.g. '$.total.amount'. Overrides -format.")
	f.StringVar(&c.output, "o", "", "Output file. Defaults to the standard output.")
	f.StringVar(&c.currency, "currency", "", "Base reporting currency. Overrides the configuration.")
	f.StringVar(&c.rates, "rates", "", "Exchange rates file (JSONL). Overrides the configuration.")
	f.StringVar(&c.on, "on", "", "Report date. Defaults to the latest statement date.")
	f.IntVar(&c.workers, "workers", 0, "Statements parsed concurrently. Overrides the configuration.")
	f.DurationVar(&c.timeout, "timeout", 0, "Parsing timeout per statement. Overrides the configuration.")
	f.BoolVar(&c.strict, "strict", false, "Exit with a failure status when a statement could not be parsed.")
}

func (c *consolidateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		stderr("Error: missing statements, see 'folio help consolidate'\n")
		return subcommands.ExitUsageError
	}
	if !slices.Contains(formats, c.format) {
		stderr("Error: unknown format %q, want one of %s\n", c.format, strings.Join(formats, ", "))
		return subcommands.ExitUsageError
	}
	opt, err := c.options()
	if err != nil {
		stderr("Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	var docs []folio.RawDocument
	for _, arg := range f.Args() {
		d, err := pipeline.Load(arg)
		if err != nil {
			stderr("Error loading statements: %v\n", err)
			return subcommands.ExitFailure
		}
		docs = append(docs, d...)
	}

	r, err := pipeline.Run(ctx, docs, opt)
	if err != nil {
		stderr("Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var out bytes.Buffer
	if err := c.render(&out, r); err != nil {
		stderr("Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.write(out.Bytes()); err != nil {
		stderr("Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if n := len(r.Errors); n > 0 {
		stderr("%d of %d statements could not be consolidated.\n", n, len(docs))
		if c.strict {
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// options merges the configuration and the flags.
func (c *consolidateCmd) options() (pipeline.Options, error) {
	cfg, err := loadConfig()
	if err != nil {
		return pipeline.Options{}, err
	}
	if c.currency != "" {
		cfg.BaseCurrency = strings.ToUpper(c.currency)
	}
	if c.rates != "" {
		cfg.RatesFile = c.rates
	}
	if c.workers > 0 {
		cfg.Workers = c.workers
	}
	if c.timeout > 0 {
		cfg.ParseTimeout = c.timeout
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Options{}, err
	}

	var on date.Date
	if c.on != "" {
		if on, err = date.ParseAny(c.on, date.LayoutISO, date.LayoutEU, date.LayoutEnglish); err != nil {
			return pipeline.Options{}, fmt.Errorf("parsing report date: %w", err)
		}
	}
	reg, err := broker.Registry()
	if err != nil {
		return pipeline.Options{}, err
	}
	var rates fx.Source
	if rates, err = cfg.Rates(); err != nil {
		return pipeline.Options{}, fmt.Errorf("loading exchange rates: %w", err)
	}
	log := cfg.Logger(os.Stderr)
	return pipeline.Options{
		Registry:   reg,
		Currency:   cfg.BaseCurrency,
		On:         on,
		Rates:      rates,
		References: cfg.Securities,
		Workers:    cfg.Workers,
		Timeout:    cfg.ParseTimeout,
		Logger:     &log,
	}, nil
}

func (c *consolidateCmd) render(w io.Writer, r *report.Report) error {
	if c.query != "" {
		v, err := report.Query(r, c.query)
		if err != nil {
			return err
		}
		if s, ok := v.(string); ok {
			_, err = fmt.Fprintln(w, s)
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	switch c.format {
	case "md":
		_, err := io.WriteString(w, report.Markdown(r))
		return err
	case "json":
		return report.JSON(w, r)
	case "html":
		return report.HTML(w, r)
	case "msgpack":
		return report.MessagePack(w, r)
	default:
		_, err := io.WriteString(w, renderMarkdown(report.Markdown(r)))
		return err
	}
}

func (c *consolidateCmd) write(data []byte) error {
	if c.output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(c.output, data, 0644); err != nil {
		return fmt.Errorf("error writing report %q: %w", c.output, err)
	}
	return nil
}
