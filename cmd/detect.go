package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/etnz/folio"
	"github.com/etnz/folio/adapter"
	"github.com/etnz/folio/broker"
	"github.com/etnz/folio/pipeline"
	"github.com/google/subcommands"
)

type detectCmd struct {
	output string
}

func (*detectCmd) Name() string { return "detect" }
func (*detectCmd) Synopsis() string {
	return "reports the broker layout detected for each statement, without parsing it"
}
func (*detectCmd) Usage() string {
	return `folio detect <dir|file>...

  Prints, for each statement, the adapter selected to parse it and every
  adapter that recognizes its text. More than one match means the detection
  relies on the trial order, or on the file name hint.
`
}

func (c *detectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file. Defaults to the standard output.")
}

func (c *detectCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		stderr("Error: missing statements, see 'folio help detect'\n")
		return subcommands.ExitUsageError
	}
	reg, err := broker.Registry()
	if err != nil {
		stderr("Error: %v\n", err)
		return subcommands.ExitFailure
	}
	var raws []folio.RawDocument
	for _, arg := range f.Args() {
		d, err := pipeline.Load(arg)
		if err != nil {
			stderr("Error loading statements: %v\n", err)
			return subcommands.ExitFailure
		}
		raws = append(raws, d...)
	}

	w := io.Writer(os.Stdout)
	if c.output != "" {
		file, err := os.Create(c.output)
		if err != nil {
			stderr("Error creating %q: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		w = file
	}
	if err := detect(w, reg, raws); err != nil {
		stderr("Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// detect writes one line per document: its source, the selected adapter and
// the adapters matching its text.
func detect(w io.Writer, reg *adapter.Registry, raws []folio.RawDocument) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tADAPTER\tMATCHING")
	for i, raw := range raws {
		doc := adapter.NewDocument(raw, i)
		selected := "-"
		if a, err := reg.Select(doc); err == nil {
			selected = a.Name()
		}
		var names []string
		for _, a := range reg.Matching(doc.Text) {
			names = append(names, a.Name())
		}
		matching := "-"
		if len(names) > 0 {
			matching = strings.Join(names, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", doc.Source, selected, matching)
	}
	return tw.Flush()
}
