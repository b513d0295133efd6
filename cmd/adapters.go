package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/folio/adapter"
	"github.com/etnz/folio/broker"
	"github.com/google/subcommands"
)

type adaptersCmd struct {
	fingerprints bool
}

func (*adaptersCmd) Name() string     { return "adapters" }
func (*adaptersCmd) Synopsis() string { return "lists the supported broker statement layouts" }
func (*adaptersCmd) Usage() string {
	return `folio adapters [-fingerprints]

  Lists the adapters in trial order. The name of an adapter is also the
  hint used in file names: "<name>--<anything>.txt".
`
}

func (c *adaptersCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.fingerprints, "fingerprints", false, "Also print the text each adapter recognizes.")
}

func (c *adaptersCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	reg, err := broker.Registry()
	if err != nil {
		stderr("Error: %v\n", err)
		return subcommands.ExitFailure
	}
	listAdapters(os.Stdout, reg, c.fingerprints)
	return subcommands.ExitSuccess
}

func listAdapters(w io.Writer, reg *adapter.Registry, fingerprints bool) {
	for _, a := range reg.Adapters() {
		fmt.Fprintln(w, a.Name())
		if !fingerprints {
			continue
		}
		for _, line := range strings.Split(strings.TrimSpace(a.Fingerprint()), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}
