// Package cmd implements the folio CLI: it consolidates broker statements
// into a single portfolio report.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio/config"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&consolidateCmd{}, "statements")
	c.Register(&detectCmd{}, "statements")
	c.Register(&adaptersCmd{}, "statements")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the configuration file (YAML). Defaults to folio.yaml in the current directory, if any.")

// loadConfig loads the application configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// Completion describes the command line for shell completion.
func Completion() *complete.Command {
	statements := predict.Or(predict.Dirs("*"), predict.Files("*.txt"))
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.yaml"),
		},
		Sub: map[string]*complete.Command{
			"consolidate": {
				Flags: map[string]complete.Predictor{
					"format":   predict.Set(formats),
					"q":        predict.Something,
					"o":        predict.Files("*"),
					"currency": predict.Something,
					"rates":    predict.Files("*.jsonl"),
					"on":       predict.Something,
					"workers":  predict.Something,
					"timeout":  predict.Something,
				},
				Args: statements,
			},
			"detect":   {Args: statements},
			"adapters": {},
			"help":     {},
		},
	}
}

// stderr prints a user facing message.
func stderr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
