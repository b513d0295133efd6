// Package pipeline runs the consolidation of a set of statements: documents
// are normalized and parsed concurrently, then reconciled into a single
// report once all of them are done.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/adapter"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/fx"
	"github.com/etnz/folio/kpi"
	"github.com/etnz/folio/reconcile"
	"github.com/etnz/folio/report"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrTimeout is the cause of the ParseError of a document whose parsing took
// longer than Options.Timeout.
var ErrTimeout = errors.New("parsing timed out")

// Options of a run.
type Options struct {
	Registry   *adapter.Registry
	Currency   string            // base reporting currency
	On         date.Date         // report date, the latest statement date when zero
	Rates      fx.Source         // may be nil
	References map[string]string // ticker -> ISIN
	Workers    int               // documents parsed concurrently, at least one
	Timeout    time.Duration     // per document, no limit when zero
	Logger     *zerolog.Logger   // may be nil
}

// outcome of the parsing of one document.
type outcome struct {
	adapter   string
	statement folio.Statement
	err       error
	duplicate string // source of the first document with the same content
}

// Run consolidates documents into a report.
//
// A document that cannot be parsed never fails the run: its error is
// reported in the report. Run only fails when ctx is done.
func Run(ctx context.Context, raws []folio.RawDocument, opt Options) (*report.Report, error) {
	if opt.Registry == nil {
		return nil, errors.New("no adapter registry")
	}
	log := zerolog.Nop()
	if opt.Logger != nil {
		log = *opt.Logger
	}

	docs := make([]adapter.Document, len(raws))
	outcomes := make([]outcome, len(raws))
	seen := make(map[string]string)
	for i, raw := range raws {
		docs[i] = adapter.NewDocument(raw, i)
		if first, ok := seen[docs[i].Fingerprint]; ok {
			outcomes[i].duplicate = first
			continue
		}
		seen[docs[i].Fingerprint] = docs[i].Source
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opt.Workers, 1))
	for i, doc := range docs {
		if outcomes[i].duplicate != "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			o := parse(gctx, opt.Registry, doc, opt.Timeout)
			outcomes[i] = o
			if o.err != nil {
				log.Warn().Err(o.err).Str("source", doc.Source).Str("adapter", o.adapter).Dur("duration", time.Since(start)).Msg("document rejected")
				return nil
			}
			log.Info().Str("source", doc.Source).Str("adapter", o.adapter).Dur("duration", time.Since(start)).
				Int("positions", len(o.statement.Positions)).Int("transactions", len(o.statement.Transactions)).
				Int("warnings", len(o.statement.Warnings)).Msg("document parsed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		statements []folio.Statement
		documents  []report.Document
		issues     []folio.Warning
	)
	for i, doc := range docs {
		o := outcomes[i]
		d := report.Document{Source: doc.Source, Adapter: o.adapter, Fingerprint: doc.Fingerprint}
		switch {
		case o.duplicate != "":
			d.Status = report.StatusDuplicate
			d.Message = fmt.Sprintf("same content as %s", o.duplicate)
			issues = append(issues, folio.Warning{Kind: folio.DuplicateDocument, Source: doc.Source, Message: d.Message})
		case o.err != nil:
			w := folio.IssueFromError(doc.Source, o.err)
			d.Status = report.StatusError
			if w.Kind == folio.UnrecognizedFormat {
				d.Status = report.StatusUnrecognized
			}
			d.Message = o.err.Error()
			issues = append(issues, w)
		default:
			d.Status = report.StatusOK
			d.Account = o.statement.Account.ID
			d.AsOf = o.statement.AsOf
			statements = append(statements, o.statement)
			issues = append(issues, o.statement.Warnings...)
		}
		documents = append(documents, d)
	}

	res := reconcile.Reconcile(statements, reconcile.Options{
		Currency:   opt.Currency,
		On:         opt.On,
		Rates:      opt.Rates,
		References: opt.References,
	})
	issues = append(issues, res.Warnings...)
	perf, perfIssues := kpi.Compute(res.Portfolio, opt.Rates)
	issues = append(issues, perfIssues...)
	r := report.Assemble(res.Portfolio, perf, documents, issues)
	log.Info().Int("documents", len(docs)).Int("statements", len(statements)).
		Int("errors", len(r.Errors)).Int("warnings", len(r.Warnings)).
		Str("total", r.Total.StringFixed()+" "+r.Total.Currency()).Msg("portfolio consolidated")
	return r, nil
}

// parse selects the adapter of a document and runs it, within timeout when
// it is positive. A panicking adapter fails its document only.
func parse(ctx context.Context, reg *adapter.Registry, doc adapter.Document, timeout time.Duration) outcome {
	a, err := reg.Select(doc)
	if err != nil {
		return outcome{err: err}
	}
	name := a.Name()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{adapter: name, err: doc.Fail(name, fmt.Errorf("adapter panic: %v", r))}
			}
		}()
		st, err := a.Parse(doc)
		done <- outcome{adapter: name, statement: st, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			var perr *folio.ParseError
			if !errors.As(o.err, &perr) {
				o.err = doc.Fail(name, o.err)
			}
		}
		return o
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return outcome{adapter: name, err: doc.Fail(name, err)}
	}
}
