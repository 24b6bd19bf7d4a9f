// Package diff orchestrates comparison runs across all tables and sequences
// of the two databases.
package diff

import (
	"context"
	"fmt"

	"github.com/pgdatadiff/pgdatadiff/catalog"
	"github.com/pgdatadiff/pgdatadiff/dbconn"
	"github.com/pgdatadiff/pgdatadiff/diff/progress"
	"github.com/pgdatadiff/pgdatadiff/diff/seqdiff"
	"github.com/pgdatadiff/pgdatadiff/diff/tablediff"
	"github.com/pgdatadiff/pgdatadiff/diff/verdict"
	"github.com/pgdatadiff/pgdatadiff/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const DefaultSchema = "public"

type Opt func(*diffOpts)

type diffOpts struct {
	chunkSize       int
	countOnly       bool
	schema          string
	chunksPerSecond int
	retrySettings   retry.Settings
}

func (o diffOpts) rateLimiter() *rate.Limiter {
	if o.chunksPerSecond == 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(o.chunksPerSecond), 1)
}

func WithChunkSize(c int) Opt {
	return func(o *diffOpts) {
		o.chunkSize = c
	}
}

func WithCountOnly(b bool) Opt {
	return func(o *diffOpts) {
		o.countOnly = b
	}
}

func WithSchema(s string) Opt {
	return func(o *diffOpts) {
		if s != "" {
			o.schema = s
		}
	}
}

func WithChunksPerSecond(c int) Opt {
	return func(o *diffOpts) {
		o.chunksPerSecond = c
	}
}

func WithRetrySettings(s retry.Settings) Opt {
	return func(o *diffOpts) {
		o.retrySettings = s
	}
}

func makeOpts(inOpts []Opt) diffOpts {
	o := diffOpts{
		chunkSize:     tablediff.DefaultChunkSize,
		schema:        DefaultSchema,
		retrySettings: retry.DefaultSettings(),
	}
	for _, applyOpt := range inOpts {
		applyOpt(&o)
	}
	return o
}

var (
	entitiesCompared = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pgdatadiff",
		Subsystem: "diff",
		Name:      "entities_compared_total",
		Help:      "Comparisons finished, by entity kind and verdict.",
	}, []string{"kind", "verdict"})

	pagesCompared = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pgdatadiff",
		Subsystem: "diff",
		Name:      "pages_compared_total",
		Help:      "Hash pages fetched and compared across both databases.",
	})
)

// DiffAllTables compares every table in the source schema, in sorted order,
// and returns the number of tables that mismatched. A mismatch never halts
// the pass; only unclassified errors do.
func DiffAllTables(
	ctx context.Context,
	conns dbconn.OrderedConns,
	logger zerolog.Logger,
	reporter progress.Reporter,
	inOpts ...Opt,
) (int, error) {
	o := makeOpts(inOpts)

	if err := catalog.EnsureLastAggregate(ctx, conns); err != nil {
		return 0, err
	}
	tables, err := catalog.Tables(ctx, conns[0], o.schema)
	if err != nil {
		return 0, err
	}

	logger.Info().Msgf("starting table analysis")
	limiter := o.rateLimiter()
	failures := 0
	for i, table := range tables {
		reporter.Start(fmt.Sprintf("Analysing table %s. [%d/%d]", table.Table, i+1, len(tables)))
		res, err := tablediff.DiffTable(ctx, conns, logger, table.Name, tablediff.Options{
			ChunkSize:     o.chunkSize,
			CountOnly:     o.countOnly,
			RetrySettings: o.retrySettings,
			Limiter:       limiter,
			OnPage:        pagesCompared.Inc,
		})
		if err != nil {
			return failures, err
		}
		reporter.Complete(verdict.Result{
			Verdict: res.Verdict,
			Message: fmt.Sprintf("%s - %s", table.Table, res.Message),
		})
		entitiesCompared.WithLabelValues("table", res.Verdict.String()).Inc()
		if res.Verdict == verdict.Mismatch {
			failures++
		}
	}
	logger.Info().Msgf("table analysis complete")
	return failures, nil
}

// DiffAllSequences compares every sequence in the source schema, in sorted
// order, and returns the number of sequences that mismatched.
func DiffAllSequences(
	ctx context.Context,
	conns dbconn.OrderedConns,
	logger zerolog.Logger,
	reporter progress.Reporter,
	inOpts ...Opt,
) (int, error) {
	o := makeOpts(inOpts)

	seqs, err := catalog.Sequences(ctx, conns[0], o.schema)
	if err != nil {
		return 0, err
	}

	logger.Info().Msgf("starting sequence analysis")
	failures := 0
	for i, seq := range seqs {
		reporter.Start(fmt.Sprintf("Analysing sequence %s. [%d/%d]", seq.Name, i+1, len(seqs)))
		res, err := seqdiff.DiffSequence(ctx, conns, logger, seq, o.retrySettings)
		if err != nil {
			return failures, err
		}
		reporter.Complete(verdict.Result{
			Verdict: res.Verdict,
			Message: fmt.Sprintf("%s - %s", seq.Name, res.Message),
		})
		entitiesCompared.WithLabelValues("sequence", res.Verdict.String()).Inc()
		if res.Verdict == verdict.Mismatch {
			failures++
		}
	}
	logger.Info().Msgf("sequence analysis complete")
	return failures, nil
}

// ExitCode maps a failure tally to the process exit status.
func ExitCode(failures int) int {
	if failures > 0 {
		return 1
	}
	return 0
}
