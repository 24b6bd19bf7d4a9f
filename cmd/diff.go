package cmd

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
	"github.com/pgdatadiff/pgdatadiff/cmd/internal/cmdutil"
	"github.com/pgdatadiff/pgdatadiff/dbconn"
	"github.com/pgdatadiff/pgdatadiff/diff"
	"github.com/pgdatadiff/pgdatadiff/diff/progress"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// errMismatchesFound signals a clean run which found divergent data. It is
// reported through the exit code, not as an error message.
var errMismatchesFound = errors.New("mismatches found")

var (
	flagChunkSize       int
	flagCountOnly       bool
	flagSchema          string
	flagChunksPerSecond int

	tablesCmd = &cobra.Command{
		Use:   "tables",
		Short: "Compare the contents of every table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, diff.DiffAllTables)
		},
	}

	sequencesCmd = &cobra.Command{
		Use:   "sequences",
		Short: "Compare the current value of every sequence.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, diff.DiffAllSequences)
		},
	}

	allCmd = &cobra.Command{
		Use:   "all",
		Short: "Compare every table, then every sequence.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, diff.DiffAllTables, diff.DiffAllSequences)
		},
	}
)

type diffEntry func(
	ctx context.Context,
	conns dbconn.OrderedConns,
	logger zerolog.Logger,
	reporter progress.Reporter,
	opts ...diff.Opt,
) (int, error)

func runDiff(cmd *cobra.Command, entries ...diffEntry) error {
	logger, err := cmdutil.Logger()
	if err != nil {
		return err
	}
	cmdutil.RunMetricsServer(logger)

	ctx := cmd.Context()
	conns, err := cmdutil.LoadDBConns(ctx)
	if err != nil {
		return err
	}
	defer func() {
		for _, conn := range conns {
			_ = conn.Close(ctx)
		}
	}()
	for _, conn := range conns {
		logger.Info().Str("dialect", conn.Dialect()).Msgf("connected to %s", conn.ID())
	}

	reporter := newReporter(logger)
	defer reporter.Close()

	opts := []diff.Opt{
		diff.WithChunkSize(flagChunkSize),
		diff.WithCountOnly(flagCountOnly),
		diff.WithSchema(flagSchema),
		diff.WithChunksPerSecond(flagChunksPerSecond),
	}

	failures := 0
	for _, entry := range entries {
		n, err := entry(ctx, conns, logger, reporter, opts...)
		if err != nil {
			return errors.Wrap(err, "error running diff")
		}
		failures += n
	}
	if diff.ExitCode(failures) != 0 {
		return errMismatchesFound
	}
	return nil
}

func newReporter(logger zerolog.Logger) progress.Reporter {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return progress.NewSpinnerReporter()
	}
	return progress.LogReporter{Logger: logger}
}

func init() {
	for _, cmd := range []*cobra.Command{tablesCmd, sequencesCmd, allCmd} {
		cmd.Flags().IntVar(
			&flagChunkSize,
			"chunk-size",
			100000,
			"number of rows to hash per page",
		)
		cmd.Flags().BoolVar(
			&flagCountOnly,
			"count-only",
			false,
			"compare row counts only, skipping content hashing",
		)
		cmd.Flags().StringVar(
			&flagSchema,
			"schema",
			"public",
			"schema whose tables and sequences are compared",
		)
		cmd.Flags().IntVar(
			&flagChunksPerSecond,
			"chunks-per-second",
			0,
			"maximum pages fetched per second (0 for no limit)",
		)
		rootCmd.AddCommand(cmd)
	}
}
