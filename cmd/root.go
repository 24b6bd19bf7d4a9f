package cmd

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pgdatadiff/pgdatadiff/cmd/internal/cmdutil"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgdatadiff",
	Short: "Verify that two PostgreSQL databases hold equivalent data",
	Long: `pgdatadiff compares the contents of two PostgreSQL databases without
transferring either dataset: tables are compared chunk by chunk via
server-side content hashes in primary key order, and sequences by their
current values.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errMismatchesFound) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cmdutil.RegisterLoggerFlags(rootCmd)
	cmdutil.RegisterDBConnFlags(rootCmd)
	cmdutil.RegisterMetricsFlags(rootCmd)
}
