package cmdutil

import (
	"context"

	"github.com/pgdatadiff/pgdatadiff/dbconn"
	"github.com/spf13/cobra"
)

type connConfig struct {
	source string
	target string
}

var connConfigInst connConfig

func RegisterDBConnFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&connConfigInst.source,
		"source",
		"",
		"URL of the source database (the source of truth)",
	)
	cmd.PersistentFlags().StringVar(
		&connConfigInst.target,
		"target",
		"",
		"URL of the target database",
	)

	for _, required := range []string{"source", "target"} {
		if err := cmd.MarkPersistentFlagRequired(required); err != nil {
			panic(err)
		}
	}
}

func LoadDBConns(ctx context.Context) (dbconn.OrderedConns, error) {
	source, err := dbconn.Connect(ctx, "source", connConfigInst.source)
	if err != nil {
		return dbconn.OrderedConns{}, err
	}
	target, err := dbconn.Connect(ctx, "target", connConfigInst.target)
	if err != nil {
		_ = source.Close(ctx)
		return dbconn.OrderedConns{}, err
	}
	return dbconn.OrderedConns{source, target}, nil
}
