package tablediff

import (
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/datadriven"
	"github.com/pgdatadiff/pgdatadiff/dbtable"
	"github.com/stretchr/testify/require"
)

func TestBuildQueries(t *testing.T) {
	datadriven.Walk(t, "testdata/chunkquery", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			var table dbtable.Name
			chunkSize := DefaultChunkSize
			for _, arg := range d.CmdArgs {
				switch arg.Key {
				case "schema":
					table.Schema = tree.Name(arg.Vals[0])
				case "table":
					table.Table = tree.Name(arg.Vals[0])
				case "chunk_size":
					cs, err := strconv.Atoi(arg.Vals[0])
					require.NoError(t, err)
					chunkSize = cs
				}
			}
			switch d.Cmd {
			case "chunk":
				var pks []tree.Name
				for _, line := range strings.Fields(d.Input) {
					pks = append(pks, tree.Name(line))
				}
				require.NotEmpty(t, pks, "primary key columns must be defined")
				return buildChunkQuery(table, pks, chunkSize) + "\n"
			case "count":
				return buildCountQuery(table) + "\n"
			default:
				t.Fatalf("unknown command %q", d.Cmd)
				return ""
			}
		})
	})
}
