package tablediff

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/lexbase"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/pgdatadiff/pgdatadiff/dbtable"
)

// buildChunkQuery renders the paging query for one table. Each page yields
// the page's row count, an order-sensitive hash over the page's rows, and
// the primary key values of the page's last row. $1 toggles the cursor
// predicate off for the first page; $2 onwards carry the cursor values.
// Hashing happens over the already-sorted subselect, so the same data on
// both sides produces the same digest.
func buildChunkQuery(table dbtable.Name, pkCols []tree.Name, chunkSize int) string {
	var sb strings.Builder
	sb.WriteString("SELECT count(*), md5(array_agg(md5((t.*)::varchar))::varchar)")
	for _, pk := range pkCols {
		sb.WriteString(", public.last(t.")
		sb.WriteString(lexbase.EscapeSQLIdent(string(pk)))
		sb.WriteString(")")
	}
	sb.WriteString(" FROM (SELECT * FROM ")
	writeTableName(&sb, table)
	sb.WriteString(" WHERE NOT $1 OR (")
	for i, pk := range pkCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(lexbase.EscapeSQLIdent(string(pk)))
	}
	sb.WriteString(") > (")
	for i := range pkCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "$%d", i+2)
	}
	sb.WriteString(") ORDER BY ")
	for i, pk := range pkCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(lexbase.EscapeSQLIdent(string(pk)))
	}
	fmt.Fprintf(&sb, " LIMIT %d) t", chunkSize)
	return sb.String()
}

func buildCountQuery(table dbtable.Name) string {
	var sb strings.Builder
	sb.WriteString("SELECT count(*) FROM ")
	writeTableName(&sb, table)
	return sb.String()
}

func writeTableName(sb *strings.Builder, table dbtable.Name) {
	sb.WriteString(lexbase.EscapeSQLIdent(string(table.Schema)))
	sb.WriteString(".")
	sb.WriteString(lexbase.EscapeSQLIdent(string(table.Table)))
}
