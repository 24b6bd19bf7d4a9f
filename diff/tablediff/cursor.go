package tablediff

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
)

// chunkCursor carries the pagination state for one table scan: the primary
// key values of the last row processed, or no offset before the first page.
type chunkCursor struct {
	cols      []tree.Name
	vals      []any
	hasOffset bool
}

func newChunkCursor(cols []tree.Name) *chunkCursor {
	return &chunkCursor{
		cols: cols,
		vals: make([]any, len(cols)),
	}
}

// args returns the query arguments for the next page: the offset toggle
// followed by one value per primary key column.
func (c *chunkCursor) args() []any {
	return append([]any{c.hasOffset}, c.vals...)
}

func (c *chunkCursor) advance(lastPK []any) {
	c.vals = lastPK
	c.hasOffset = true
}

func (c *chunkCursor) String() string {
	if !c.hasOffset {
		return "<no offset>"
	}
	var sb strings.Builder
	for i, col := range c.cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", col, c.vals[i])
	}
	return sb.String()
}
