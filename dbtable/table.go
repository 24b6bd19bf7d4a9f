package dbtable

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/lib/pq/oid"
)

type Name struct {
	Schema tree.Name
	Table  tree.Name
}

func (n Name) String() string {
	return fmt.Sprintf("%s.%s", n.Schema, n.Table)
}

// DBTable represents a basic table object with OID from the relevant database.
type DBTable struct {
	Name
	OID oid.Oid
}

func (tm DBTable) Compare(o DBTable) int {
	if c := strings.Compare(strings.ToLower(string(tm.Schema)), strings.ToLower(string(o.Schema))); c != 0 {
		return c
	}
	return strings.Compare(strings.ToLower(string(tm.Table)), strings.ToLower(string(o.Table)))
}

func (tm DBTable) Less(o DBTable) bool {
	return tm.Compare(o) < 0
}

// Sequence represents a sequence relation discovered from the catalog.
type Sequence struct {
	Schema tree.Name
	Name   tree.Name
}

func (s Sequence) String() string {
	return fmt.Sprintf("%s.%s", s.Schema, s.Name)
}

func (s Sequence) Compare(o Sequence) int {
	if c := strings.Compare(strings.ToLower(string(s.Schema)), strings.ToLower(string(o.Schema))); c != 0 {
		return c
	}
	return strings.Compare(strings.ToLower(string(s.Name)), strings.ToLower(string(o.Name)))
}

func (s Sequence) Less(o Sequence) bool {
	return s.Compare(o) < 0
}
