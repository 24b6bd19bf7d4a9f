// Package catalog introspects the Postgres catalog for the relations a diff
// run operates on.
package catalog

import (
	"context"
	"sort"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/lexbase"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
	"github.com/lib/pq/oid"
	"github.com/pgdatadiff/pgdatadiff/dbconn"
	"github.com/pgdatadiff/pgdatadiff/dbtable"
)

// Tables returns all ordinary tables in the given schema, sorted by name.
func Tables(ctx context.Context, conn dbconn.Conn, schema string) ([]dbtable.DBTable, error) {
	pgConn, ok := conn.(*dbconn.PGConn)
	if !ok {
		return nil, errors.Newf("connection %T not supported", conn)
	}
	rows, err := pgConn.Query(
		ctx,
		`SELECT pg_class.oid, pg_class.relname, pg_namespace.nspname
FROM pg_class
JOIN pg_namespace ON (pg_class.relnamespace = pg_namespace.oid)
WHERE relkind = 'r' AND pg_namespace.nspname = $1`,
		schema,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tms []dbtable.DBTable
	for rows.Next() {
		var tm dbtable.DBTable
		if err := rows.Scan(&tm.OID, &tm.Table, &tm.Schema); err != nil {
			return nil, errors.Wrap(err, "error decoding table metadata")
		}
		tms = append(tms, tm)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error collecting table metadata")
	}
	sort.Slice(tms, func(i, j int) bool {
		return tms[i].Less(tms[j])
	})
	return tms, nil
}

// TableOID looks up a table by name, reporting whether it exists.
func TableOID(ctx context.Context, conn dbconn.Conn, name dbtable.Name) (oid.Oid, bool, error) {
	pgConn, ok := conn.(*dbconn.PGConn)
	if !ok {
		return 0, false, errors.Newf("connection %T not supported", conn)
	}
	rows, err := pgConn.Query(
		ctx,
		`SELECT pg_class.oid
FROM pg_class
JOIN pg_namespace ON (pg_class.relnamespace = pg_namespace.oid)
WHERE relkind = 'r' AND pg_namespace.nspname = $1 AND pg_class.relname = $2`,
		string(name.Schema),
		string(name.Table),
	)
	if err != nil {
		return 0, false, err
	}
	defer rows.Close()

	var ret oid.Oid
	found := false
	for rows.Next() {
		if err := rows.Scan(&ret); err != nil {
			return 0, false, errors.Wrap(err, "error decoding table oid")
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return 0, false, errors.Wrapf(err, "error looking up table %s", name)
	}
	return ret, found, nil
}

// PrimaryKeyColumns returns the table's primary key columns in index order.
// An empty return means the table has no primary key and cannot be
// paginated deterministically.
func PrimaryKeyColumns(
	ctx context.Context, conn dbconn.Conn, table dbtable.DBTable,
) ([]tree.Name, error) {
	pgConn, ok := conn.(*dbconn.PGConn)
	if !ok {
		return nil, errors.Newf("connection %T not supported", conn)
	}
	rows, err := pgConn.Query(
		ctx,
		`
select
    a.attname as column_name
from
    pg_class t
    join pg_attribute a on a.attrelid = t.oid
    join pg_index ix    on t.oid = ix.indrelid AND a.attnum = ANY(ix.indkey)
    join pg_class i     on i.oid = ix.indexrelid
where
    t.oid = $1 AND indisprimary
order by
    array_position(ix.indkey, a.attnum)
`,
		table.OID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ret []tree.Name
	for rows.Next() {
		var c tree.Name
		if err := rows.Scan(&c); err != nil {
			return nil, errors.Wrap(err, "error decoding column name")
		}
		ret = append(ret, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "error collecting primary key for %s", table)
	}
	return ret, nil
}

// Sequences returns all sequences in the given schema, sorted by name.
func Sequences(ctx context.Context, conn dbconn.Conn, schema string) ([]dbtable.Sequence, error) {
	pgConn, ok := conn.(*dbconn.PGConn)
	if !ok {
		return nil, errors.Newf("connection %T not supported", conn)
	}
	rows, err := pgConn.Query(
		ctx,
		`SELECT pg_class.relname, pg_namespace.nspname
FROM pg_class
JOIN pg_namespace ON (pg_class.relnamespace = pg_namespace.oid)
WHERE relkind = 'S' AND pg_namespace.nspname = $1`,
		schema,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seqs []dbtable.Sequence
	for rows.Next() {
		var s dbtable.Sequence
		if err := rows.Scan(&s.Name, &s.Schema); err != nil {
			return nil, errors.Wrap(err, "error decoding sequence metadata")
		}
		seqs = append(seqs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error collecting sequence metadata")
	}
	sort.Slice(seqs, func(i, j int) bool {
		return seqs[i].Less(seqs[j])
	})
	return seqs, nil
}

// SequenceValue fetches the sequence's current value.
func SequenceValue(ctx context.Context, conn dbconn.Conn, seq dbtable.Sequence) (int64, error) {
	pgConn, ok := conn.(*dbconn.PGConn)
	if !ok {
		return 0, errors.Newf("connection %T not supported", conn)
	}
	var val int64
	if err := pgConn.QueryRow(
		ctx,
		"SELECT last_value FROM "+lexbase.EscapeSQLIdent(string(seq.Schema))+"."+lexbase.EscapeSQLIdent(string(seq.Name)),
	).Scan(&val); err != nil {
		return 0, err
	}
	return val, nil
}
