package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/pgdatadiff/pgdatadiff/dbconn"
	"golang.org/x/sync/errgroup"
)

// The chunk hash query relies on an order-preserving "value of the last row"
// aggregate, which stock Postgres does not ship.
const createLastAggFunction = `
CREATE OR REPLACE FUNCTION public.last_agg ( anyelement, anyelement )
RETURNS anyelement LANGUAGE sql IMMUTABLE STRICT AS $$
        SELECT $2;
$$;
`

// CREATE AGGREGATE has no IF NOT EXISTS form, so swallow the
// duplicate_function error to stay idempotent across reruns.
const createLastAggregate = `
DO $do$
BEGIN
        CREATE AGGREGATE public.last (
                sfunc    = public.last_agg,
                basetype = anyelement,
                stype    = anyelement
        );
EXCEPTION WHEN duplicate_function THEN
        NULL;
END
$do$;
`

// EnsureLastAggregate installs the last() aggregate on both databases.
// Safe to rerun; each statement commits immediately.
func EnsureLastAggregate(ctx context.Context, conns dbconn.OrderedConns) error {
	g, gCtx := errgroup.WithContext(ctx)
	for i := range conns {
		conn := conns[i]
		g.Go(func() error {
			pgConn, ok := conn.(*dbconn.PGConn)
			if !ok {
				return errors.Newf("connection %T not supported", conn)
			}
			for _, stmt := range []string{createLastAggFunction, createLastAggregate} {
				if _, err := pgConn.Exec(gCtx, stmt); err != nil {
					return errors.Wrapf(err, "error installing last() aggregate on %s", conn.ID())
				}
			}
			return nil
		})
	}
	return g.Wait()
}
