// Package seqdiff compares the current value of a sequence on both sides.
package seqdiff

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/pgdatadiff/pgdatadiff/catalog"
	"github.com/pgdatadiff/pgdatadiff/dbconn"
	"github.com/pgdatadiff/pgdatadiff/dbtable"
	"github.com/pgdatadiff/pgdatadiff/diff/verdict"
	"github.com/pgdatadiff/pgdatadiff/retry"
	"github.com/rs/zerolog"
)

// DiffSequence fetches the sequence's current value from both sides and
// compares them. A sequence missing from the target is a mismatch, not a
// fatal error; both sessions are rolled back before the verdict returns.
func DiffSequence(
	ctx context.Context,
	conns dbconn.OrderedConns,
	logger zerolog.Logger,
	seq dbtable.Sequence,
	settings retry.Settings,
) (verdict.Result, error) {
	var vals [2]int64
	for i, conn := range conns {
		conn := conn
		val, err := retry.Do(ctx, settings, logger, dbconn.IsTransientError,
			func(ctx context.Context) (int64, error) {
				return catalog.SequenceValue(ctx, conn, seq)
			})
		if err != nil {
			if dbconn.IsCatalogError(err) {
				for _, c := range conns {
					_ = c.Rollback(ctx)
				}
				return verdict.Mismatchf("sequence doesn't exist in second database."), nil
			}
			return verdict.Result{}, errors.Wrapf(err, "error fetching value of sequence %s from %s", seq, conn.ID())
		}
		vals[i] = val
	}
	return compareValues(vals[0], vals[1]), nil
}

// compareValues implements the sequence ordering policy: the source trailing
// the target is a warning (expected during live migrations), the source
// being ahead is a hard failure.
func compareValues(first, second int64) verdict.Result {
	switch {
	case first < second:
		return verdict.Inconclusivef("first sequence is less than the second (%d vs %d).", first, second)
	case first > second:
		return verdict.Mismatchf("first sequence is greater than the second (%d vs %d).", first, second)
	default:
		return verdict.Matchf("sequences are identical - (%d).", first)
	}
}
