package tablediff

import (
	"context"
	"testing"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/pgdatadiff/pgdatadiff/dbconn"
	"github.com/pgdatadiff/pgdatadiff/dbtable"
	"github.com/pgdatadiff/pgdatadiff/diff/verdict"
	"github.com/pgdatadiff/pgdatadiff/retry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestComparePage(t *testing.T) {
	cursor := newChunkCursor([]tree.Name{"id"})
	cursor.advance([]any{int64(100000)})

	for _, tc := range []struct {
		desc            string
		source, target  chunkResult
		position        int
		expectedDone    bool
		expectedVerdict verdict.Verdict
		expectedMessage string
	}{
		{
			desc:            "row count mismatch",
			source:          chunkResult{rows: 100000, hash: strPtr("aaaa"), lastPK: []any{int64(200000)}},
			target:          chunkResult{rows: 99999, hash: strPtr("bbbb"), lastPK: []any{int64(199999)}},
			position:        100000,
			expectedDone:    true,
			expectedVerdict: verdict.Mismatch,
			expectedMessage: "row count mismatch at row 100000 (100000 != 99999); cursor: id=100000",
		},
		{
			desc:            "empty first page",
			source:          chunkResult{rows: 0},
			target:          chunkResult{rows: 0},
			position:        0,
			expectedDone:    true,
			expectedVerdict: verdict.Inconclusive,
			expectedMessage: "tables are empty",
		},
		{
			desc:            "empty page after data means exhausted",
			source:          chunkResult{rows: 0},
			target:          chunkResult{rows: 0},
			position:        200000,
			expectedDone:    true,
			expectedVerdict: verdict.Match,
			expectedMessage: "data is identical.",
		},
		{
			desc:            "hash mismatch",
			source:          chunkResult{rows: 100000, hash: strPtr("aaaa"), lastPK: []any{int64(200000)}},
			target:          chunkResult{rows: 100000, hash: strPtr("bbbb"), lastPK: []any{int64(200000)}},
			position:        100000,
			expectedDone:    true,
			expectedVerdict: verdict.Mismatch,
			expectedMessage: "data hashes are different at row 100000 (aaaa != bbbb); cursor: id=100000",
		},
		{
			desc:            "pk mismatch despite equal hashes",
			source:          chunkResult{rows: 100000, hash: strPtr("aaaa"), lastPK: []any{int64(200000)}},
			target:          chunkResult{rows: 100000, hash: strPtr("aaaa"), lastPK: []any{int64(200001)}},
			position:        100000,
			expectedDone:    true,
			expectedVerdict: verdict.Mismatch,
			expectedMessage: "data pks are different at row 100000 (200000 != 200001); cursor: id=100000",
		},
		{
			desc:         "matching page keeps scanning",
			source:       chunkResult{rows: 100000, hash: strPtr("aaaa"), lastPK: []any{int64(200000)}},
			target:       chunkResult{rows: 100000, hash: strPtr("aaaa"), lastPK: []any{int64(200000)}},
			position:     100000,
			expectedDone: false,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			res, done := comparePage(tc.source, tc.target, tc.position, cursor)
			require.Equal(t, tc.expectedDone, done)
			if done {
				require.Equal(t, tc.expectedVerdict, res.Verdict)
				require.Equal(t, tc.expectedMessage, res.Message)
			}
		})
	}
}

func TestChunkCursor(t *testing.T) {
	cursor := newChunkCursor([]tree.Name{"region", "id"})
	require.Equal(t, []any{false, nil, nil}, cursor.args())
	require.Equal(t, "<no offset>", cursor.String())

	cursor.advance([]any{"eu", int64(100)})
	require.Equal(t, []any{true, "eu", int64(100)}, cursor.args())
	require.Equal(t, "region=eu, id=100", cursor.String())

	cursor.advance([]any{"us", int64(250)})
	require.Equal(t, []any{true, "us", int64(250)}, cursor.args())
	require.Equal(t, "region=us, id=250", cursor.String())
}

func TestDiffChunksPaging(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	conns := dbconn.OrderedConns{dbconn.MakeFakeConn("source"), dbconn.MakeFakeConn("target")}
	tbl := dbtable.Name{Schema: "public", Table: "orders"}
	pks := []tree.Name{"id"}

	page := func(rows int64, hash string, lastID int64) chunkResult {
		return chunkResult{rows: rows, hash: strPtr(hash), lastPK: []any{lastID}}
	}

	t.Run("scans until the empty page and advances the cursor", func(t *testing.T) {
		// 250 rows at chunk size 100 take three data pages plus the empty
		// terminating page. A second run must behave identically.
		for run := 0; run < 2; run++ {
			pages := []chunkResult{
				page(100, "h0", 100),
				page(100, "h1", 200),
				page(50, "h2", 250),
				{rows: 0},
			}
			served := map[dbconn.ID]int{}
			var seenArgs [][]any
			rounds := 0
			opts := Options{
				ChunkSize: 100,
				OnPage:    func() { rounds++ },
				fetch: func(_ context.Context, conn dbconn.Conn, _ string, args []any) (chunkResult, error) {
					if conn.ID() == "source" {
						seenArgs = append(seenArgs, args)
					}
					i := served[conn.ID()]
					served[conn.ID()]++
					return pages[i], nil
				},
			}.withDefaults()

			res, err := diffChunks(ctx, conns, logger, tbl, pks, opts)
			require.NoError(t, err)
			require.Equal(t, verdict.Match, res.Verdict)
			require.Equal(t, "data is identical.", res.Message)
			require.Equal(t, 4, rounds)
			require.Equal(t, [][]any{
				{false, nil},
				{true, int64(100)},
				{true, int64(200)},
				{true, int64(250)},
			}, seenArgs)
		}
	})

	t.Run("empty first page is inconclusive", func(t *testing.T) {
		rounds := 0
		opts := Options{
			ChunkSize: 100,
			OnPage:    func() { rounds++ },
			fetch: func(context.Context, dbconn.Conn, string, []any) (chunkResult, error) {
				return chunkResult{}, nil
			},
		}.withDefaults()

		res, err := diffChunks(ctx, conns, logger, tbl, pks, opts)
		require.NoError(t, err)
		require.Equal(t, verdict.Inconclusive, res.Verdict)
		require.Equal(t, "tables are empty", res.Message)
		require.Equal(t, 1, rounds)
	})

	t.Run("mismatch stops the scan", func(t *testing.T) {
		served := map[dbconn.ID]int{}
		rounds := 0
		opts := Options{
			ChunkSize: 100,
			OnPage:    func() { rounds++ },
			fetch: func(_ context.Context, conn dbconn.Conn, _ string, _ []any) (chunkResult, error) {
				i := served[conn.ID()]
				served[conn.ID()]++
				if conn.ID() == "target" && i == 1 {
					return page(100, "divergent", 200), nil
				}
				return []chunkResult{page(100, "h0", 100), page(100, "h1", 200)}[i], nil
			},
		}.withDefaults()

		res, err := diffChunks(ctx, conns, logger, tbl, pks, opts)
		require.NoError(t, err)
		require.Equal(t, verdict.Mismatch, res.Verdict)
		require.Equal(t, "data hashes are different at row 100 (h1 != divergent); cursor: id=100", res.Message)
		require.Equal(t, 2, rounds)
	})
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	require.Equal(t, DefaultChunkSize, opts.ChunkSize)
	require.Equal(t, retry.DefaultSettings(), opts.RetrySettings)
	require.NotNil(t, opts.fetch)

	opts = Options{ChunkSize: 500, RetrySettings: retry.Settings{InitialBackoff: 1, Multiplier: 1}}.withDefaults()
	require.Equal(t, 500, opts.ChunkSize)
	require.Equal(t, retry.Settings{InitialBackoff: 1, Multiplier: 1}, opts.RetrySettings)
}
