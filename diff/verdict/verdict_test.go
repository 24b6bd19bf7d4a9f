package verdict

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerdictString(t *testing.T) {
	require.Equal(t, "match", Match.String())
	require.Equal(t, "mismatch", Mismatch.String())
	require.Equal(t, "inconclusive", Inconclusive.String())
}

func TestConstructors(t *testing.T) {
	require.Equal(t, Result{Verdict: Match, Message: "data is identical."}, Matchf("data is identical."))
	require.Equal(t, Result{Verdict: Mismatch, Message: "counts are different 1 != 2"}, Mismatchf("counts are different %d != %d", 1, 2))
	require.Equal(t, Result{Verdict: Inconclusive, Message: "tables are empty"}, Inconclusivef("tables are empty"))
}
