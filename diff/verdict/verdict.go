// Package verdict holds the tri-state outcome of a single comparison.
package verdict

import "fmt"

type Verdict int

const (
	// Match means the comparison ran and found both sides equal.
	Match Verdict = iota
	// Mismatch means the comparison ran and found a divergence.
	Mismatch
	// Inconclusive means the comparison could not claim either: an empty
	// table, a missing primary key, or a warning condition. It is not a
	// success and callers must not treat it as one.
	Inconclusive
)

func (v Verdict) String() string {
	switch v {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	case Inconclusive:
		return "inconclusive"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// Result pairs a verdict with its human-readable message. Exactly one
// verdict holds per comparison.
type Result struct {
	Verdict Verdict
	Message string
}

func Matchf(format string, args ...any) Result {
	return Result{Verdict: Match, Message: fmt.Sprintf(format, args...)}
}

func Mismatchf(format string, args ...any) Result {
	return Result{Verdict: Mismatch, Message: fmt.Sprintf(format, args...)}
}

func Inconclusivef(format string, args ...any) Result {
	return Result{Verdict: Inconclusive, Message: fmt.Sprintf(format, args...)}
}
