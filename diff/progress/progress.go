// Package progress renders per-entity start/finish events for a diff run.
package progress

import (
	"github.com/pgdatadiff/pgdatadiff/diff/verdict"
	"github.com/rs/zerolog"
)

type Reporter interface {
	// Start announces that an entity comparison is beginning.
	Start(label string)
	// Complete reports the verdict for the entity most recently started.
	Complete(res verdict.Result)
	Close()
}

type CombinedReporter struct {
	Reporters []Reporter
}

func (c CombinedReporter) Start(label string) {
	for _, r := range c.Reporters {
		r.Start(label)
	}
}

func (c CombinedReporter) Complete(res verdict.Result) {
	for _, r := range c.Reporters {
		r.Complete(res)
	}
}

func (c CombinedReporter) Close() {
	for _, r := range c.Reporters {
		r.Close()
	}
}

// LogReporter reports to `zerolog`. Suited to non-interactive output.
type LogReporter struct {
	zerolog.Logger
}

func (l LogReporter) Start(label string) {
	l.Info().Msg(label)
}

func (l LogReporter) Complete(res verdict.Result) {
	switch res.Verdict {
	case verdict.Match:
		l.Info().Str("verdict", res.Verdict.String()).Msg(res.Message)
	case verdict.Mismatch:
		l.Error().Str("verdict", res.Verdict.String()).Msg(res.Message)
	default:
		l.Warn().Str("verdict", res.Verdict.String()).Msg(res.Message)
	}
}

func (l LogReporter) Close() {
}
