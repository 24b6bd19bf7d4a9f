// Package retry wraps an operation with bounded exponential-backoff retry.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

type Settings struct {
	InitialBackoff time.Duration
	Multiplier     int
	MaxBackoff     time.Duration
	// MaxRetries bounds the number of retries after the initial attempt.
	// Zero means retry forever.
	MaxRetries int
}

func (s Settings) Verify() error {
	if s.InitialBackoff <= 0 {
		return errors.Newf("initial backoff must be set to >= 0, got %s", s.InitialBackoff)
	}
	if s.Multiplier < 1 {
		return errors.Newf("multiplier must be >= 1, got %d", s.Multiplier)
	}
	if s.MaxBackoff > 0 && s.InitialBackoff > s.MaxBackoff {
		return errors.Newf("initial backoff (%s) must be less than max backoff (%s)", s.InitialBackoff, s.MaxBackoff)
	}
	return nil
}

// Backoff returns the delay before retry number attempt (zero-based).
func (s Settings) Backoff(attempt int) time.Duration {
	d := s.InitialBackoff * time.Duration(math.Pow(float64(s.Multiplier), float64(attempt)))
	if s.MaxBackoff > 0 && d > s.MaxBackoff {
		d = s.MaxBackoff
	}
	return d
}

func DefaultSettings() Settings {
	return Settings{
		InitialBackoff: time.Second,
		Multiplier:     2,
		MaxRetries:     3,
	}
}

// Classifier decides whether an error is transient and worth retrying.
type Classifier func(error) bool

// Do executes fn, retrying with exponential backoff whenever classify
// reports the failure as transient. Any other error, or exhaustion of the
// retry budget, propagates to the caller unchanged. Each call is
// independent; Do holds no state between calls.
func Do[T any](
	ctx context.Context,
	settings Settings,
	logger zerolog.Logger,
	classify Classifier,
	fn func(context.Context) (T, error),
) (T, error) {
	if err := settings.Verify(); err != nil {
		var zero T
		return zero, err
	}
	for attempt := 0; ; attempt++ {
		ret, err := fn(ctx)
		if err == nil || classify == nil || !classify(err) {
			return ret, err
		}
		if settings.MaxRetries > 0 && attempt >= settings.MaxRetries {
			return ret, err
		}
		delay := settings.Backoff(attempt)
		logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msgf("transient error running query; retrying in %s", delay)
		select {
		case <-ctx.Done():
			return ret, errors.CombineErrors(ctx.Err(), err)
		case <-time.After(delay):
		}
	}
}
