package query

import (
	"time"

	"DivDash/pkg/logger"
	"DivDash/pkg/schema"
)

const (
	DefaultStaleTime  = 5 * time.Minute
	DefaultGCTime     = 10 * time.Minute
	DefaultRetry      = 1
	DefaultRetryDelay = time.Second
)

// Clock returns the current time. Tests inject a manual clock.
type Clock func() time.Time

// Metrics receives cache and fetch outcomes.
type Metrics interface {
	RecordLookup(resource, outcome string)
	RecordFetch(resource, outcome string, seconds float64)
	SetEntries(n int)
}

type noopMetrics struct{}

func (noopMetrics) RecordLookup(string, string)         {}
func (noopMetrics) RecordFetch(string, string, float64) {}
func (noopMetrics) SetEntries(int)                      {}

// Option configures a Store.
type Option func(*Store)

// WithStaleTime sets the fresh window. Zero makes every entry stale at once.
func WithStaleTime(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.staleTime = d
		}
	}
}

// WithGCTime sets how long an entry without subscribers is retained.
func WithGCTime(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.gcTime = d
		}
	}
}

// WithRetry sets the number of automatic retries after a failed fetch.
func WithRetry(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.retry = n
		}
	}
}

// WithRetryDelay sets the pause before an automatic retry.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.retryDelay = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.now = c
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithValidator sets the validator every fetched document passes through.
func WithValidator(v *schema.Validator) Option {
	return func(s *Store) {
		if v != nil {
			s.validator = v
		}
	}
}
