// Package query caches validated backend resources by key.
//
// Every resource is an entry in a Store. Subscribers attach to an entry with
// Use and share at most one in-flight fetch per key. Fresh data is served from
// memory. Stale data is served at once while a single background refresh runs.
// Fetched documents pass through the schema layer before they are stored, so
// a document that fails validation is never cached.
package query

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"DivDash/pkg/logger"
	"DivDash/pkg/schema"
)

var (
	ErrInvalidSpec    = errors.New("query: invalid spec")
	ErrStoreClosed    = errors.New("query: store closed")
	ErrObserverClosed = errors.New("query: observer closed")
)

// Fetcher loads the raw JSON document of a resource.
type Fetcher func(ctx context.Context) ([]byte, error)

// Spec declares a data need: which resource, how to fetch it, what shape it
// must have and what to show when the shape is wrong.
type Spec[T any] struct {
	Key      Key
	Fetch    Fetcher
	Schema   *schema.Schema
	Fallback *T
}

func (s Spec[T]) hash() (string, error) {
	if len(s.Key) == 0 || s.Fetch == nil || s.Schema == nil {
		return "", ErrInvalidSpec
	}
	h, err := s.Key.Hash()
	if err != nil {
		return "", errors.Join(ErrInvalidSpec, err)
	}
	return h, nil
}

type outcome struct {
	value      any
	violations []schema.Violation
}

type runFunc func(ctx context.Context) (outcome, error)

// call is one fetch started for an entry generation. superseded is closed
// when a newer fetch replaces it, done when it returns.
type call struct {
	gen        uint64
	manual     bool
	prevStatus Status
	done       chan struct{}
	superseded chan struct{}
}

type entry struct {
	key  Key
	hash string

	status     Status
	data       any
	hasData    bool
	violations []schema.Violation
	err        error
	updatedAt  time.Time

	subscribers   int
	inactiveSince time.Time
	invalidated   bool

	generation uint64
	inflight   *call
	run        runFunc
	listeners  map[uint64]func(*entry)
}

// Store holds every cache entry of the process. All entry mutations happen
// under one mutex, so readers never observe a partially updated entry.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextID  uint64
	closed  bool

	staleTime  time.Duration
	gcTime     time.Duration
	retry      int
	retryDelay time.Duration

	now       Clock
	log       *logger.Logger
	metrics   Metrics
	validator *schema.Validator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStore creates an empty store. Close it on shutdown.
func NewStore(opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		entries:    make(map[string]*entry),
		staleTime:  DefaultStaleTime,
		gcTime:     DefaultGCTime,
		retry:      DefaultRetry,
		retryDelay: DefaultRetryDelay,
		now:        time.Now,
		log:        logger.Nop(),
		metrics:    noopMetrics{},
		validator:  schema.NewValidator(),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close cancels in-flight fetches and waits for them to settle.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Invalidate marks every entry whose key starts with prefix as stale until a
// new result replaces its data. Entries with subscribers refetch immediately,
// superseding any older fetch in flight. The others refetch on their next
// subscription. It returns the number of entries matched.
func (s *Store) Invalidate(prefix Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}
	n := 0
	for _, e := range s.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		n++
		e.invalidated = true
		if e.subscribers > 0 {
			s.fetchLocked(e, false)
		}
	}
	if n > 0 {
		s.log.Debug("query invalidated", logger.String("prefix", prefix.String()), logger.Int("entries", n))
	}
	return n
}

// Collect evicts entries that have had no subscribers for the retention
// window and returns how many were removed.
func (s *Store) Collect() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for h, e := range s.entries {
		if e.subscribers > 0 || e.inflight != nil || e.inactiveSince.IsZero() {
			continue
		}
		if now.Sub(e.inactiveSince) >= s.gcTime {
			delete(s.entries, h)
			n++
		}
	}
	if n > 0 {
		s.metrics.SetEntries(len(s.entries))
		s.log.Debug("query entries collected", logger.Int("evicted", n), logger.Int("remaining", len(s.entries)))
	}
	return n
}

// EntryInfo is a read-only view of one entry.
type EntryInfo struct {
	Key         Key        `json:"key"`
	Status      Status     `json:"status"`
	Subscribers int        `json:"subscribers"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	Stale       bool       `json:"stale"`
	Fetching    bool       `json:"fetching"`
	Fallback    bool       `json:"fallback"`
	Error       string     `json:"error,omitempty"`
}

// Entries lists every entry ordered by key.
func (s *Store) Entries() []EntryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]EntryInfo, 0, len(s.entries))
	for _, e := range s.entries {
		info := EntryInfo{
			Key:         e.key,
			Status:      e.status,
			Subscribers: e.subscribers,
			Stale:       e.hasData && s.isStaleLocked(e, now),
			Fetching:    e.inflight != nil,
			Fallback:    len(e.violations) > 0,
		}
		if e.hasData {
			t := e.updatedAt
			info.UpdatedAt = &t
		}
		if e.err != nil {
			info.Error = e.err.Error()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) isStaleLocked(e *entry, now time.Time) bool {
	if !e.hasData || e.invalidated {
		return true
	}
	return !now.Before(e.updatedAt.Add(s.staleTime))
}

// shouldFetchLocked decides whether a new subscription triggers a fetch.
// Failed entries wait for a manual refetch, an invalidation or a key change.
func (s *Store) shouldFetchLocked(e *entry) bool {
	if e.inflight != nil {
		return false
	}
	switch e.status {
	case StatusIdle:
		return true
	case StatusFailed:
		return e.invalidated
	}
	return s.isStaleLocked(e, s.now())
}

func (s *Store) attachLocked(id uint64, hash string, key Key, run runFunc, listener func(*entry), keyChanged bool) *entry {
	e, ok := s.entries[hash]
	if !ok {
		e = &entry{
			key:       key,
			hash:      hash,
			status:    StatusIdle,
			listeners: make(map[uint64]func(*entry)),
		}
		s.entries[hash] = e
		s.metrics.SetEntries(len(s.entries))
	}

	switch {
	case !e.hasData:
		s.metrics.RecordLookup(key.Resource(), "miss")
	case s.isStaleLocked(e, s.now()):
		s.metrics.RecordLookup(key.Resource(), "stale")
	default:
		s.metrics.RecordLookup(key.Resource(), "hit")
	}

	e.run = run
	e.subscribers++
	e.inactiveSince = time.Time{}
	e.listeners[id] = listener

	if s.shouldFetchLocked(e) || (keyChanged && e.inflight == nil && e.status == StatusFailed) {
		s.fetchLocked(e, false)
	}
	return e
}

func (s *Store) detachLocked(e *entry, id uint64) {
	if _, ok := e.listeners[id]; !ok {
		return
	}
	delete(e.listeners, id)
	e.subscribers--
	if e.subscribers == 0 {
		e.inactiveSince = s.now()
	}
}

// fetchLocked starts a fetch for e. A newer fetch supersedes any older one
// still in flight: only the result of the current generation is applied.
func (s *Store) fetchLocked(e *entry, manual bool) *call {
	e.generation++
	c := &call{
		gen:        e.generation,
		manual:     manual,
		prevStatus: e.status,
		done:       make(chan struct{}),
		superseded: make(chan struct{}),
	}
	if e.inflight != nil {
		// Restore to the state seen before the overlapping fetches began.
		c.prevStatus = e.inflight.prevStatus
		close(e.inflight.superseded)
	}
	e.inflight = c
	e.status = StatusPending

	s.wg.Add(1)
	go s.execute(e, c, e.run)

	s.notifyLocked(e)
	return c
}

func (s *Store) execute(e *entry, c *call, run runFunc) {
	defer s.wg.Done()

	start := time.Now()
	attempts := 1
	if !c.manual {
		attempts += s.retry
	}

	var (
		out outcome
		err error
	)
	for i := 0; i < attempts; i++ {
		if i > 0 {
			s.log.Debug("query retry",
				logger.String("key", e.key.String()),
				logger.Int("attempt", i+1),
				logger.Error(err),
			)
			if !sleep(s.ctx, s.retryDelay) {
				break
			}
		}
		out, err = run(s.ctx)
		if err == nil || schema.IsValidationError(err) || s.ctx.Err() != nil {
			break
		}
	}
	elapsed := time.Since(start).Seconds()

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(c.done)

	resource := e.key.Resource()
	if e.inflight == c {
		e.inflight = nil
	}
	if c.gen != e.generation {
		s.metrics.RecordFetch(resource, "superseded", elapsed)
		s.log.Debug("query result superseded", logger.String("key", e.key.String()))
		return
	}
	if e.subscribers == 0 {
		e.status = c.prevStatus
		s.metrics.RecordFetch(resource, "discarded", elapsed)
		s.log.Debug("query result discarded, no subscribers", logger.String("key", e.key.String()))
		return
	}

	switch {
	case err != nil:
		e.status = StatusFailed
		e.err = err
		label := "error"
		if schema.IsValidationError(err) {
			label = "invalid"
		}
		s.metrics.RecordFetch(resource, label, elapsed)
		s.log.Warn("query fetch failed",
			logger.String("key", e.key.String()),
			logger.Bool("manual", c.manual),
			logger.Error(err),
		)
	default:
		e.status = StatusResolved
		e.data = out.value
		e.hasData = true
		e.violations = out.violations
		e.err = nil
		e.invalidated = false
		e.updatedAt = s.now()
		label := "success"
		if len(out.violations) > 0 {
			label = "fallback"
		}
		s.metrics.RecordFetch(resource, label, elapsed)
	}
	s.notifyLocked(e)
}

func (s *Store) notifyLocked(e *entry) {
	for _, l := range e.listeners {
		l(e)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func pipeline[T any](v *schema.Validator, spec Spec[T]) runFunc {
	return func(ctx context.Context) (outcome, error) {
		raw, err := spec.Fetch(ctx)
		if err != nil {
			return outcome{}, err
		}
		val, violations, err := schema.Decode(v, spec.Schema, raw, spec.Fallback)
		if err != nil {
			return outcome{}, err
		}
		return outcome{value: val, violations: violations}, nil
	}
}
