package query

import (
	"context"
	"errors"
	"time"

	"DivDash/pkg/schema"
)

// Status is the lifecycle state of an entry.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
)

// Result is what a subscriber sees of an entry at one point in time.
// Data stays populated while a refresh is pending or after a refresh failed.
type Result[T any] struct {
	Key        Key
	Status     Status
	Data       T
	HasData    bool
	Err        error
	Violations []schema.Violation
	UpdatedAt  time.Time
	Stale      bool
	Fetching   bool
}

// Fallback reports whether Data is the declared fallback rather than the
// fetched document.
func (r Result[T]) Fallback() bool { return len(r.Violations) > 0 }

// Observer is one subscription to an entry. It must be closed.
type Observer[T any] struct {
	store   *Store
	id      uint64
	e       *entry
	closed  bool
	updates chan Result[T]
}

// Use subscribes to the entry for spec.Key, creating it on first use.
// A fetch starts when the entry has never been fetched, is stale, or was
// invalidated while unsubscribed. A fresh or failed entry is served as is.
func Use[T any](s *Store, spec Spec[T]) (*Observer[T], error) {
	hash, err := spec.hash()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if err := checkType[T](s, hash); err != nil {
		return nil, err
	}

	s.nextID++
	o := &Observer[T]{
		store:   s,
		id:      s.nextID,
		updates: make(chan Result[T], 1),
	}
	o.e = s.attachLocked(o.id, hash, spec.Key, pipeline(s.validator, spec), o.deliver, false)
	return o, nil
}

// Get resolves spec once. Fresh data returns immediately. Stale data also
// returns immediately, and the subscription is held until the background
// refresh settles so its result is kept. Without data it waits for the fetch.
func Get[T any](ctx context.Context, s *Store, spec Spec[T]) (Result[T], error) {
	o, err := Use(s, spec)
	if err != nil {
		return Result[T]{}, err
	}

	r := o.Result()
	if r.HasData {
		if r.Fetching {
			go func() {
				_, _ = o.Wait(s.ctx)
				o.Close()
			}()
		} else {
			o.Close()
		}
		if r.Status == StatusFailed {
			return r, r.Err
		}
		return r, nil
	}

	defer o.Close()
	return o.Wait(ctx)
}

// Result returns the current state of the entry.
func (o *Observer[T]) Result() Result[T] {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	return snapshot[T](o.store, o.e)
}

// Updates delivers every state change. Only the latest undelivered state is
// kept, so a slow reader skips intermediate states. The channel is closed by
// Close.
func (o *Observer[T]) Updates() <-chan Result[T] {
	return o.updates
}

// Wait blocks until no fetch is in flight for the entry and returns its state.
// A failed entry returns its error. A superseded fetch is not waited for.
func (o *Observer[T]) Wait(ctx context.Context) (Result[T], error) {
	for {
		o.store.mu.Lock()
		if o.closed {
			o.store.mu.Unlock()
			return Result[T]{}, ErrObserverClosed
		}
		c := o.e.inflight
		if c == nil {
			r := snapshot[T](o.store, o.e)
			o.store.mu.Unlock()
			if r.Status == StatusFailed {
				return r, r.Err
			}
			return r, nil
		}
		o.store.mu.Unlock()

		// Follow a newer fetch if one replaces c.
		select {
		case <-c.done:
		case <-c.superseded:
		case <-ctx.Done():
			return Result[T]{}, ctx.Err()
		}
	}
}

// Refetch starts a fetch regardless of freshness or earlier failures and
// waits for it. It supersedes a fetch already in flight and is not retried
// automatically.
func (o *Observer[T]) Refetch(ctx context.Context) (Result[T], error) {
	o.store.mu.Lock()
	if o.closed {
		o.store.mu.Unlock()
		return Result[T]{}, ErrObserverClosed
	}
	if o.store.closed {
		o.store.mu.Unlock()
		return Result[T]{}, ErrStoreClosed
	}
	o.store.fetchLocked(o.e, true)
	o.store.mu.Unlock()

	return o.Wait(ctx)
}

// Switch moves the subscription to another key of the same resource type,
// e.g. when a period parameter changes. Results of fetches still in flight for
// the previous key are no longer delivered to this observer. A failed entry
// under the new key is refetched.
func (o *Observer[T]) Switch(spec Spec[T]) error {
	hash, err := spec.hash()
	if err != nil {
		return err
	}

	s := o.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.closed {
		return ErrObserverClosed
	}
	if s.closed {
		return ErrStoreClosed
	}
	if hash == o.e.hash {
		o.e.run = pipeline(s.validator, spec)
		return nil
	}
	if err := checkType[T](s, hash); err != nil {
		return err
	}

	s.detachLocked(o.e, o.id)
	o.e = s.attachLocked(o.id, hash, spec.Key, pipeline(s.validator, spec), o.deliver, true)
	o.deliver(o.e)
	return nil
}

// Close ends the subscription. A fetch in flight keeps running for other
// subscribers; its result is dropped if none remain. Close is idempotent.
func (o *Observer[T]) Close() {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	o.store.detachLocked(o.e, o.id)
	close(o.updates)
}

// deliver runs under the store mutex, which makes it the only sender.
func (o *Observer[T]) deliver(e *entry) {
	r := snapshot[T](o.store, e)
	select {
	case <-o.updates:
	default:
	}
	o.updates <- r
}

func snapshot[T any](s *Store, e *entry) Result[T] {
	r := Result[T]{
		Key:        e.key,
		Status:     e.status,
		HasData:    e.hasData,
		Err:        e.err,
		Violations: e.violations,
		UpdatedAt:  e.updatedAt,
		Fetching:   e.inflight != nil,
	}
	if e.hasData {
		r.Data, _ = e.data.(T)
		r.Stale = s.isStaleLocked(e, s.now())
	}
	return r
}

// checkType rejects a subscription whose type differs from the data already
// cached under the same key.
func checkType[T any](s *Store, hash string) error {
	e, ok := s.entries[hash]
	if !ok || !e.hasData {
		return nil
	}
	if _, ok := e.data.(T); !ok {
		return errors.Join(ErrInvalidSpec, errors.New("key already holds a different resource type"))
	}
	return nil
}
