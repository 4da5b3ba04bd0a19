// Package keylock serializes work keyed by an identifier.
//
// A key is held by at most one goroutine at a time. Holding is recorded in
// the returned context, so nested Lock calls for the same key with that
// context do not block.
package keylock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

type heldKey struct {
	l   *Locker
	key uint64
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

type Locker struct {
	mu      sync.Mutex
	entries map[uint64]*entry
}

func New() *Locker {
	return &Locker{
		entries: make(map[uint64]*entry),
	}
}

// Lock blocks until key is free or ctx is done.
// The returned unlock func must be called exactly once.
func (l *Locker) Lock(ctx context.Context, key uint64) (context.Context, func(), error) {
	if held, _ := ctx.Value(heldKey{l: l, key: key}).(bool); held {
		return ctx, func() {}, nil
	}

	e := l.acquire(key)
	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.release(key)
		return ctx, nil, err
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			e.sem.Release(1)
			l.release(key)
		})
	}

	return context.WithValue(ctx, heldKey{l: l, key: key}, true), unlock, nil
}

func (l *Locker) acquire(key uint64) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		l.entries[key] = e
	}
	e.refs++

	return e
}

func (l *Locker) release(key uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return
	}

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Len returns the number of keys currently held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}
