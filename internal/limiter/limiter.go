// Package limiter bounds how many expensive jobs run at once, per key.
package limiter

import (
	"context"
	"strings"
	"sync"
)

// Limiter hands out in-process slots. Each key gets its own pool of
// maxInflight slots.
type Limiter struct {
	maxInflight int
	mu          sync.Mutex
	sem         map[string]chan struct{}
}

// Options configures a Limiter.
type Options struct {
	MaxInflight int
}

func New(opts Options) *Limiter {
	if opts.MaxInflight <= 0 {
		opts.MaxInflight = 2
	}
	return &Limiter{maxInflight: opts.MaxInflight, sem: map[string]chan struct{}{}}
}

func (l *Limiter) slots(key string) chan struct{} {
	key = strings.ToLower(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.sem[key]
	if !ok {
		ch = make(chan struct{}, l.maxInflight)
		l.sem[key] = ch
	}
	return ch
}

// Allow tries to reserve a slot without waiting.
// Returns a release function and true if allowed; otherwise a no-op and false.
func (l *Limiter) Allow(key string) (func(), bool) {
	ch := l.slots(key)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, true
	default:
		return func() {}, false
	}
}

// Acquire waits for a slot until ctx is done.
func (l *Limiter) Acquire(ctx context.Context, key string) (func(), error) {
	ch := l.slots(key)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InFlight returns how many slots of key are taken.
func (l *Limiter) InFlight(key string) int { return len(l.slots(key)) }
