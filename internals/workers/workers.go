// Package workers bounds how much blocking work (model calls, git, file I/O)
// runs at once, so one user's slow task never starves event handling for the
// others.
package workers

import (
	"context"

	"golang.org/x/sync/semaphore"
)

type Pool struct {
	sem *semaphore.Weighted
}

func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Do runs fn once a slot is free, blocking until then or until ctx is done.
// The ctx passed to fn is the caller's; acquiring a slot does not shorten it.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn(ctx)
}

// Go runs fn on a new goroutine once a slot is free. Errors are delivered on
// the returned channel, which receives exactly one value.
func (p *Pool) Go(ctx context.Context, fn func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, fn)
	}()
	return done
}
