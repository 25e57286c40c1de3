package concurrent

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is a long-running unit of work that stops when its context is done.
type Task func(ctx context.Context) error

// Run starts every task in its own goroutine and waits for all of them. The
// first failing task cancels the others; its error is returned. Tasks ending
// because the context was cancelled are not an error.
func Run(ctx context.Context, tasks ...Task) error {
	group, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		group.Go(func() error {
			return task(gctx)
		})
	}

	err := group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Every calls fn once per interval until ctx is done or fn fails. fn receives
// the time elapsed since the previous call.
func Every(interval time.Duration, fn func(ctx context.Context, elapsed time.Duration) error) Task {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				elapsed := now.Sub(last)
				last = now
				if err := fn(ctx, elapsed); err != nil {
					return err
				}
			}
		}
	}
}
