package pool

import (
	"context"
	"time"

	errs "github.com/ajitpratap0/stockpile/pkg/errors"
)

// Completion is the handle returned by Shutdown. It is signalled once
// every slot has been destroyed and the allocator goroutine has exited.
type Completion struct {
	done chan struct{}
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

func (c *Completion) signal() { close(c.done) }

// Await blocks until the shutdown has completed or the timeout passes,
// reporting which happened.
func (c *Completion) Await(timeout time.Duration) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-c.done:
		return true
	case <-timer.C:
		return false
	}
}

// AwaitContext blocks until the shutdown has completed or ctx is
// cancelled, in which case the context error is surfaced as an
// interrupted failure.
func (c *Completion) AwaitContext(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), errs.KindInterrupted, "shutdown wait cancelled")
	}
}

// Done exposes the completion as a channel for use in select statements.
func (c *Completion) Done() <-chan struct{} { return c.done }
