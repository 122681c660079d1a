// Package outcome fetches spin outcomes from the backend.
//
// The spin controller only sees the Channel interface: one request per spin,
// answered at most once through a channel it polls on its own tick. Retries,
// if any, happen behind that interface.
package outcome

import (
	"context"

	"github.com/MJE43/reelspin/internal/reel"
)

// Result is the single answer to an outcome request.
type Result struct {
	Outcome reel.Outcome
	Err     error
}

// Channel hands out outcome requests. The returned channel delivers at most
// one Result; it may never deliver if the backend hangs, in which case the
// caller's context is the only way to stop the request.
type Channel interface {
	RequestOutcome(ctx context.Context) <-chan Result
}

// FetchFunc is a blocking outcome fetch.
type FetchFunc func(ctx context.Context) (reel.Outcome, error)

// RequestOutcome runs f in its own goroutine.
func (f FetchFunc) RequestOutcome(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		o, err := f(ctx)
		ch <- Result{Outcome: o, Err: err}
	}()
	return ch
}

// Resolved returns a channel that already holds r.
func Resolved(r Result) <-chan Result {
	ch := make(chan Result, 1)
	ch <- r
	return ch
}
