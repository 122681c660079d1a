// Package spin runs the reel animation state machine: it gates the spin
// input, dispatches one outcome request per spin, keeps the strips scrolling
// until the outcome can be spliced in unseen, and settles them one by one.
//
// The controller is driven by a single frame clock through Tick and is not
// safe for concurrent use.
package spin

import "errors"

// State represents the spin cycle's lifecycle state.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingResult   State = "awaiting_result"
	StateContinuousScroll State = "continuous_scroll"
	StateSettling         State = "settling"
)

var (
	// ErrSpinLocked is returned by Spin while a cycle is in progress.
	ErrSpinLocked = errors.New("spin: input is locked")

	// ErrClosed is returned by Spin after Close.
	ErrClosed = errors.New("spin: controller closed")

	// ErrTimeout is recorded when no outcome arrived within the request timeout.
	ErrTimeout = errors.New("spin: outcome request timed out")

	// ErrNoResult is recorded when the result channel closed without an answer.
	ErrNoResult = errors.New("spin: result channel closed without a result")
)

// Presenter is told whenever the spin control should change interactivity.
type Presenter interface {
	SetSpinEnabled(enabled bool)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(enabled bool)

func (f PresenterFunc) SetSpinEnabled(enabled bool) { f(enabled) }
