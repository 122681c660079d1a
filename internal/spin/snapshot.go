package spin

import (
	"time"

	"github.com/MJE43/reelspin/internal/reel"
)

// Snapshot is a read-only view of the controller for rendering and
// inspection.
type Snapshot struct {
	State        State         `json:"state"`
	Spin         int           `json:"spin"`
	InputEnabled bool          `json:"input_enabled"`
	Closed       bool          `json:"closed"`
	Elapsed      time.Duration `json:"elapsed"`
	DataReady    bool          `json:"data_ready"`
	Fallback     bool          `json:"fallback"`
	Err          string        `json:"error,omitempty"`
	Reels        []ReelView    `json:"reels"`
	Shown        reel.Outcome  `json:"shown,omitempty"`
}

// ReelView is one strip's position and the symbols inside the visible band.
type ReelView struct {
	Offset  float64              `json:"offset"`
	Settled bool                 `json:"settled"`
	Visible []reel.VisibleSymbol `json:"visible"`
}

// Snapshot captures the controller's current state.
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		State:        c.state,
		Spin:         c.seq,
		InputEnabled: c.input,
		Closed:       c.closed,
		Elapsed:      c.elapsed,
		DataReady:    c.dataReady,
		Fallback:     c.fallback,
		Shown:        c.shown.Clone(),
		Reels:        make([]ReelView, c.grid.Reels()),
	}
	if c.lastErr != nil {
		snap.Err = c.lastErr.Error()
	}
	for i, s := range c.grid.Strips() {
		v := ReelView{Offset: s.Offset(), Visible: s.Visible(reel.Rows)}
		switch c.state {
		case StateIdle:
			v.Settled = true
		case StateSettling:
			// timers are kept, not advanced, after Close
			if t := c.timers[i]; t != nil {
				v.Settled = t.done
			}
		}
		snap.Reels[i] = v
	}
	return snap
}
