package spin

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/MJE43/reelspin/internal/outcome"
	"github.com/MJE43/reelspin/internal/reel"
)

// Controller is the spin state machine. It owns the grid's offsets and
// contents for the duration of a cycle.
type Controller struct {
	cfg       Config
	grid      *reel.Grid
	channel   outcome.Channel
	presenter Presenter
	log       *zap.Logger

	state  State
	closed bool
	input  bool
	seq    int

	elapsed time.Duration
	pending <-chan outcome.Result
	cancel  context.CancelFunc

	// dataReady and minimum elapsed time are independent gates; both must
	// hold before the alignment check starts.
	dataReady bool
	next      reel.Outcome
	shown     reel.Outcome
	fallback  bool
	lastErr   error

	timers    map[int]*settleTimer
	completed int
}

// NewController creates an idle controller with spin input enabled.
// presenter and logger may be nil.
func NewController(cfg Config, grid *reel.Grid, ch outcome.Channel, presenter Presenter, logger *zap.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if grid == nil {
		return nil, errors.New("spin: controller needs a grid")
	}
	if ch == nil {
		return nil, errors.New("spin: controller needs a result channel")
	}
	if presenter == nil {
		presenter = PresenterFunc(func(bool) {})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		cfg:       cfg,
		grid:      grid,
		channel:   ch,
		presenter: presenter,
		log:       logger.Named("spin"),
		state:     StateIdle,
		input:     true,
	}, nil
}

// Spin starts a cycle: input is locked before it returns, the outcome request
// is dispatched and the strips start scrolling on the next tick. While a cycle
// is running it returns ErrSpinLocked and changes nothing.
func (c *Controller) Spin(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.state != StateIdle {
		c.log.Debug("spin ignored", zap.String("state", string(c.state)))
		return ErrSpinLocked
	}

	c.seq++
	c.state = StateAwaitingResult
	c.setInput(false)

	c.elapsed = 0
	c.dataReady = false
	c.next = nil
	c.fallback = false
	c.lastErr = nil

	if err := c.grid.Rebuild(c.shown, nil); err != nil {
		c.log.Warn("rebuild failed", zap.Int("spin", c.seq), zap.Error(err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	c.cancel = cancel
	c.pending = c.channel.RequestOutcome(reqCtx)

	c.log.Info("spin started", zap.Int("spin", c.seq))
	return nil
}

// Tick advances the machine by dt of frame time.
func (c *Controller) Tick(dt time.Duration) {
	if c.closed || dt <= 0 {
		return
	}
	switch c.state {
	case StateAwaitingResult, StateContinuousScroll:
		c.elapsed += dt
		c.poll()
		c.scroll(dt)
		if c.state == StateAwaitingResult && c.dataReady && c.elapsed >= c.cfg.MinSpin {
			c.transition(StateContinuousScroll)
		}
		if c.state == StateContinuousScroll && c.grid.AllAligned() {
			c.beginSettle()
		}
	case StateSettling:
		c.advanceSettle(dt)
	}
}

// Close tears the machine down: the in-flight request is cancelled, settle
// timers stop advancing and input stays locked. State and offsets are left
// where they were.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.stopRequest()
	c.setInput(false)
	c.log.Info("controller closed", zap.Int("spins", c.seq))
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool { return c.closed }

// InputEnabled reports whether the spin control is interactive.
func (c *Controller) InputEnabled() bool { return c.input }

// LastError returns the failure of the most recent cycle, if it settled on a
// fallback outcome.
func (c *Controller) LastError() error { return c.lastErr }

// Grid returns the grid the controller drives.
func (c *Controller) Grid() *reel.Grid { return c.grid }

// Shown returns the outcome currently at rest, or nil before the first spin.
func (c *Controller) Shown() reel.Outcome { return c.shown.Clone() }

func (c *Controller) transition(to State) {
	c.log.Debug("state change",
		zap.Int("spin", c.seq),
		zap.String("from", string(c.state)),
		zap.String("to", string(to)),
		zap.Duration("elapsed", c.elapsed),
	)
	c.state = to
}

func (c *Controller) setInput(enabled bool) {
	if c.input == enabled {
		return
	}
	c.input = enabled
	c.presenter.SetSpinEnabled(enabled)
}

// poll consumes the outcome result if it has arrived, or gives up on it once
// the request timeout has passed.
func (c *Controller) poll() {
	if c.pending == nil {
		return
	}
	select {
	case res, ok := <-c.pending:
		c.stopRequest()
		if !ok {
			c.fail(ErrNoResult)
			return
		}
		c.accept(res)
	default:
		if c.elapsed >= c.cfg.RequestTimeout {
			c.stopRequest()
			c.fail(ErrTimeout)
		}
	}
}

func (c *Controller) stopRequest() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.pending = nil
}

func (c *Controller) accept(res outcome.Result) {
	if res.Err != nil {
		c.fail(res.Err)
		return
	}
	if err := res.Outcome.Validate(c.grid.Reels(), c.grid.Alphabet()); err != nil {
		c.fail(err)
		return
	}
	c.next = res.Outcome.Clone()
	c.dataReady = true
	c.log.Debug("outcome ready", zap.Int("spin", c.seq), zap.Duration("elapsed", c.elapsed))
}

// fail settles the cycle on the previous outcome, or on the filler already in
// the settle window when there is none.
func (c *Controller) fail(err error) {
	c.lastErr = err
	c.fallback = true
	c.dataReady = true
	if c.shown != nil {
		c.next = c.shown.Clone()
	} else {
		c.next = c.grid.SettleWindows()
	}
	c.log.Warn("outcome unavailable, settling on fallback", zap.Int("spin", c.seq), zap.Error(err))
}

func (c *Controller) scroll(dt time.Duration) {
	for i, s := range c.grid.Strips() {
		moving := min(dt, c.elapsed-time.Duration(i)*c.cfg.ScrollStagger)
		if moving <= 0 {
			continue
		}
		speed := s.Period() / c.cfg.ScrollCycle.Seconds()
		s.Advance(speed * moving.Seconds())
	}
}

func (c *Controller) beginSettle() {
	if err := c.grid.SpliceOutcome(c.next); err != nil {
		// next was validated on arrival, so the strips keep what they hold
		c.log.Error("splice failed", zap.Int("spin", c.seq), zap.Error(err))
		c.next = c.grid.SettleWindows()
	}
	c.timers = make(map[int]*settleTimer, c.grid.Reels())
	for i, s := range c.grid.Strips() {
		linear := c.cfg.SettleLinear + time.Duration(i)*c.cfg.SettlePerReel
		c.timers[i] = newSettleTimer(s, time.Duration(i)*c.cfg.SettleStagger, linear, c.cfg.SettleBounce)
	}
	c.completed = 0
	c.transition(StateSettling)
}

func (c *Controller) advanceSettle(dt time.Duration) {
	for i, s := range c.grid.Strips() {
		if t := c.timers[i]; t != nil && t.advance(dt, s) {
			c.completed++
		}
	}
	if c.completed == len(c.timers) {
		c.finish()
	}
}

func (c *Controller) finish() {
	c.shown = c.next
	c.next = nil
	c.timers = nil
	c.transition(StateIdle)
	c.setInput(true)
	c.log.Info("spin settled",
		zap.Int("spin", c.seq),
		zap.Bool("fallback", c.fallback),
		zap.Duration("elapsed", c.elapsed),
	)
}
