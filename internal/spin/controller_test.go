package spin

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/MJE43/reelspin/internal/outcome"
	"github.com/MJE43/reelspin/internal/reel"
)

const frame = 10 * time.Millisecond

var firstOutcome = reel.Outcome{
	{"a", "k", "q"},
	{"wild", "wild", "wild"},
	{"bonus", "p-pink", "a"},
	{"p-forest", "q", "k"},
	{"p-blond", "p-brown", "bonus"},
}

var secondOutcome = reel.Outcome{
	{"k", "k", "k"},
	{"q", "a", "q"},
	{"p-pink", "p-pink", "wild"},
	{"a", "bonus", "a"},
	{"p-forest", "p-forest", "p-brown"},
}

// fakeChannel hands out one result channel per request. Tests decide when,
// and whether, each channel is answered.
type fakeChannel struct {
	chans []chan outcome.Result
	ctxs  []context.Context
}

func (f *fakeChannel) RequestOutcome(ctx context.Context) <-chan outcome.Result {
	ch := make(chan outcome.Result, 1)
	f.chans = append(f.chans, ch)
	f.ctxs = append(f.ctxs, ctx)
	return ch
}

func (f *fakeChannel) last() chan outcome.Result { return f.chans[len(f.chans)-1] }

type recordingPresenter struct {
	calls []bool
}

func (p *recordingPresenter) SetSpinEnabled(enabled bool) { p.calls = append(p.calls, enabled) }

// tb is the part of testing.TB that rapid.T also provides.
type tb interface {
	Helper()
	Fatalf(format string, args ...any)
}

type harness struct {
	ctrl      *Controller
	channel   *fakeChannel
	presenter *recordingPresenter
}

func newHarness(t tb, cfg Config, seed uint64) *harness {
	t.Helper()
	gen, err := reel.NewGenerator(reel.DefaultAlphabet, reel.DefaultBands(), rand.New(rand.NewPCG(seed, seed+1)))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	grid, err := reel.NewGrid(reel.DefaultConfig(), gen)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	h := &harness{channel: &fakeChannel{}, presenter: &recordingPresenter{}}
	h.ctrl, err = NewController(cfg, grid, h.channel, h.presenter, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return h
}

// runUntilIdle ticks until the cycle completes and returns the number of ticks.
func (h *harness) runUntilIdle(t tb) int {
	t.Helper()
	for i := 1; i <= 2000; i++ {
		h.ctrl.Tick(frame)
		if h.ctrl.State() == StateIdle {
			return i
		}
	}
	t.Fatalf("cycle did not complete, state %s", h.ctrl.State())
	return 0
}

func (h *harness) spin(t tb) {
	t.Helper()
	if err := h.ctrl.Spin(context.Background()); err != nil {
		t.Fatalf("Spin failed: %v", err)
	}
}

func assertAtRest(t *testing.T, g *reel.Grid, want reel.Outcome) {
	t.Helper()
	if diff := cmp.Diff(want, g.SettleWindows()); diff != "" {
		t.Errorf("settle windows mismatch (-want +got):\n%s", diff)
	}
	for i, s := range g.Strips() {
		if s.Offset() != s.RestOffset() {
			t.Errorf("strip %d: offset %v, want rest %v", i, s.Offset(), s.RestOffset())
		}
	}
}

func TestNewControllerValidation(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 1)
	grid := h.ctrl.Grid()

	bad := DefaultConfig()
	bad.ScrollCycle = 0
	if _, err := NewController(bad, grid, h.channel, nil, nil); err == nil {
		t.Error("expected error for zero scroll cycle")
	}
	if _, err := NewController(DefaultConfig(), nil, h.channel, nil, nil); err == nil {
		t.Error("expected error for nil grid")
	}
	if _, err := NewController(DefaultConfig(), grid, nil, nil, nil); err == nil {
		t.Error("expected error for nil channel")
	}
}

func TestSpinLocksInputImmediately(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 1)
	if !h.ctrl.InputEnabled() || h.ctrl.State() != StateIdle {
		t.Fatal("new controller should be idle with input enabled")
	}

	h.spin(t)

	if h.ctrl.State() != StateAwaitingResult {
		t.Errorf("expected %s, got %s", StateAwaitingResult, h.ctrl.State())
	}
	if h.ctrl.InputEnabled() {
		t.Error("input should be locked before Spin returns")
	}
	if diff := cmp.Diff([]bool{false}, h.presenter.calls); diff != "" {
		t.Errorf("presenter calls mismatch (-want +got):\n%s", diff)
	}
	if len(h.channel.chans) != 1 {
		t.Errorf("expected one outcome request, got %d", len(h.channel.chans))
	}
	for i, s := range h.ctrl.Grid().Strips() {
		if s.Offset() != 0 {
			t.Errorf("strip %d: expected offset 0 after spin, got %v", i, s.Offset())
		}
	}
}

func TestSpinWhileBusyIsIgnored(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 1)
	h.spin(t)
	h.channel.last() <- outcome.Result{Outcome: firstOutcome}

	for h.ctrl.State() != StateIdle {
		if err := h.ctrl.Spin(context.Background()); !errors.Is(err, ErrSpinLocked) {
			t.Fatalf("state %s: expected ErrSpinLocked, got %v", h.ctrl.State(), err)
		}
		h.ctrl.Tick(frame)
	}

	if len(h.channel.chans) != 1 {
		t.Errorf("expected one outcome request, got %d", len(h.channel.chans))
	}
	if h.ctrl.Snapshot().Spin != 1 {
		t.Errorf("expected spin counter 1, got %d", h.ctrl.Snapshot().Spin)
	}
}

// An outcome that arrives early is not spliced before the minimum spin time.
func TestEarlyOutcomeWaitsForMinimumSpin(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 2)
	h.spin(t)

	elapsed := time.Duration(0)
	for h.ctrl.State() == StateAwaitingResult {
		if elapsed == 500*time.Millisecond {
			h.channel.last() <- outcome.Result{Outcome: firstOutcome}
		}
		h.ctrl.Tick(frame)
		elapsed += frame
		if elapsed > 500*time.Millisecond && !h.ctrl.Snapshot().DataReady {
			t.Fatalf("outcome not picked up at %s", elapsed)
		}
		if elapsed > 10*time.Second {
			t.Fatal("controller never left awaiting_result")
		}
	}
	if elapsed < 3*time.Second {
		t.Fatalf("left awaiting_result after %s, before the minimum spin", elapsed)
	}

	h.runUntilIdle(t)
	assertAtRest(t, h.ctrl.Grid(), firstOutcome)
	if diff := cmp.Diff(firstOutcome, h.ctrl.Shown()); diff != "" {
		t.Errorf("shown outcome mismatch (-want +got):\n%s", diff)
	}
	if h.ctrl.LastError() != nil {
		t.Errorf("unexpected error %v", h.ctrl.LastError())
	}
}

func TestTimeoutSettlesOnPreviousOutcome(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 3)
	h.spin(t)
	h.channel.last() <- outcome.Result{Outcome: firstOutcome}
	h.runUntilIdle(t)

	h.spin(t)
	hung := h.channel.last()
	reqCtx := h.channel.ctxs[len(h.channel.ctxs)-1]

	elapsed := time.Duration(0)
	for !h.ctrl.Snapshot().DataReady {
		h.ctrl.Tick(frame)
		elapsed += frame
		if elapsed > 6*time.Second {
			t.Fatal("timeout never fired")
		}
	}
	if elapsed != 5*time.Second {
		t.Errorf("expected fallback at 5s, got %s", elapsed)
	}
	if reqCtx.Err() == nil {
		t.Error("request context should be cancelled on timeout")
	}

	// a result arriving after the timeout is discarded
	hung <- outcome.Result{Outcome: secondOutcome}

	h.runUntilIdle(t)
	assertAtRest(t, h.ctrl.Grid(), firstOutcome)
	if !errors.Is(h.ctrl.LastError(), ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", h.ctrl.LastError())
	}
	snap := h.ctrl.Snapshot()
	if !snap.Fallback || snap.Err == "" {
		t.Errorf("snapshot should report the fallback: %+v", snap)
	}
	if !h.ctrl.InputEnabled() {
		t.Error("input should be re-enabled after a fallback settle")
	}
}

func TestTimeoutOnFirstSpinKeepsFiller(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 4)
	h.spin(t)
	filler := h.ctrl.Grid().SettleWindows()

	h.runUntilIdle(t)

	assertAtRest(t, h.ctrl.Grid(), filler)
	if !errors.Is(h.ctrl.LastError(), ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", h.ctrl.LastError())
	}
}

func TestFailedResultsFallBack(t *testing.T) {
	boom := errors.New("backend down")
	tests := []struct {
		name    string
		deliver func(ch chan outcome.Result)
		wantErr error
	}{
		{
			name:    "error result",
			deliver: func(ch chan outcome.Result) { ch <- outcome.Result{Err: boom} },
			wantErr: boom,
		},
		{
			name:    "closed channel",
			deliver: func(ch chan outcome.Result) { close(ch) },
			wantErr: ErrNoResult,
		},
		{
			name:    "too few reels",
			deliver: func(ch chan outcome.Result) { ch <- outcome.Result{Outcome: secondOutcome[:4]} },
			wantErr: reel.ErrMalformedOutcome,
		},
		{
			name: "unknown symbol",
			deliver: func(ch chan outcome.Result) {
				bad := secondOutcome.Clone()
				bad[2][1] = "cherry"
				ch <- outcome.Result{Outcome: bad}
			},
			wantErr: reel.ErrMalformedOutcome,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, DefaultConfig(), 5)
			h.spin(t)
			h.channel.last() <- outcome.Result{Outcome: firstOutcome}
			h.runUntilIdle(t)

			h.spin(t)
			tt.deliver(h.channel.last())
			h.runUntilIdle(t)

			assertAtRest(t, h.ctrl.Grid(), firstOutcome)
			if !errors.Is(h.ctrl.LastError(), tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, h.ctrl.LastError())
			}
		})
	}
}

func TestInputReenabledOncePerCycle(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 6)
	for _, o := range []reel.Outcome{firstOutcome, secondOutcome} {
		h.spin(t)
		h.channel.last() <- outcome.Result{Outcome: o}
		h.runUntilIdle(t)
		for i := 0; i < 50; i++ {
			h.ctrl.Tick(frame)
		}
	}

	want := []bool{false, true, false, true}
	if diff := cmp.Diff(want, h.presenter.calls); diff != "" {
		t.Errorf("presenter calls mismatch (-want +got):\n%s", diff)
	}
	assertAtRest(t, h.ctrl.Grid(), secondOutcome)
}

func TestSettleIsStaggered(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 7)
	h.spin(t)
	h.channel.last() <- outcome.Result{Outcome: firstOutcome}
	for h.ctrl.State() != StateSettling {
		h.ctrl.Tick(frame)
	}

	var order []int
	seen := map[int]bool{}
	for h.ctrl.State() == StateSettling {
		h.ctrl.Tick(frame)
		snap := h.ctrl.Snapshot()
		for i, r := range snap.Reels {
			if r.Settled && !seen[i] {
				seen[i] = true
				order = append(order, i)
			}
		}
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, order); diff != "" {
		t.Errorf("settle order mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseCancelsAndLocks(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 8)
	h.spin(t)
	for i := 0; i < 20; i++ {
		h.ctrl.Tick(frame)
	}
	offsets := h.ctrl.Snapshot().Reels
	state := h.ctrl.State()

	h.ctrl.Close()
	h.ctrl.Close()

	if h.ctrl.State() != state || !h.ctrl.Closed() {
		t.Errorf("close should keep state %s and report closed, got %s closed=%v", state, h.ctrl.State(), h.ctrl.Closed())
	}

	if h.channel.ctxs[0].Err() == nil {
		t.Error("request context should be cancelled on close")
	}
	if h.ctrl.InputEnabled() {
		t.Error("input should stay locked after close")
	}
	if err := h.ctrl.Spin(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	h.ctrl.Tick(frame)
	if diff := cmp.Diff(offsets, h.ctrl.Snapshot().Reels); diff != "" {
		t.Errorf("tick after close moved strips (-before +after):\n%s", diff)
	}
}

func TestCloseDuringSettleFreezesReels(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 10)
	h.spin(t)
	h.channel.last() <- outcome.Result{Outcome: firstOutcome}
	for h.ctrl.State() != StateSettling || !h.ctrl.Snapshot().Reels[0].Settled {
		h.ctrl.Tick(frame)
		if h.ctrl.State() == StateIdle {
			t.Fatal("cycle finished before reel 0 settled alone")
		}
	}
	before := h.ctrl.Snapshot()
	if before.Reels[4].Settled {
		t.Fatal("reel 4 should still be moving")
	}

	h.ctrl.Close()
	for i := 0; i < 100; i++ {
		h.ctrl.Tick(frame)
	}

	after := h.ctrl.Snapshot()
	if after.State != StateSettling || !after.Closed || after.InputEnabled {
		t.Errorf("unexpected snapshot after close: state %s closed %v input %v", after.State, after.Closed, after.InputEnabled)
	}
	if diff := cmp.Diff(before.Reels, after.Reels); diff != "" {
		t.Errorf("reels changed after close (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{false}, h.presenter.calls); diff != "" {
		t.Errorf("presenter calls mismatch (-want +got):\n%s", diff)
	}
}

// Pressing SPIN must not change the symbols on screen before the reels move.
func TestFirstSpinKeepsVisibleSymbols(t *testing.T) {
	h := newHarness(t, DefaultConfig(), 11)
	before := h.ctrl.Grid().BottomWindows()

	h.spin(t)

	if diff := cmp.Diff(before, h.ctrl.Grid().BottomWindows()); diff != "" {
		t.Errorf("first spin changed the visible symbols (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(before, h.ctrl.Grid().SettleWindows()); diff != "" {
		t.Errorf("settle windows should mirror the bottom windows (-want +got):\n%s", diff)
	}
}

func TestScrollStaggerDelaysLaterReels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScrollStagger = 100 * time.Millisecond
	h := newHarness(t, cfg, 9)
	h.spin(t)

	for i := 0; i < 15; i++ {
		h.ctrl.Tick(frame)
	}
	strips := h.ctrl.Grid().Strips()
	if strips[0].Offset() == 0 || strips[1].Offset() == 0 {
		t.Error("reels 0 and 1 should be scrolling after 150ms")
	}
	for _, i := range []int{2, 3, 4} {
		if strips[i].Offset() != 0 {
			t.Errorf("reel %d should not have started, offset %v", i, strips[i].Offset())
		}
	}
}

// The settle begins only once data is in, the minimum spin has passed and
// every strip is inside its alignment window, whatever the frame timing.
func TestSettleGate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		cfg.ScrollStagger = time.Duration(rapid.IntRange(0, 3).Draw(t, "stagger")) * 20 * time.Millisecond
		h := newHarness(t, cfg, rapid.Uint64().Draw(t, "seed"))
		dataAt := time.Duration(rapid.IntRange(0, 6000).Draw(t, "dataAt")) * time.Millisecond
		step := time.Duration(rapid.IntRange(5, 40).Draw(t, "step")) * time.Millisecond

		h.spin(t)
		var elapsed time.Duration
		delivered := false
		for ticks := 0; h.ctrl.State() != StateIdle; ticks++ {
			if ticks > 5000 {
				t.Fatalf("cycle did not complete, state %s", h.ctrl.State())
			}
			if !delivered && elapsed >= dataAt {
				h.channel.last() <- outcome.Result{Outcome: firstOutcome}
				delivered = true
			}
			before := h.ctrl.State()
			h.ctrl.Tick(step)
			elapsed += step

			if h.ctrl.InputEnabled() != (h.ctrl.State() == StateIdle) {
				t.Fatalf("input %v in state %s", h.ctrl.InputEnabled(), h.ctrl.State())
			}
			if before != StateSettling && h.ctrl.State() == StateSettling {
				snap := h.ctrl.Snapshot()
				if !snap.DataReady || snap.Elapsed < cfg.MinSpin {
					t.Fatalf("settle started early: %+v", snap)
				}
				if !h.ctrl.Grid().AllAligned() {
					t.Fatal("settle started with a strip outside its alignment window")
				}
			}
		}
		if len(h.presenter.calls) != 2 || h.presenter.calls[0] || !h.presenter.calls[1] {
			t.Fatalf("expected one lock and one unlock, got %v", h.presenter.calls)
		}
		for i, s := range h.ctrl.Grid().Strips() {
			if s.Offset() != s.RestOffset() {
				t.Fatalf("strip %d not at rest: %v", i, s.Offset())
			}
		}
	})
}
