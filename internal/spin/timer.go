package spin

import (
	"time"

	"github.com/MJE43/reelspin/internal/reel"
)

// tween moves a strip to offset `to` over dur with the given easing.
type tween struct {
	to   float64
	dur  time.Duration
	ease Ease
}

// settleTimer drives one strip from its splice offset to rest: a delay
// followed by a sequence of tweens.
type settleTimer struct {
	delay   time.Duration
	elapsed time.Duration
	from    float64
	tweens  []tween
	done    bool
}

// newSettleTimer builds the two-phase settle: a linear approach that stops
// two symbols short of rest, then a bounce into the rest offset. A zero
// linear duration leaves only the bounce.
func newSettleTimer(s *reel.Strip, delay, linear, bounce time.Duration) *settleTimer {
	t := &settleTimer{delay: delay, from: s.Offset()}
	if linear > 0 {
		t.tweens = append(t.tweens, tween{to: s.ApproachOffset(), dur: linear, ease: Linear})
	}
	t.tweens = append(t.tweens, tween{to: s.RestOffset(), dur: bounce, ease: BounceOut})
	return t
}

// advance moves the strip and reports whether this call completed the timer.
func (t *settleTimer) advance(dt time.Duration, s *reel.Strip) bool {
	if t.done {
		return false
	}
	t.elapsed += dt
	e := t.elapsed - t.delay
	if e < 0 {
		return false
	}
	from := t.from
	for _, tw := range t.tweens {
		if e < tw.dur {
			s.SetOffset(lerp(from, tw.to, tw.ease(float64(e)/float64(tw.dur))))
			return false
		}
		e -= tw.dur
		from = tw.to
	}
	s.SetOffset(from)
	t.done = true
	return true
}
