package spin

import (
	"fmt"
	"time"
)

// Config holds the timing of a spin cycle.
type Config struct {
	// MinSpin is the shortest continuous scroll before a settle may begin,
	// even when the outcome arrived earlier.
	MinSpin time.Duration

	// ScrollCycle is the time one strip needs to scroll through a full period.
	ScrollCycle time.Duration

	// ScrollStagger delays the start of strip i's scroll by i*ScrollStagger.
	ScrollStagger time.Duration

	// SettleLinear is the duration of the linear approach phase; strip i gets
	// an extra i*SettlePerReel on top.
	SettleLinear  time.Duration
	SettlePerReel time.Duration

	// SettleBounce is the duration of the bounce-out phase into the rest offset.
	SettleBounce time.Duration

	// SettleStagger delays strip i's settle by i*SettleStagger.
	SettleStagger time.Duration

	// RequestTimeout bounds the wait for an outcome. After it the cycle
	// settles on a fallback outcome.
	RequestTimeout time.Duration
}

// DefaultConfig returns the reference timings.
func DefaultConfig() Config {
	return Config{
		MinSpin:        3 * time.Second,
		ScrollCycle:    time.Second,
		SettleLinear:   1300 * time.Millisecond,
		SettleBounce:   700 * time.Millisecond,
		SettleStagger:  200 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}
}

// Validate rejects timings the state machine cannot run with.
func (c Config) Validate() error {
	if c.ScrollCycle <= 0 {
		return fmt.Errorf("spin: scroll cycle must be positive, got %s", c.ScrollCycle)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("spin: request timeout must be positive, got %s", c.RequestTimeout)
	}
	for name, d := range map[string]time.Duration{
		"min spin":        c.MinSpin,
		"scroll stagger":  c.ScrollStagger,
		"settle linear":   c.SettleLinear,
		"settle per reel": c.SettlePerReel,
		"settle bounce":   c.SettleBounce,
		"settle stagger":  c.SettleStagger,
	} {
		if d < 0 {
			return fmt.Errorf("spin: %s must not be negative, got %s", name, d)
		}
	}
	return nil
}
