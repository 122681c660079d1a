package reel

import (
	"errors"
	"fmt"
)

// Config describes the grid's shape. ReelX holds each reel's horizontal
// offset from the screen center, one entry per reel.
type Config struct {
	Reels          int
	SymbolsPerReel int
	Pitch          float64
	SymbolWidth    float64
	ReelX          []float64
}

// DefaultConfig matches the reference 5-reel, 21-symbol layout.
func DefaultConfig() Config {
	return Config{
		Reels:          5,
		SymbolsPerReel: 21,
		Pitch:          210,
		SymbolWidth:    200,
		ReelX:          []float64{-455, -230, 0, 230, 455},
	}
}

// Validate checks the grid shape.
func (c Config) Validate() error {
	if c.Reels <= 0 {
		return fmt.Errorf("reel: reel count must be positive, got %d", c.Reels)
	}
	if c.SymbolsPerReel < minStripLen {
		return fmt.Errorf("reel: symbols per reel must be at least %d, got %d", minStripLen, c.SymbolsPerReel)
	}
	if c.Pitch <= 0 {
		return fmt.Errorf("reel: pitch must be positive, got %v", c.Pitch)
	}
	if c.SymbolWidth <= 0 {
		return fmt.Errorf("reel: symbol width must be positive, got %v", c.SymbolWidth)
	}
	if len(c.ReelX) != c.Reels {
		return fmt.Errorf("reel: %d reel x offsets for %d reels", len(c.ReelX), c.Reels)
	}
	return nil
}

// Grid owns the strips of a machine. Strips are built once and then refilled
// in place, so their lengths never change.
type Grid struct {
	cfg    Config
	gen    *Generator
	strips []*Strip
}

// NewGrid creates a grid of filler strips at offset 0.
func NewGrid(cfg Config, gen *Generator) (*Grid, error) {
	if gen == nil {
		return nil, errors.New("reel: grid needs a generator")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ReelX = append([]float64(nil), cfg.ReelX...)
	g := &Grid{cfg: cfg, gen: gen, strips: make([]*Strip, cfg.Reels)}
	for i, syms := range gen.Generate(cfg.Reels, cfg.SymbolsPerReel) {
		s, err := NewStrip(syms, cfg.Pitch)
		if err != nil {
			return nil, err
		}
		g.strips[i] = s
	}
	return g, nil
}

// Build creates a grid and seeds it with the previous and upcoming outcomes.
// Either may be nil.
func Build(cfg Config, gen *Generator, old, next Outcome) (*Grid, error) {
	g, err := NewGrid(cfg, gen)
	if err != nil {
		return nil, err
	}
	if err := g.Rebuild(old, next); err != nil {
		return nil, err
	}
	return g, nil
}

// Config returns the grid shape.
func (g *Grid) Config() Config { return g.cfg }

// Alphabet returns the symbols the grid's strips are drawn from.
func (g *Grid) Alphabet() Alphabet { return g.gen.Alphabet() }

// Reels returns the number of strips.
func (g *Grid) Reels() int { return len(g.strips) }

// Strip returns strip i.
func (g *Grid) Strip(i int) *Strip { return g.strips[i] }

// Strips returns the strips in reel order.
func (g *Grid) Strips() []*Strip { return g.strips }

// Rebuild refills every strip with fresh filler and resets offsets to 0.
// old goes into the bottom window and is mirrored into the settle window so
// the first wrap is seamless; next, when present, then takes the settle
// window. A nil old keeps each strip's current bottom window, so a rebuild
// never changes what shows at offset 0. Both outcomes are validated before
// any strip is touched.
func (g *Grid) Rebuild(old, next Outcome) error {
	for _, o := range []Outcome{old, next} {
		if o == nil {
			continue
		}
		if err := o.Validate(len(g.strips), g.gen.Alphabet()); err != nil {
			return err
		}
	}
	if old == nil {
		old = g.BottomWindows()
	}
	for i, s := range g.strips {
		g.gen.Fill(s.symbols)
		s.offset = 0
		copy(s.symbols[:Rows], old[i])
		copy(s.symbols[len(s.symbols)-Rows:], old[i])
		if next != nil {
			copy(s.symbols[len(s.symbols)-Rows:], next[i])
		}
	}
	return nil
}

// SpliceOutcome writes o into the settle window of every strip. It validates
// first and then splices all strips, never a subset.
func (g *Grid) SpliceOutcome(o Outcome) error {
	if err := o.Validate(len(g.strips), g.gen.Alphabet()); err != nil {
		return err
	}
	for i, s := range g.strips {
		if err := s.Splice(s.Len()-Rows, o[i]); err != nil {
			return err
		}
	}
	return nil
}

// AllAligned reports whether every strip is inside its alignment window.
func (g *Grid) AllAligned() bool {
	for _, s := range g.strips {
		if !s.Aligned() {
			return false
		}
	}
	return true
}

// SettleWindows returns what each strip will show at rest.
func (g *Grid) SettleWindows() Outcome {
	out := make(Outcome, len(g.strips))
	for i, s := range g.strips {
		out[i] = s.SettleWindow()
	}
	return out
}

// BottomWindows returns what each strip shows at offset 0.
func (g *Grid) BottomWindows() Outcome {
	out := make(Outcome, len(g.strips))
	for i, s := range g.strips {
		out[i] = s.BottomWindow()
	}
	return out
}
