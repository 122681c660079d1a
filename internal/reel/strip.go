package reel

import (
	"fmt"
	"math"
)

// minStripLen keeps room for the bottom window, the settle window and a
// non-empty alignment window between them.
const minStripLen = 2*Rows + 1

// Strip is one vertical reel: a fixed-length symbol sequence and a scroll
// offset measured in the same unit as pitch. At offset 0 positions 0..Rows-1
// fill the window; at offset Period() the settle window does.
type Strip struct {
	symbols []Symbol
	offset  float64
	pitch   float64
}

// VisibleSymbol is a symbol that intersects the window. Y is the distance of
// the symbol's bottom edge above the window's bottom edge, so it lies in
// (-pitch, rows*pitch).
type VisibleSymbol struct {
	Index  int
	Symbol Symbol
	Y      float64
}

// NewStrip takes ownership of symbols.
func NewStrip(symbols []Symbol, pitch float64) (*Strip, error) {
	if len(symbols) < minStripLen {
		return nil, fmt.Errorf("reel: strip needs at least %d symbols, got %d", minStripLen, len(symbols))
	}
	if pitch <= 0 {
		return nil, fmt.Errorf("reel: pitch must be positive, got %v", pitch)
	}
	return &Strip{symbols: symbols, pitch: pitch}, nil
}

func (s *Strip) Len() int { return len(s.symbols) }
func (s *Strip) Pitch() float64 { return s.pitch }
func (s *Strip) Offset() float64 { return s.offset }
func (s *Strip) At(i int) Symbol { return s.symbols[i] }
func (s *Strip) SetOffset(v float64) { s.offset = v }

// Symbols returns a copy of the sequence.
func (s *Strip) Symbols() []Symbol { return append([]Symbol(nil), s.symbols...) }

// Period is the scroll distance after which continuous motion wraps.
func (s *Strip) Period() float64 { return s.pitch * float64(len(s.symbols)-Rows) }

// RestOffset is the offset at which the settle window fills the window.
func (s *Strip) RestOffset() float64 { return s.Period() }

// ApproachOffset is where the linear settle phase ends, two symbols short of rest.
func (s *Strip) ApproachOffset() float64 { return s.pitch * float64(len(s.symbols)-Rows-2) }

// AlignmentLimit is the upper bound of the alignment window (0, limit). While
// the offset is inside it neither the bottom nor the settle window positions
// can be on screen together with a splice.
func (s *Strip) AlignmentLimit() float64 { return s.pitch * float64(len(s.symbols)-2*Rows) }

// Aligned reports whether the offset lies strictly inside the alignment window.
func (s *Strip) Aligned() bool {
	return s.offset > 0 && s.offset < s.AlignmentLimit()
}

// Advance scrolls the strip down by delta, wrapping modulo Period.
func (s *Strip) Advance(delta float64) {
	s.offset += delta
	if p := s.Period(); s.offset >= p {
		s.offset = math.Mod(s.offset, p)
	}
}

// Splice overwrites positions pos..pos+len(syms)-1 in place.
func (s *Strip) Splice(pos int, syms []Symbol) error {
	if pos < 0 || pos+len(syms) > len(s.symbols) {
		return fmt.Errorf("reel: splice [%d,%d) outside strip of length %d", pos, pos+len(syms), len(s.symbols))
	}
	copy(s.symbols[pos:], syms)
	return nil
}

// BottomWindow returns the symbols shown at offset 0.
func (s *Strip) BottomWindow() []Symbol {
	return append([]Symbol(nil), s.symbols[:Rows]...)
}

// SettleWindow returns the symbols shown at rest.
func (s *Strip) SettleWindow() []Symbol {
	return append([]Symbol(nil), s.symbols[len(s.symbols)-Rows:]...)
}

// Visible lists the symbols that intersect a window rows symbols tall.
func (s *Strip) Visible(rows int) []VisibleSymbol {
	first := int(math.Floor(s.offset / s.pitch))
	out := make([]VisibleSymbol, 0, rows+1)
	for j := first; j <= first+rows && j < len(s.symbols); j++ {
		if j < 0 {
			continue
		}
		y := float64(j)*s.pitch - s.offset
		if y <= -s.pitch || y >= float64(rows)*s.pitch {
			continue
		}
		out = append(out, VisibleSymbol{Index: j, Symbol: s.symbols[j], Y: y})
	}
	return out
}
