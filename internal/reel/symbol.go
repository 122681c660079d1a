// Package reel models the symbol strips of a slot machine: the filler generator,
// the per-reel strip with its scroll offset, and the grid that lays strips out
// behind a visibility mask.
//
// Strip positions are numbered bottom-up. Index 0 is the position shown in the
// window when a strip sits at offset 0; the last Rows positions form the settle
// window, which is what the window shows once a spin comes to rest.
package reel

import (
	"errors"
	"fmt"
	"strings"
)

// Rows is the number of symbols a reel shows when it is at rest.
const Rows = 3

// Symbol is an opaque symbol identifier, e.g. "wild".
type Symbol string

// DefaultAlphabet is the reference symbol set, ordered by band.
var DefaultAlphabet = Alphabet{
	"a", "k", "q",
	"p-blond", "p-brown", "p-pink",
	"bonus",
	"wild",
	"p-forest",
}

// ErrMalformedOutcome is returned when an outcome does not fit the grid or
// names a symbol outside the alphabet.
var ErrMalformedOutcome = errors.New("reel: malformed outcome")

// Alphabet is the ordered set of symbols a machine can show.
type Alphabet []Symbol

// Index returns the position of sym in the alphabet, or -1.
func (a Alphabet) Index(sym Symbol) int {
	for i, s := range a {
		if s == sym {
			return i
		}
	}
	return -1
}

// Contains reports whether sym belongs to the alphabet.
func (a Alphabet) Contains(sym Symbol) bool {
	return a.Index(sym) >= 0
}

// Validate rejects empty alphabets and duplicate or blank identifiers.
func (a Alphabet) Validate() error {
	if len(a) == 0 {
		return errors.New("reel: alphabet is empty")
	}
	seen := make(map[Symbol]struct{}, len(a))
	for i, s := range a {
		if strings.TrimSpace(string(s)) == "" {
			return fmt.Errorf("reel: alphabet entry %d is blank", i)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("reel: duplicate symbol %q in alphabet", s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// Outcome holds, for each reel, the Rows symbols that must be visible when the
// spin settles. Outcome[r][k] lands at strip position len-Rows+k, so k=0 is the
// bottom row of the settle window.
type Outcome [][]Symbol

// OutcomeFromStrings converts the wire form of an outcome.
func OutcomeFromStrings(data [][]string) Outcome {
	out := make(Outcome, len(data))
	for r, col := range data {
		out[r] = make([]Symbol, len(col))
		for k, s := range col {
			out[r][k] = Symbol(s)
		}
	}
	return out
}

// Strings converts an outcome back to its wire form.
func (o Outcome) Strings() [][]string {
	out := make([][]string, len(o))
	for r, col := range o {
		out[r] = make([]string, len(col))
		for k, s := range col {
			out[r][k] = string(s)
		}
	}
	return out
}

// Clone returns a deep copy.
func (o Outcome) Clone() Outcome {
	if o == nil {
		return nil
	}
	out := make(Outcome, len(o))
	for r, col := range o {
		out[r] = append([]Symbol(nil), col...)
	}
	return out
}

// Validate checks that the outcome has exactly reels columns of Rows symbols
// each, all drawn from the alphabet.
func (o Outcome) Validate(reels int, alphabet Alphabet) error {
	if len(o) != reels {
		return fmt.Errorf("%w: expected %d reels, got %d", ErrMalformedOutcome, reels, len(o))
	}
	for r, col := range o {
		if len(col) != Rows {
			return fmt.Errorf("%w: reel %d has %d symbols, expected %d", ErrMalformedOutcome, r, len(col), Rows)
		}
		for k, s := range col {
			if !alphabet.Contains(s) {
				return fmt.Errorf("%w: unknown symbol %q at reel %d row %d", ErrMalformedOutcome, s, r, k)
			}
		}
	}
	return nil
}
