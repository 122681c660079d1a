package reel

import (
	"errors"
	"math/rand/v2"
)

// Rand is the source of uniform randomness used by the generator.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// IntN returns a uniform value in [0, n).
	IntN(n int) int
}

// Generator produces filler symbols with a fixed categorical distribution.
type Generator struct {
	alphabet Alphabet
	table    *BandTable
	rng      Rand
}

// NewGenerator builds a generator over alphabet using the given bands.
// A nil rng falls back to the global math/rand/v2 source.
func NewGenerator(alphabet Alphabet, bands []Band, rng Rand) (*Generator, error) {
	if err := alphabet.Validate(); err != nil {
		return nil, err
	}
	table, err := NewBandTable(bands, len(alphabet))
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = globalRand{}
	}
	return &Generator{
		alphabet: append(Alphabet(nil), alphabet...),
		table:    table,
		rng:      rng,
	}, nil
}

// Alphabet returns the generator's alphabet.
func (g *Generator) Alphabet() Alphabet { return g.alphabet }

// Table returns the band table the generator draws from.
func (g *Generator) Table() *BandTable { return g.table }

// Next draws one symbol: first a band, then a uniform index inside it.
func (g *Generator) Next() Symbol {
	band := g.table.bands[g.table.Select(g.rng.IntN(g.table.total)+1)]
	return g.alphabet[band.Lo+g.rng.IntN(band.Size())]
}

// Generate returns reelCount sequences of symbolsPerReel filler symbols.
// Outer index is the reel, inner index the vertical position with 0 at the bottom.
func (g *Generator) Generate(reelCount, symbolsPerReel int) [][]Symbol {
	reels := make([][]Symbol, reelCount)
	for r := range reels {
		reels[r] = make([]Symbol, symbolsPerReel)
		g.Fill(reels[r])
	}
	return reels
}

// Fill overwrites every position of dst with fresh filler.
func (g *Generator) Fill(dst []Symbol) {
	for i := range dst {
		dst[i] = g.Next()
	}
}

// GenerateOutcome draws a reelCount x Rows outcome with the same policy.
func (g *Generator) GenerateOutcome(reelCount int) Outcome {
	return Outcome(g.Generate(reelCount, Rows))
}

// BandOf returns the band index of sym, or an error for unknown symbols.
func (g *Generator) BandOf(sym Symbol) (int, error) {
	idx := g.alphabet.Index(sym)
	if idx < 0 {
		return -1, errors.New("reel: symbol not in alphabet")
	}
	return g.table.BandOf(idx), nil
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }
