package reel

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Band is a contiguous run of alphabet indices [Lo, Hi] selected together with
// the given weight. Within a band every index is equally likely.
type Band struct {
	Lo     int
	Hi     int
	Weight decimal.Decimal
}

// DefaultBands is the reference 60/30/5/3/2 split over bands of size 3/3/1/1/1.
func DefaultBands() []Band {
	return []Band{
		{Lo: 0, Hi: 2, Weight: decimal.NewFromInt(60)},
		{Lo: 3, Hi: 5, Weight: decimal.NewFromInt(30)},
		{Lo: 6, Hi: 6, Weight: decimal.NewFromInt(5)},
		{Lo: 7, Hi: 7, Weight: decimal.NewFromInt(3)},
		{Lo: 8, Hi: 8, Weight: decimal.NewFromInt(2)},
	}
}

// Size is the number of alphabet indices covered by the band.
func (b Band) Size() int { return b.Hi - b.Lo + 1 }

// BandTable turns band weights into integer draw thresholds. A single draw in
// 1..Range() picks the first band whose cumulative threshold is not exceeded.
type BandTable struct {
	bands      []Band
	thresholds []int
	total      int
}

// maxDrawRange keeps the draw range well inside int on every platform.
const maxDrawRange = 1 << 30

// NewBandTable validates that bands partition an alphabet of the given size in
// order and derives the draw range. Fractional weights are scaled by the
// smallest power of ten that makes all of them integral, so 97.5/2.5 draws from
// 1..1000 with no rounding.
func NewBandTable(bands []Band, alphabetSize int) (*BandTable, error) {
	if len(bands) == 0 {
		return nil, errors.New("reel: no bands configured")
	}
	next := 0
	places := int32(0)
	for i, b := range bands {
		if b.Lo != next {
			return nil, fmt.Errorf("reel: band %d starts at %d, expected %d", i, b.Lo, next)
		}
		if b.Hi < b.Lo {
			return nil, fmt.Errorf("reel: band %d has hi %d below lo %d", i, b.Hi, b.Lo)
		}
		if !b.Weight.IsPositive() {
			return nil, fmt.Errorf("reel: band %d weight must be positive, got %s", i, b.Weight)
		}
		if exp := b.Weight.Exponent(); -exp > places {
			places = -exp
		}
		next = b.Hi + 1
	}
	if next != alphabetSize {
		return nil, fmt.Errorf("reel: bands cover %d symbols, alphabet has %d", next, alphabetSize)
	}

	t := &BandTable{
		bands:      append([]Band(nil), bands...),
		thresholds: make([]int, len(bands)),
	}
	limit := decimal.NewFromInt(maxDrawRange)
	sum := decimal.Zero
	for i, b := range bands {
		sum = sum.Add(b.Weight.Shift(places))
		if sum.GreaterThan(limit) {
			return nil, fmt.Errorf("reel: band weights need a draw range above %d", maxDrawRange)
		}
		t.thresholds[i] = int(sum.IntPart())
	}
	t.total = t.thresholds[len(t.thresholds)-1]
	return t, nil
}

// Range is the upper bound R of the uniform draw 1..R.
func (t *BandTable) Range() int { return t.total }

// Bands returns a copy of the configured bands.
func (t *BandTable) Bands() []Band { return append([]Band(nil), t.bands...) }

// Select maps a draw in 1..Range() to a band index.
func (t *BandTable) Select(draw int) int {
	for i, th := range t.thresholds {
		if draw <= th {
			return i
		}
	}
	return len(t.thresholds) - 1
}

// BandOf returns the band index that contains alphabet index idx, or -1.
func (t *BandTable) BandOf(idx int) int {
	for i, b := range t.bands {
		if idx >= b.Lo && idx <= b.Hi {
			return i
		}
	}
	return -1
}

// Share returns the expected probability of band i.
func (t *BandTable) Share(i int) float64 {
	prev := 0
	if i > 0 {
		prev = t.thresholds[i-1]
	}
	return float64(t.thresholds[i]-prev) / float64(t.total)
}
