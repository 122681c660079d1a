package render

import (
	"fmt"
	"strings"

	"github.com/MJE43/reelspin/internal/reel"
	"github.com/MJE43/reelspin/internal/spin"
)

// tileInset is the gap between stacked symbols, in pixels.
const tileInset = 5

// symbolRect places a visible symbol of the reel centered at centerX. Strip
// positions grow upward from the mask's bottom edge.
func symbolRect(mask reel.Rect, centerX, width, pitch float64, v reel.VisibleSymbol) reel.Rect {
	return reel.Rect{
		X: centerX - width/2,
		Y: mask.Bottom() - v.Y - pitch + tileInset,
		W: width,
		H: pitch - 2*tileInset,
	}
}

// buttonRect places the spin button centered under the mask.
func buttonRect(screen reel.Geometry, mask reel.Rect) reel.Rect {
	const w, h = 220, 64
	y := mask.Bottom() + (screen.Height-mask.Bottom()-h)/2
	return reel.Rect{X: screen.Width/2 - w/2, Y: y, W: w, H: h}
}

func contains(r reel.Rect, x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// statusLine is the text shown above the reels.
func statusLine(s spin.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "spin #%d  %s", s.Spin, s.State)
	if s.State == spin.StateIdle && s.Err != "" {
		fmt.Fprintf(&b, "\noutcome unavailable: %s\npress SPIN to retry", s.Err)
	}
	return b.String()
}

func buttonLabel(enabled bool) string {
	if enabled {
		return "SPIN"
	}
	return "..."
}
