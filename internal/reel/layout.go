package reel

// Geometry is the size of the render target.
type Geometry struct {
	Width  float64
	Height float64
}

// Rect is an axis-aligned rectangle in screen coordinates, Y growing downward.
type Rect struct {
	X, Y, W, H float64
}

// Bottom returns the Y of the rectangle's bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Mask returns the visibility window for the given screen. It is exactly Rows
// symbols tall and centered on the screen, so at rest it shows whole symbols
// and never a strip boundary. Horizontally it spans every reel plus half a
// symbol on each side.
func (g *Grid) Mask(screen Geometry) Rect {
	minX, maxX := g.cfg.ReelX[0], g.cfg.ReelX[0]
	for _, x := range g.cfg.ReelX[1:] {
		minX = min(minX, x)
		maxX = max(maxX, x)
	}
	h := float64(Rows) * g.cfg.Pitch
	cx, cy := screen.Width/2, screen.Height/2
	return Rect{
		X: cx + minX - g.cfg.SymbolWidth/2,
		Y: cy - h/2,
		W: maxX - minX + g.cfg.SymbolWidth,
		H: h,
	}
}

// ReelCenterX returns the horizontal center of reel i on the given screen.
func (g *Grid) ReelCenterX(screen Geometry, i int) float64 {
	return screen.Width/2 + g.cfg.ReelX[i]
}
