package render

import (
	"hash/fnv"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/MJE43/reelspin/internal/reel"
)

// DefaultPalette colors the reference symbols.
var DefaultPalette = map[reel.Symbol]color.RGBA{
	"a":        {R: 0xd9, G: 0x48, B: 0x3b, A: 0xff},
	"k":        {R: 0x3b, G: 0x7d, B: 0xd9, A: 0xff},
	"q":        {R: 0x8e, G: 0x44, B: 0xad, A: 0xff},
	"p-blond":  {R: 0xf1, G: 0xc4, B: 0x0f, A: 0xff},
	"p-brown":  {R: 0x8d, G: 0x5b, B: 0x3a, A: 0xff},
	"p-pink":   {R: 0xf7, G: 0x8f, B: 0xb3, A: 0xff},
	"bonus":    {R: 0x27, G: 0xae, B: 0x60, A: 0xff},
	"wild":     {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"p-forest": {R: 0x1e, G: 0x5e, B: 0x3a, A: 0xff},
}

// Assets resolves symbol ids to renderable images. Tiles are generated on
// first use from the palette; Register replaces one with a loaded image.
type Assets struct {
	width, height int
	palette       map[reel.Symbol]color.RGBA

	mu     sync.Mutex
	images map[reel.Symbol]*ebiten.Image
}

// NewAssets creates tiles of the given size. A nil palette uses
// DefaultPalette.
func NewAssets(width, height int, palette map[reel.Symbol]color.RGBA) *Assets {
	if palette == nil {
		palette = DefaultPalette
	}
	return &Assets{
		width:   width,
		height:  height,
		palette: palette,
		images:  make(map[reel.Symbol]*ebiten.Image),
	}
}

// Register installs img as the handle for sym.
func (a *Assets) Register(sym reel.Symbol, img *ebiten.Image) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.images[sym] = img
}

// Handle returns the image for sym.
func (a *Assets) Handle(sym reel.Symbol) *ebiten.Image {
	a.mu.Lock()
	defer a.mu.Unlock()
	if img, ok := a.images[sym]; ok {
		return img
	}
	img := ebiten.NewImage(a.width, a.height)
	img.Fill(a.Color(sym))
	ebitenutil.DebugPrintAt(img, string(sym), 8, 8)
	a.images[sym] = img
	return img
}

// Color returns the tile color for sym. Symbols outside the palette get a
// stable color derived from their id.
func (a *Assets) Color(sym reel.Symbol) color.RGBA {
	if c, ok := a.palette[sym]; ok {
		return c
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(sym))
	v := h.Sum32()
	return color.RGBA{R: 0x40 | uint8(v), G: 0x40 | uint8(v>>8), B: 0x40 | uint8(v>>16), A: 0xff}
}
