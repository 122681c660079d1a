// Package render draws the reel grid with ebiten and turns player input into
// spins. It only reads controller snapshots; strip motion belongs to the spin
// package.
package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"

	"github.com/MJE43/reelspin/internal/reel"
	"github.com/MJE43/reelspin/internal/spin"
)

var (
	backgroundColor = color.RGBA{R: 0x14, G: 0x1b, B: 0x2a, A: 0xff}
	frameColor      = color.RGBA{R: 0xc9, G: 0xa2, B: 0x27, A: 0xff}
	buttonOn        = color.RGBA{R: 0xff, G: 0x75, B: 0x00, A: 0xff}
	buttonHover     = color.RGBA{R: 0xff, G: 0x9a, B: 0x00, A: 0xff}
	buttonOff       = color.RGBA{R: 0x55, G: 0x5b, B: 0x66, A: 0xff}
)

// Input reports whether the player asked for a spin this frame and whether
// the pointer is over the spin button.
type Input interface {
	SpinPressed(button reel.Rect) bool
	Hovering(button reel.Rect) bool
}

// ebitenInput reads the space key or a click on the spin button.
type ebitenInput struct{}

func (ebitenInput) SpinPressed(button reel.Rect) bool {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		return true
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		return contains(button, float64(x), float64(y))
	}
	return false
}

func (ebitenInput) Hovering(button reel.Rect) bool {
	x, y := ebiten.CursorPosition()
	return contains(button, float64(x), float64(y))
}

// Options configures a Game.
type Options struct {
	Screen reel.Geometry
	TPS    int
	Assets *Assets
	Input  Input
	Logger *zap.Logger
}

// Game implements ebiten.Game on top of a spin controller. It is also the
// controller's Presenter.
type Game struct {
	ctx     context.Context
	ctrl    *spin.Controller
	screen  reel.Geometry
	tick    time.Duration
	assets  *Assets
	input   Input
	log     *zap.Logger
	enabled bool
	hover   bool
}

// NewGame creates a game that stops when ctx is cancelled. Bind must be
// called before the game runs.
func NewGame(ctx context.Context, opts Options) *Game {
	if opts.TPS <= 0 {
		opts.TPS = ebiten.DefaultTPS
	}
	if opts.Input == nil {
		opts.Input = ebitenInput{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Game{
		ctx:     ctx,
		screen:  opts.Screen,
		tick:    time.Second / time.Duration(opts.TPS),
		assets:  opts.Assets,
		input:   opts.Input,
		log:     opts.Logger.Named("render"),
		enabled: true,
	}
}

// Bind attaches the controller the game drives.
func (g *Game) Bind(ctrl *spin.Controller) {
	g.ctrl = ctrl
	g.enabled = ctrl.InputEnabled()
}

// SetSpinEnabled implements spin.Presenter.
func (g *Game) SetSpinEnabled(enabled bool) { g.enabled = enabled }

// SpinEnabled reports whether the spin button is interactive.
func (g *Game) SpinEnabled() bool { return g.enabled }

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if g.ctrl == nil {
		return errors.New("render: game has no controller")
	}
	btn := g.button()
	g.hover = g.input.Hovering(btn)
	if g.input.SpinPressed(btn) && g.enabled {
		if err := g.ctrl.Spin(g.ctx); err != nil && !errors.Is(err, spin.ErrSpinLocked) {
			g.log.Warn("spin rejected", zap.Error(err))
		}
	}
	g.ctrl.Tick(g.tick)
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	grid := g.ctrl.Grid()
	cfg := grid.Config()
	mask := grid.Mask(g.screen)
	snap := g.ctrl.Snapshot()

	clip := screen.SubImage(image.Rect(
		int(mask.X), int(mask.Y), int(mask.X+mask.W), int(mask.Bottom()),
	)).(*ebiten.Image)
	for i, rv := range snap.Reels {
		cx := grid.ReelCenterX(g.screen, i)
		for _, v := range rv.Visible {
			g.drawSymbol(clip, v.Symbol, symbolRect(mask, cx, cfg.SymbolWidth, cfg.Pitch, v))
		}
	}
	vector.StrokeRect(screen, float32(mask.X), float32(mask.Y), float32(mask.W), float32(mask.H), 3, frameColor, false)

	btn := g.button()
	vector.DrawFilledRect(screen, float32(btn.X), float32(btn.Y), float32(btn.W), float32(btn.H), buttonFill(g.enabled, g.hover), false)
	ebitenutil.DebugPrintAt(screen, buttonLabel(g.enabled), int(btn.X+btn.W/2)-12, int(btn.Y+btn.H/2)-8)

	ebitenutil.DebugPrintAt(screen, statusLine(snap), int(mask.X), int(mask.Y)-48)
}

// buttonFill tints the button while the pointer is over it. A disabled
// button ignores the pointer.
func buttonFill(enabled, hover bool) color.RGBA {
	switch {
	case !enabled:
		return buttonOff
	case hover:
		return buttonHover
	default:
		return buttonOn
	}
}

func (g *Game) drawSymbol(dst *ebiten.Image, sym reel.Symbol, r reel.Rect) {
	img := g.assets.Handle(sym)
	b := img.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(r.W/float64(b.Dx()), r.H/float64(b.Dy()))
	op.GeoM.Translate(r.X, r.Y)
	dst.DrawImage(img, op)
}

func (g *Game) button() reel.Rect {
	return buttonRect(g.screen, g.ctrl.Grid().Mask(g.screen))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return int(g.screen.Width), int(g.screen.Height)
}
