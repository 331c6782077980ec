package canopy

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
)

// Game adapts a Manager to ebiten.Game. Each tick advances transitions by
// 1/TPS seconds; BackKey requests Manager.Back.
type Game struct {
	Manager *Manager

	Width, Height int
	ClearColor    Color
	BackKey       ebiten.Key
	ShowFPS       bool

	updateFunc func() error
}

// NewGame creates a game shell for m with Escape as the back key.
func NewGame(m *Manager, width, height int) *Game {
	return &Game{Manager: m, Width: width, Height: height, BackKey: ebiten.KeyEscape}
}

// SetUpdateFunc sets a callback that runs once per tick before transitions
// advance. A non-nil error stops the game loop.
func (g *Game) SetUpdateFunc(fn func() error) {
	g.updateFunc = fn
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.updateFunc != nil {
		if err := g.updateFunc(); err != nil {
			return err
		}
	}
	if inpututil.IsKeyJustPressed(g.BackKey) {
		g.back()
	}
	g.Manager.Update(1.0 / float64(ebiten.TPS()))
	return nil
}

func (g *Game) back() {
	if err := g.Manager.Back(); err != nil {
		g.Manager.logger.Debug("back ignored", zap.Error(err))
	}
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.ClearColor.A > 0 {
		screen.Fill(g.ClearColor.toRGBA())
	}
	g.Manager.mu.RLock()
	Draw(screen, g.Manager.root)
	g.Manager.mu.RUnlock()
	if g.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.Width, g.Height
}

// RunConfig holds window options for Run.
type RunConfig struct {
	Title         string
	Width, Height int
	ClearColor    Color
	ShowFPS       bool
	// UpdateFunc runs once per tick before transitions advance.
	UpdateFunc func() error
}

// Run opens a window and drives m until the window closes or UpdateFunc
// returns an error.
func Run(m *Manager, cfg RunConfig) error {
	if m == nil {
		return fmt.Errorf("run: %w: nil manager", ErrInvalidArgument)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("run: %w: window size %dx%d", ErrInvalidArgument, cfg.Width, cfg.Height)
	}
	g := NewGame(m, cfg.Width, cfg.Height)
	g.ClearColor = cfg.ClearColor
	g.ShowFPS = cfg.ShowFPS
	g.SetUpdateFunc(cfg.UpdateFunc)

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	return ebiten.RunGame(g)
}

// toRGBA converts to a premultiplied color.RGBA.
func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}
