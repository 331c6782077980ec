// Package layout loads window layouts authored in YAML and turns them into a
// canopy.Config.
//
// A layout names the layers, the windows with their placement and colors, and
// the transitions they use:
//
//	default_layer: main
//	name_policy: lowercase
//	transition: {kind: fade, duration: 0.15}
//	layers:
//	  - {id: main, order: 0, stacked: true}
//	  - {id: overlay, order: 10}
//	windows:
//	  - id: inventory
//	    rect: [40, 40, 320, 240]
//	    color: "#2d4d7a"
//	    transition: {kind: slideLeft, duration: 0.3, easing: outCubic}
//	    denier: "#00000080"
package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phanxgames/canopy"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrInvalidLayout is returned for layouts that parse but cannot be built.
var ErrInvalidLayout = errors.New("layout: invalid layout")

// File is the YAML document.
type File struct {
	Screen              Size        `yaml:"screen"`
	DefaultLayer        string      `yaml:"default_layer"`
	CreateMissingLayers bool        `yaml:"create_missing_layers"`
	NamePolicy          string      `yaml:"name_policy"`
	Transition          *Transition `yaml:"transition"`
	Layers              []Layer     `yaml:"layers"`
	Windows             []Window    `yaml:"windows"`
	// Sounds maps cue names (show, hide, submit, cancel) to WAV files,
	// relative to the layout file.
	Sounds map[string]string `yaml:"sounds"`
}

// Size is a width and height in pixels.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Layer describes one layer.
type Layer struct {
	ID      string `yaml:"id"`
	Order   int    `yaml:"order"`
	Stacked bool   `yaml:"stacked"`
}

// Transition describes a canopy.TransitionSpec. Zero fields inherit from the
// layout's default transition, then from canopy.DefaultTransition.
type Transition struct {
	Kind     string   `yaml:"kind"`
	Duration *float64 `yaml:"duration"`
	Strength *float64 `yaml:"strength"`
	Easing   string   `yaml:"easing"`
	PopupIn  *Curve   `yaml:"popup_in"`
	PopupOut *Curve   `yaml:"popup_out"`
}

// Curve describes a popup scale curve.
type Curve struct {
	From float64 `yaml:"from"`
	To   float64 `yaml:"to"`
	Ease string  `yaml:"ease"`
}

// Window describes one window backed by a rectangle node.
type Window struct {
	ID         string      `yaml:"id"`
	Layer      string      `yaml:"layer"`
	Rect       []float64   `yaml:"rect"` // x, y, width, height
	Color      string      `yaml:"color"`
	Transition *Transition `yaml:"transition"`
	// Denier is the color of a full-screen input blocker drawn behind the
	// window while it is on top. Empty means none.
	Denier string `yaml:"denier"`
}

// Parse decodes a layout. Unknown keys are errors.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return &f, nil
}

// Load reads and decodes the layout at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Config builds a canopy.Config with one node-backed window per entry. The
// logger is stored in the config unchanged.
func (f *File) Config(logger *zap.Logger) (canopy.Config, error) {
	policy, err := canopy.ParseNamePolicy(f.NamePolicy)
	if err != nil {
		return canopy.Config{}, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	base, err := f.Transition.build(canopy.DefaultTransition())
	if err != nil {
		return canopy.Config{}, fmt.Errorf("%w: default transition: %w", ErrInvalidLayout, err)
	}

	cfg := canopy.Config{
		DefaultLayer:        f.DefaultLayer,
		CreateMissingLayers: f.CreateMissingLayers,
		NamePolicy:          policy,
		DefaultTransition:   base,
		Logger:              logger,
	}
	for _, l := range f.Layers {
		cfg.Layers = append(cfg.Layers, canopy.LayerConfig{ID: l.ID, Order: l.Order, Stacked: l.Stacked})
	}

	seen := make(map[string]bool, len(f.Windows))
	for i, wd := range f.Windows {
		if wd.ID == "" {
			return canopy.Config{}, fmt.Errorf("%w: window %d has no id", ErrInvalidLayout, i)
		}
		if seen[wd.ID] {
			return canopy.Config{}, fmt.Errorf("%w: window %q declared twice", ErrInvalidLayout, wd.ID)
		}
		seen[wd.ID] = true
		w, err := f.buildWindow(wd, base)
		if err != nil {
			return canopy.Config{}, fmt.Errorf("%w: window %q: %w", ErrInvalidLayout, wd.ID, err)
		}
		cfg.Windows = append(cfg.Windows, w)
	}
	return cfg, nil
}

func (f *File) buildWindow(wd Window, base *canopy.TransitionSpec) (*canopy.Window, error) {
	c := canopy.ColorWhite
	if wd.Color != "" {
		var err error
		if c, err = ParseColor(wd.Color); err != nil {
			return nil, err
		}
	}
	var rect [4]float64
	switch len(wd.Rect) {
	case 0:
	case 4:
		copy(rect[:], wd.Rect)
	default:
		return nil, fmt.Errorf("rect: want [x, y, width, height], got %d values", len(wd.Rect))
	}
	node := canopy.NewRect(wd.ID, rect[2], rect[3], c)
	node.X, node.Y = rect[0], rect[1]

	w, err := canopy.NewNodeWindow(wd.ID, node)
	if err != nil {
		return nil, err
	}
	w.PreferredLayer = wd.Layer
	if wd.Transition != nil {
		if w.Transition, err = wd.Transition.build(base); err != nil {
			return nil, err
		}
	}
	if wd.Denier != "" {
		dc, err := ParseColor(wd.Denier)
		if err != nil {
			return nil, fmt.Errorf("denier: %w", err)
		}
		d := canopy.NewRect(wd.ID+"-denier", float64(f.Screen.Width), float64(f.Screen.Height), dc)
		d.Visible = false
		w.Denier = d
	}
	return w, nil
}

// SoundCues resolves the sounds table to cue/path pairs. Relative paths are
// joined to dir.
func (f *File) SoundCues(dir string) (map[canopy.SoundCue]string, error) {
	out := make(map[canopy.SoundCue]string, len(f.Sounds))
	for name, path := range f.Sounds {
		cue, err := canopy.ParseSoundCue(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sounds: %w", ErrInvalidLayout, err)
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		out[cue] = path
	}
	return out, nil
}

// build overlays t on a copy of base. A nil t returns base unchanged.
func (t *Transition) build(base *canopy.TransitionSpec) (*canopy.TransitionSpec, error) {
	if t == nil {
		return base, nil
	}
	spec := *base
	if t.Kind != "" {
		k, err := canopy.ParseTransitionKind(t.Kind)
		if err != nil {
			return nil, err
		}
		spec.Kind = k
	}
	if t.Duration != nil {
		spec.Duration = *t.Duration
	}
	if t.Strength != nil {
		spec.Strength = *t.Strength
	}
	if t.Easing != "" {
		fn, ok := canopy.EaseByName(t.Easing)
		if !ok {
			return nil, fmt.Errorf("unknown easing %q", t.Easing)
		}
		spec.Easing = canopy.EaseFunc(fn)
	}
	var err error
	if t.PopupIn != nil {
		if spec.PopupIn, err = t.PopupIn.build(); err != nil {
			return nil, err
		}
	}
	if t.PopupOut != nil {
		if spec.PopupOut, err = t.PopupOut.build(); err != nil {
			return nil, err
		}
	}
	return &spec, nil
}

func (c *Curve) build() (canopy.Curve, error) {
	out := canopy.Curve{From: c.From, To: c.To}
	if c.Ease != "" {
		fn, ok := canopy.EaseByName(c.Ease)
		if !ok {
			return canopy.Curve{}, fmt.Errorf("unknown easing %q", c.Ease)
		}
		out.Ease = fn
	}
	return out, nil
}

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (canopy.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return canopy.Color{}, fmt.Errorf("color %q: want #rgb, #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return canopy.Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return canopy.Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}
