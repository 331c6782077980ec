package canopy

import "fmt"

// AnimatorTrigger is implemented by externally driven animations (sprite
// sheets, skeletal rigs). TransitionExternal fires "WindowShow" or
// "WindowHide" on it and waits for the transition duration. SetTrigger runs
// while the manager lock is held and must not call back into the Manager.
type AnimatorTrigger interface {
	SetTrigger(name string)
}

// External animator trigger names.
const (
	TriggerShow = "WindowShow"
	TriggerHide = "WindowHide"
)

// Panel is an animatable visual unit. Progress runs from 0 (fully hidden) to
// 1 (fully shown); the transition engine maps it onto the surface each frame.
//
// A panel must have at most one driver at a time: either an Animator run or a
// continuous Step caller such as Tabs.
type Panel struct {
	surface  Surface
	progress float64

	// Rest is the shown position slides animate toward. Captured from the
	// surface at construction.
	Rest Vec2
	// BaseScale is the shown scale popups animate around. Captured from the
	// surface at construction.
	BaseScale float64

	// Trigger receives TransitionExternal triggers. When nil, external
	// transitions degrade to a fade.
	Trigger AnimatorTrigger
}

// NewPanel wraps surface in a panel. The current opacity seeds the progress,
// so a surface created invisible starts hidden.
func NewPanel(surface Surface) (*Panel, error) {
	if surface == nil {
		return nil, fmt.Errorf("new panel: %w", ErrMisconfiguredPanel)
	}
	p := &Panel{
		surface:   surface,
		Rest:      surface.Offset(),
		BaseScale: surface.Scale(),
	}
	if surface.Active() {
		p.progress = clamp01(surface.Opacity())
	}
	return p, nil
}

// Surface returns the panel's visual surface.
func (p *Panel) Surface() Surface { return p.surface }

// Progress returns the current visibility progress in [0, 1].
func (p *Panel) Progress() float64 { return p.progress }

// Shown reports whether progress is at 1.
func (p *Panel) Shown() bool { return p.progress >= 1 }

// Hidden reports whether progress is at 0.
func (p *Panel) Hidden() bool { return p.progress <= 0 }

// Snap applies the terminal state for dir immediately: progress jumps to the
// bound, the frame is evaluated, and the surface is activated or deactivated.
func (p *Panel) Snap(spec *TransitionSpec, dir Direction) {
	p.progress = dir.bound()
	if dir == Show {
		p.surface.SetActive(true)
	}
	p.applyFrame(spec, dir)
	if dir == Hide {
		p.surface.SetActive(false)
	}
}

// Step advances progress by delta seconds of animation (positive shows,
// negative hides) and applies one frame. Instant specs move straight to the
// bound. Step is the continuous-drive counterpart of Animator.Start; callers
// invoke it every tick with a signed dt.
func (p *Panel) Step(spec *TransitionSpec, delta float64) error {
	if delta == 0 {
		return fmt.Errorf("panel step: %w: zero delta", ErrInvalidArgument)
	}
	dir := Show
	if delta < 0 {
		dir = Hide
	}
	if spec.instant() {
		p.Snap(spec, dir)
		return nil
	}
	if p.progress == dir.bound() {
		if p.surface.Active() != (dir == Show) {
			p.Snap(spec, dir)
		}
		return nil
	}
	p.surface.SetActive(true)
	p.progress = clamp01(p.progress + delta/spec.Duration)
	p.applyFrame(spec, dir)
	if p.progress <= 0 {
		p.surface.SetActive(false)
	}
	return nil
}

// applyFrame maps the current progress onto the surface.
func (p *Panel) applyFrame(spec *TransitionSpec, dir Direction) {
	f := spec.ease(p.progress)
	if p.progress >= 1 {
		f = 1
	} else if p.progress <= 0 {
		f = 0
	}
	kind := spec.Kind
	if kind == TransitionExternal && p.Trigger == nil {
		kind = TransitionFade
	}

	switch kind {
	case TransitionSlideLeft, TransitionSlideRight, TransitionSlideTop, TransitionSlideBottom:
		unit, _ := kind.slideDirection()
		start := p.Rest.Add(unit.Mul(spec.Strength))
		p.surface.SetOpacity(f)
		p.surface.SetOffset(Lerp(start, p.Rest, f))
	case TransitionPopup:
		curve := spec.PopupIn
		if dir == Hide {
			curve = spec.PopupOut
		}
		p.surface.SetOpacity(f)
		if p.progress >= 1 {
			p.surface.SetScale(p.BaseScale)
		} else {
			p.surface.SetScale(p.BaseScale * curve.Evaluate(f))
		}
	case TransitionExternal:
		// Visuals belong to the external animator.
	default:
		p.surface.SetOpacity(f)
	}
}
