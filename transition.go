package canopy

import (
	"github.com/tanema/gween/ease"
)

// Surface is the visual state a Panel animates. Node implements it; hosts
// with their own widget tree can supply another implementation.
type Surface interface {
	Opacity() float64
	SetOpacity(float64)
	Offset() Vec2
	SetOffset(Vec2)
	Scale() float64
	SetScale(float64)
	Active() bool
	SetActive(bool)
}

// Curve maps t in [0, 1] onto [From, To] through a gween easing function.
// A nil Ease is linear.
type Curve struct {
	From, To float64
	Ease     ease.TweenFunc
}

// Evaluate samples the curve at t. t is clamped to [0, 1].
func (c Curve) Evaluate(t float64) float64 {
	t = clamp01(t)
	fn := c.Ease
	if fn == nil {
		fn = ease.Linear
	}
	return float64(fn(float32(t), float32(c.From), float32(c.To-c.From), 1))
}

// DefaultPopupIn is the scale curve used while a popup shows.
var DefaultPopupIn = Curve{From: 0.75, To: 1, Ease: ease.OutBack}

// DefaultPopupOut is the scale curve used while a popup hides.
var DefaultPopupOut = Curve{From: 0.75, To: 1, Ease: ease.OutQuad}

// TransitionSpec describes how a panel animates between hidden and shown.
// A spec is shared by pointer between windows and must not be modified after
// it has been attached.
type TransitionSpec struct {
	Kind     TransitionKind
	Duration float64 // seconds; <= 0 snaps
	Strength float64 // slide offset in pixels

	// Easing maps linear progress to the eased fraction used for every visual
	// channel. Nil means smoothstep.
	Easing func(float64) float64

	PopupIn  Curve
	PopupOut Curve
}

// DefaultTransition returns a 0.1s fade with a 200px slide strength and the
// default popup curves.
func DefaultTransition() *TransitionSpec {
	return &TransitionSpec{
		Kind:     TransitionFade,
		Duration: 0.1,
		Strength: 200,
		PopupIn:  DefaultPopupIn,
		PopupOut: DefaultPopupOut,
	}
}

// instant reports whether the spec completes in a single step.
func (s *TransitionSpec) instant() bool {
	return s.Duration <= 0 || s.Kind == TransitionNone
}

func (s *TransitionSpec) ease(progress float64) float64 {
	if s.Easing != nil {
		return s.Easing(progress)
	}
	return Smoothstep(progress)
}

// Smoothstep is the cubic Hermite ease 3t²-2t³ with t clamped to [0, 1].
func Smoothstep(t float64) float64 {
	t = clamp01(t)
	return t * t * (3 - 2*t)
}

// EaseFunc adapts a gween easing function to the TransitionSpec.Easing
// signature.
func EaseFunc(fn ease.TweenFunc) func(float64) float64 {
	return func(t float64) float64 {
		return float64(fn(float32(clamp01(t)), 0, 1, 1))
	}
}

// EaseByName returns the gween easing function for a configuration name such
// as "linear", "outBack" or "inOutSine". The second result is false for
// unknown names.
func EaseByName(name string) (ease.TweenFunc, bool) {
	fn, ok := easeNames[name]
	return fn, ok
}

var easeNames = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inQuad":     ease.InQuad,
	"outQuad":    ease.OutQuad,
	"inOutQuad":  ease.InOutQuad,
	"inCubic":    ease.InCubic,
	"outCubic":   ease.OutCubic,
	"inOutCubic": ease.InOutCubic,
	"inSine":     ease.InSine,
	"outSine":    ease.OutSine,
	"inOutSine":  ease.InOutSine,
	"inExpo":     ease.InExpo,
	"outExpo":    ease.OutExpo,
	"inBack":     ease.InBack,
	"outBack":    ease.OutBack,
	"inOutBack":  ease.InOutBack,
	"outBounce":  ease.OutBounce,
	"outElastic": ease.OutElastic,
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
