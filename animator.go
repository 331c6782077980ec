package canopy

import (
	"fmt"
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Animation is one in-flight transition of a panel toward a bound. It lives
// in its Animator's active set until it finishes.
type Animation struct {
	owner      *Animator
	panel      *Panel
	spec       *TransitionSpec
	dir        Direction
	tween      *gween.Tween
	external   bool
	onFinished func()
	done       bool
}

// Done reports whether the animation reached its bound.
func (an *Animation) Done() bool { return an.done }

// Direction returns the direction this animation drives its panel.
func (an *Animation) Direction() Direction { return an.dir }

// Panel returns the animated panel.
func (an *Animation) Panel() *Panel { return an.panel }

// step advances the animation by dt seconds and applies one frame.
func (an *Animation) step(dt float64) {
	val, finished := an.tween.Update(float32(dt))
	if an.external {
		if finished {
			an.finish()
		}
		return
	}

	p := an.panel
	next := clamp01(float64(val))
	if an.dir == Show {
		next = math.Max(next, p.progress)
	} else {
		next = math.Min(next, p.progress)
	}
	p.progress = next
	if finished || next == an.dir.bound() {
		an.finish()
		return
	}
	p.applyFrame(an.spec, an.dir)
}

// finish applies the exact terminal frame, leaves the active set and fires
// the completion callback. The panel is free for a new run by the time the
// callback executes.
func (an *Animation) finish() {
	if an.done {
		return
	}
	an.done = true
	p := an.panel
	p.progress = an.dir.bound()
	p.applyFrame(an.spec, an.dir)
	if an.dir == Hide {
		p.surface.SetActive(false)
	}
	if an.owner != nil && an.owner.active[p] == an {
		delete(an.owner.active, p)
	}
	if an.onFinished != nil {
		an.onFinished()
	}
}

// Animator advances panel transitions. Each panel has at most one active
// animation; a second Start for a busy panel is rejected, never queued.
//
// There is no global animator: the owner calls Update once per tick. Animator
// is not safe for concurrent use; Manager serializes access with its mutex.
type Animator struct {
	runs   []*Animation
	active map[*Panel]*Animation
}

// NewAnimator creates an empty animator.
func NewAnimator() *Animator {
	return &Animator{active: make(map[*Panel]*Animation)}
}

// Start begins driving p toward dir's bound using spec. onFinished, which
// may be nil, is called exactly once when the bound is reached.
//
// Instant transitions (zero duration, TransitionNone, or a panel already at
// the bound) apply the terminal frame and call onFinished before Start
// returns. Otherwise the animation joins the active set and advances on each
// Update.
func (a *Animator) Start(p *Panel, spec *TransitionSpec, dir Direction, onFinished func()) (*Animation, error) {
	if p == nil || spec == nil {
		return nil, fmt.Errorf("start transition: %w: nil panel or spec", ErrInvalidArgument)
	}
	if dir != Show && dir != Hide {
		return nil, fmt.Errorf("start transition: %w: direction %d", ErrInvalidArgument, dir)
	}
	if _, busy := a.active[p]; busy {
		return nil, fmt.Errorf("start transition: %w", ErrTransitionInProgress)
	}

	an := &Animation{owner: a, panel: p, spec: spec, dir: dir, onFinished: onFinished}
	if dir == Show {
		p.surface.SetActive(true)
	}

	bound := dir.bound()
	an.external = spec.Kind == TransitionExternal && p.Trigger != nil
	if spec.instant() || (!an.external && p.progress == bound) {
		an.finish()
		return an, nil
	}

	if an.external {
		name := TriggerShow
		if dir == Hide {
			name = TriggerHide
		}
		p.Trigger.SetTrigger(name)
		d := float32(spec.Duration)
		an.tween = gween.New(0, d, d, ease.Linear)
	} else {
		remaining := math.Abs(bound-p.progress) * spec.Duration
		an.tween = gween.New(float32(p.progress), float32(bound), float32(remaining), ease.Linear)
	}

	a.active[p] = an
	a.runs = append(a.runs, an)
	return an, nil
}

// Update advances every active animation by dt seconds. Animations started
// from completion callbacks during this call first advance on the next Update.
func (a *Animator) Update(dt float64) {
	if dt <= 0 || len(a.runs) == 0 {
		return
	}
	n := len(a.runs)
	for i := 0; i < n; i++ {
		an := a.runs[i]
		if !an.done {
			an.step(dt)
		}
	}

	live := a.runs[:0]
	for _, an := range a.runs {
		if !an.done {
			live = append(live, an)
		}
	}
	for i := len(live); i < len(a.runs); i++ {
		a.runs[i] = nil
	}
	a.runs = live
}

// Active reports whether p has an animation in flight.
func (a *Animator) Active(p *Panel) bool {
	_, ok := a.active[p]
	return ok
}

// Len returns the number of animations in flight.
func (a *Animator) Len() int {
	return len(a.active)
}
