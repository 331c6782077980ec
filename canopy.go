package canopy

import (
	"fmt"
	"strings"
)

// Vec2 is a 2D vector used for offsets and slide directions. The coordinate
// system has its origin at the top-left, with Y increasing downward.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Mul returns v scaled by s.
func (v Vec2) Mul(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Lerp interpolates linearly from a to b by t.
func Lerp(a, b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default node color.
var ColorWhite = Color{1, 1, 1, 1}

// Direction selects which bound a transition drives a panel toward.
type Direction int8

const (
	Hide Direction = -1 // drive progress toward 0
	Show Direction = 1  // drive progress toward 1
)

// bound returns the progress value this direction ends at.
func (d Direction) bound() float64 {
	if d == Show {
		return 1
	}
	return 0
}

func (d Direction) String() string {
	if d == Show {
		return "show"
	}
	return "hide"
}

// TransitionKind selects the visual mapping a transition applies each frame.
type TransitionKind uint8

const (
	TransitionNone        TransitionKind = iota // snap to the terminal state
	TransitionSlideLeft                         // slide in from the left
	TransitionSlideRight                        // slide in from the right
	TransitionSlideTop                          // slide in from the top
	TransitionSlideBottom                       // slide in from the bottom
	TransitionFade                              // opacity only
	TransitionPopup                             // opacity plus curve-driven scale
	TransitionExternal                          // delegated to an external animator trigger
)

var transitionKindNames = [...]string{
	TransitionNone:        "none",
	TransitionSlideLeft:   "slideLeft",
	TransitionSlideRight:  "slideRight",
	TransitionSlideTop:    "slideTop",
	TransitionSlideBottom: "slideBottom",
	TransitionFade:        "fade",
	TransitionPopup:       "popup",
	TransitionExternal:    "external",
}

func (k TransitionKind) String() string {
	if int(k) < len(transitionKindNames) {
		return transitionKindNames[k]
	}
	return fmt.Sprintf("TransitionKind(%d)", k)
}

// ParseTransitionKind maps a configuration name (case-insensitive) to a kind.
func ParseTransitionKind(s string) (TransitionKind, error) {
	for i, name := range transitionKindNames {
		if strings.EqualFold(name, s) {
			return TransitionKind(i), nil
		}
	}
	return TransitionNone, fmt.Errorf("%w: unknown transition kind %q", ErrInvalidArgument, s)
}

// slideDirection is the unit vector pointing from the rest position toward the
// off-screen start position of a slide.
func (k TransitionKind) slideDirection() (Vec2, bool) {
	switch k {
	case TransitionSlideLeft:
		return Vec2{-1, 0}, true
	case TransitionSlideRight:
		return Vec2{1, 0}, true
	case TransitionSlideTop:
		return Vec2{0, -1}, true
	case TransitionSlideBottom:
		return Vec2{0, 1}, true
	}
	return Vec2{}, false
}

// SoundCue identifies a fire-and-forget UI sound.
type SoundCue uint8

const (
	CueShow   SoundCue = iota // a window starts showing
	CueHide                   // a window starts hiding
	CueSubmit                 // content confirmed an action; see Manager.PlayCue
	CueCancel                 // Back was requested
)

func (c SoundCue) String() string {
	switch c {
	case CueShow:
		return "show"
	case CueHide:
		return "hide"
	case CueSubmit:
		return "submit"
	case CueCancel:
		return "cancel"
	}
	return fmt.Sprintf("SoundCue(%d)", c)
}

// ParseSoundCue maps a cue name such as "show" or "cancel" to a SoundCue.
func ParseSoundCue(s string) (SoundCue, error) {
	for c := CueShow; c <= CueCancel; c++ {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	return CueShow, fmt.Errorf("%w: unknown sound cue %q", ErrInvalidArgument, s)
}

// NamePolicy controls how window and layer ids are normalized before lookup.
type NamePolicy uint8

const (
	NameExact     NamePolicy = iota // ids are used as given (case-sensitive)
	NameLowercase                   // ids are folded to lower case
)

// ParseNamePolicy maps "exact" or "lowercase" to a NamePolicy. An empty string
// yields NameExact.
func ParseNamePolicy(s string) (NamePolicy, error) {
	switch strings.ToLower(s) {
	case "", "exact":
		return NameExact, nil
	case "lowercase":
		return NameLowercase, nil
	}
	return NameExact, fmt.Errorf("%w: unknown name policy %q", ErrInvalidArgument, s)
}

func (p NamePolicy) sanitize(s string) string {
	if p == NameLowercase {
		return strings.ToLower(s)
	}
	return s
}

// PathSeparator splits "layer/window" paths passed to Manager.ShowWindow.
const PathSeparator = '/'

// SplitPath splits a "layer/window" path at the first PathSeparator. A path
// without a separator yields an empty layer name.
func SplitPath(path string) (layer, window string) {
	if i := strings.IndexByte(path, PathSeparator); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

// WindowEventType identifies a window lifecycle notification.
type WindowEventType uint8

const (
	EventWillActivate   WindowEventType = iota // before the show transition starts
	EventActivated                             // after the show transition finished
	EventWillDeactivate                        // before the hide transition starts
	EventDeactivated                           // after the hide transition finished
	EventTopChanged                            // the manager's top window changed
)

func (t WindowEventType) String() string {
	switch t {
	case EventWillActivate:
		return "willActivate"
	case EventActivated:
		return "activated"
	case EventWillDeactivate:
		return "willDeactivate"
	case EventDeactivated:
		return "deactivated"
	case EventTopChanged:
		return "topChanged"
	}
	return fmt.Sprintf("WindowEventType(%d)", t)
}
