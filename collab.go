package canopy

import "github.com/hajimehoshi/ebiten/v2"

// SoundPlayer plays fire-and-forget UI sounds. PlayCue must not block.
type SoundPlayer interface {
	PlayCue(cue SoundCue)
}

// Focuser selects the first focusable control of a window once it finished
// showing. It is only called while the manager's controller predicate holds.
type Focuser interface {
	Focus(w *Window)
}

// DenierPlacer moves input-blocking elements when the manager's top window
// changes. Either argument may be nil.
type DenierPlacer interface {
	Place(top, prev *Window)
}

// WindowEvent carries a lifecycle notification to an EventSink.
type WindowEvent struct {
	Type     WindowEventType
	WindowID string
	LayerID  string
}

// EventSink is the interface for optional ECS integration. When set on a
// Manager, every lifecycle event is forwarded after the window's own handlers
// ran.
type EventSink interface {
	EmitWindowEvent(event WindowEvent)
}

// GamepadPresent reports whether Ebitengine sees at least one gamepad. Use it
// as Config.ControllerPresent to focus the first control only for
// controller players.
func GamepadPresent() bool {
	return len(ebiten.AppendGamepadIDs(nil)) > 0
}

// NodeDenierPlacer places Window.Denier nodes directly behind the top
// window's node in paint order. The previous holder's denier is hidden.
type NodeDenierPlacer struct{}

// Place implements DenierPlacer.
func (NodeDenierPlacer) Place(top, prev *Window) {
	if prev != nil && prev.Denier != nil && (top == nil || prev.Denier != top.Denier) {
		prev.Denier.Visible = false
	}
	if top == nil || top.Denier == nil {
		return
	}
	wn := top.Node()
	d := top.Denier
	if wn == nil || wn.Parent == nil {
		d.Visible = true
		return
	}
	parent := wn.Parent
	if d.Parent != parent {
		parent.AddChild(d)
	}
	// The denier's own slot shifts the window down by one when it sits
	// before the window.
	idx := parent.ChildIndex(wn)
	if parent.ChildIndex(d) < idx {
		idx--
	}
	parent.SetChildIndex(d, idx)
	d.Visible = true
}
