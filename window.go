package canopy

import (
	"fmt"
	"strings"
)

// Window is a registered, identifiable UI unit. It wraps one Panel and
// belongs to at most one Layer at a time. Once attached to a layer it stays
// attached; closing only hides it.
type Window struct {
	id    string
	panel *Panel

	// PreferredLayer is used the first time the window is shown without an
	// explicit layer. Empty means the manager's default layer.
	PreferredLayer string

	// Transition overrides the manager's default transition when non-nil.
	Transition *TransitionSpec

	// Denier is an optional input-blocking node placed directly behind the
	// window while it is the manager's top window.
	Denier *Node

	// FirstControl is handed to the Focuser after the window finished showing
	// while a controller is present.
	FirstControl any

	// Lifecycle events. Activation fires WillActivate before the show
	// transition and Activated after it; deactivation fires WillDeactivate
	// before the hide transition and Deactivated after it.
	OnWillActivate   Event[*Window]
	OnActivated      Event[*Window]
	OnWillDeactivate Event[*Window]
	OnDeactivated    Event[*Window]

	layer   *Layer
	manager *Manager
}

// NewWindow creates a window with the given id around panel.
func NewWindow(id string, panel *Panel) (*Window, error) {
	if id == "" {
		return nil, fmt.Errorf("new window: %w: empty id", ErrInvalidArgument)
	}
	if strings.ContainsRune(id, PathSeparator) {
		return nil, fmt.Errorf("new window %q: %w: id contains %q", id, ErrInvalidArgument, PathSeparator)
	}
	if panel == nil {
		return nil, fmt.Errorf("new window %q: %w", id, ErrMisconfiguredPanel)
	}
	return &Window{id: id, panel: panel}, nil
}

// NewNodeWindow creates a window whose panel animates node.
func NewNodeWindow(id string, node *Node) (*Window, error) {
	if node == nil {
		return nil, fmt.Errorf("new window %q: %w", id, ErrMisconfiguredPanel)
	}
	p, err := NewPanel(node)
	if err != nil {
		return nil, fmt.Errorf("new window %q: %w", id, err)
	}
	return NewWindow(id, p)
}

// ID returns the window's id.
func (w *Window) ID() string { return w.id }

// Panel returns the window's animatable panel.
func (w *Window) Panel() *Panel { return w.panel }

// Node returns the panel's surface when it is a *Node, or nil.
func (w *Window) Node() *Node {
	n, _ := w.panel.surface.(*Node)
	return n
}

// Layer returns the layer the window is attached to, or nil before it was
// first shown or assigned.
func (w *Window) Layer() *Layer {
	if m := w.manager; m != nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
	}
	return w.layer
}

// Show asks the owning manager to show this window.
func (w *Window) Show() error {
	if w.manager == nil {
		return fmt.Errorf("show %q: %w: not registered", w.id, ErrUnknownWindow)
	}
	return w.manager.ShowWindow(w.id)
}

// Close asks the owning manager to close this window.
func (w *Window) Close() error {
	if w.manager == nil {
		return fmt.Errorf("close %q: %w: not registered", w.id, ErrUnknownWindow)
	}
	return w.manager.CloseWindow(w.id)
}

// transition returns the window's own spec or the fallback.
func (w *Window) transition(fallback *TransitionSpec) *TransitionSpec {
	if w.Transition != nil {
		return w.Transition
	}
	return fallback
}

func (w *Window) String() string {
	return w.id
}
