package canopy

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// LayerConfig describes a layer to create.
type LayerConfig struct {
	ID      string
	Order   int
	Stacked bool
}

// Config holds Manager construction options. The zero value is usable but
// has no default layer, so windows must be shown with an explicit layer path
// or a preferred layer.
type Config struct {
	// DefaultLayer is the layer windows go to when no other layer applies.
	// Created if it does not appear in Layers.
	DefaultLayer string
	// CreateMissingLayers creates explicit and preferred layers on first use
	// instead of failing with ErrUnknownLayer.
	CreateMissingLayers bool
	// Layers are created during setup.
	Layers []LayerConfig
	// Windows are registered during setup and attached, hidden, to their
	// preferred or the default layer.
	Windows []*Window

	// DefaultTransition is used by windows without their own transition.
	// Nil means DefaultTransition().
	DefaultTransition *TransitionSpec
	// NamePolicy normalizes every window and layer id.
	NamePolicy NamePolicy

	Logger            *zap.Logger
	Sounds            SoundPlayer
	Focuser           Focuser
	ControllerPresent func() bool
	// DenierPlacer defaults to NodeDenierPlacer.
	DenierPlacer DenierPlacer
}

// Manager is the registry and coordinator of windows and layers. All
// registry and stack mutations run under one coarse mutex, so ShowWindow,
// CloseWindow, Back, RegisterWindow and Update are linearizable even when
// called from several goroutines.
//
// Lifecycle handlers are queued while the lock is held and dispatched, in
// order, after it is released. Handlers may call back into the manager.
type Manager struct {
	mu sync.RWMutex

	names         NamePolicy
	createMissing bool

	windows      map[string]*Window
	layers       map[string]*Layer
	ordered      []*Layer // ascending Order, creation order within equal orders
	defaultLayer *Layer

	defaultTransition *TransitionSpec
	animator          *Animator
	root              *Node

	lastActivated *Window
	top           *Window

	logger            *zap.Logger
	sounds            SoundPlayer
	focuser           Focuser
	controllerPresent func() bool
	deniers           DenierPlacer
	sink              EventSink

	queue       []func()
	dispatching bool

	// OnTopWindowChanged fires when the topmost window across all layers
	// changes. The argument is nil when every stack is empty.
	OnTopWindowChanged Event[*Window]
}

// NewManager creates a manager and runs setup: configured layers are
// created, the default layer is resolved, and configured windows are
// registered and attached hidden to their layers.
func NewManager(cfg Config) (*Manager, error) {
	m := &Manager{
		names:             cfg.NamePolicy,
		createMissing:     cfg.CreateMissingLayers,
		windows:           make(map[string]*Window),
		layers:            make(map[string]*Layer),
		defaultTransition: cfg.DefaultTransition,
		animator:          NewAnimator(),
		root:              NewNode("root"),
		logger:            cfg.Logger,
		sounds:            cfg.Sounds,
		focuser:           cfg.Focuser,
		controllerPresent: cfg.ControllerPresent,
		deniers:           cfg.DenierPlacer,
	}
	if m.defaultTransition == nil {
		m.defaultTransition = DefaultTransition()
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.deniers == nil {
		m.deniers = NodeDenierPlacer{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, lc := range cfg.Layers {
		if _, err := m.createLayerLocked(lc); err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
	}
	if cfg.DefaultLayer != "" {
		l, err := m.createLayerLocked(LayerConfig{ID: cfg.DefaultLayer})
		if err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
		m.defaultLayer = l
	}
	for _, w := range cfg.Windows {
		if w == nil {
			return nil, fmt.Errorf("setup: %w: nil window", ErrInvalidArgument)
		}
		if err := m.registerLocked(w, w.id); err != nil && !isDuplicate(err) {
			return nil, fmt.Errorf("setup: %w", err)
		}
		l, create, err := m.resolveLayer(w, "")
		if err != nil {
			return nil, fmt.Errorf("setup: window %q: %w", w.id, err)
		}
		if l == nil {
			if l, err = m.createLayerLocked(LayerConfig{ID: create}); err != nil {
				return nil, fmt.Errorf("setup: %w", err)
			}
		}
		l.attach(w)
	}
	m.queue = m.queue[:0]
	return m, nil
}

// --- Registry ---

// RegisterWindow binds id to w. If id was bound to a different window the new
// binding wins, a warning is logged, and the returned error wraps
// ErrDuplicateRegistration. A window that has never been attached to a layer
// is snapped to its hidden state.
func (m *Manager) RegisterWindow(w *Window, id string) error {
	m.mu.Lock()
	err := m.registerLocked(w, id)
	m.mu.Unlock()
	m.flush()
	return err
}

func (m *Manager) registerLocked(w *Window, id string) error {
	if w == nil {
		return fmt.Errorf("register window: %w: nil window", ErrInvalidArgument)
	}
	if id == "" {
		return fmt.Errorf("register window: %w: empty id", ErrInvalidArgument)
	}
	if strings.ContainsRune(id, PathSeparator) {
		return fmt.Errorf("register window %q: %w: id contains %q", id, ErrInvalidArgument, PathSeparator)
	}
	id = m.names.sanitize(id)
	if m.names.sanitize(w.id) != id {
		return fmt.Errorf("register window %q as %q: %w: window ids are immutable", w.id, id, ErrInvalidArgument)
	}
	if w.manager != nil && w.manager != m {
		return fmt.Errorf("register window %q: %w: owned by another manager", id, ErrInvalidArgument)
	}

	prev := m.windows[id]
	m.windows[id] = w
	w.manager = m
	if w.layer == nil {
		w.panel.Snap(w.transition(m.defaultTransition), Hide)
	}
	if prev != nil && prev != w {
		m.logger.Warn("window registration overridden; this is probably unintended",
			zap.String("id", id))
		return fmt.Errorf("register window %q: %w", id, ErrDuplicateRegistration)
	}
	return nil
}

// GetWindow returns the window registered under id, or nil.
func (m *Manager) GetWindow(id string) *Window {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.windows[m.names.sanitize(id)]
}

// GetLayer returns the layer registered under id, or nil.
func (m *Manager) GetLayer(id string) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.layers[m.names.sanitize(id)]
}

// LayerExists reports whether a layer is registered under id.
func (m *Manager) LayerExists(id string) bool {
	return m.GetLayer(id) != nil
}

// Layers returns all layers in ascending paint order.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Layer, len(m.ordered))
	copy(out, m.ordered)
	return out
}

// DefaultLayer returns the default layer, or nil if none is configured.
func (m *Manager) DefaultLayer() *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLayer
}

// DefaultTransition returns the transition used by windows without their own.
func (m *Manager) DefaultTransition() *TransitionSpec {
	return m.defaultTransition
}

// TopWindow returns the topmost window of the highest-order non-empty layer.
func (m *Manager) TopWindow() *Window {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.top
}

// LastActivated returns the window activated most recently that is still on
// its layer's stack. Back operates on its layer.
func (m *Manager) LastActivated() *Window {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastActivated
}

// Root returns the node all layer containers are parented to.
func (m *Manager) Root() *Node {
	return m.root
}

// Busy reports whether any transition is still running.
func (m *Manager) Busy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.animator.Len() > 0
}

// SetEventSink sets the optional ECS bridge.
func (m *Manager) SetEventSink(sink EventSink) {
	m.mu.Lock()
	m.sink = sink
	m.mu.Unlock()
}

// --- Layers ---

// CreateLayer creates a layer, or returns the existing layer with the same id.
func (m *Manager) CreateLayer(cfg LayerConfig) (*Layer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLayerLocked(cfg)
}

func (m *Manager) createLayerLocked(cfg LayerConfig) (*Layer, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("create layer: %w: empty id", ErrInvalidArgument)
	}
	if strings.ContainsRune(cfg.ID, PathSeparator) {
		return nil, fmt.Errorf("create layer %q: %w: id contains %q", cfg.ID, ErrInvalidArgument, PathSeparator)
	}
	id := m.names.sanitize(cfg.ID)
	if l, ok := m.layers[id]; ok {
		if l.order != cfg.Order || l.stacked != cfg.Stacked {
			m.logger.Debug("layer already exists; keeping its settings", zap.String("layer", id))
		}
		return l, nil
	}

	l := newLayer(m, id, cfg.Order, cfg.Stacked)
	m.layers[id] = l
	i := len(m.ordered)
	for i > 0 && m.ordered[i-1].order > l.order {
		i--
	}
	m.ordered = append(m.ordered, nil)
	copy(m.ordered[i+1:], m.ordered[i:])
	m.ordered[i] = l
	m.root.AddChild(l.node)
	m.logger.Debug("layer created",
		zap.String("layer", id), zap.Int("order", l.order), zap.Bool("stacked", l.stacked))
	return l, nil
}

// resolveLayer picks the target layer for w without mutating anything. When
// the layer does not exist yet but may be created, it returns nil and the id
// to create.
func (m *Manager) resolveLayer(w *Window, explicit string) (*Layer, string, error) {
	if explicit != "" {
		if l := m.layers[explicit]; l != nil {
			return l, "", nil
		}
		if m.createMissing {
			return nil, explicit, nil
		}
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownLayer, explicit)
	}
	if w.layer != nil {
		return w.layer, "", nil
	}
	if pref := m.names.sanitize(w.PreferredLayer); pref != "" {
		if l := m.layers[pref]; l != nil {
			return l, "", nil
		}
		if m.createMissing {
			return nil, pref, nil
		}
		m.logger.Warn("preferred layer missing; using default layer",
			zap.String("window", w.id), zap.String("layer", pref))
	}
	if m.defaultLayer == nil {
		return nil, "", fmt.Errorf("%w for window %q", ErrUnresolvableLayer, w.id)
	}
	return m.defaultLayer, "", nil
}

// --- Window operations ---

// ShowWindow shows the window named by path, "[layer/]window". The layer is
// the explicit one from the path, else the window's current layer, else its
// preferred layer, else the default layer. A window moving between layers
// leaves its old stack and lands on top of the new one in one step.
//
// Every check runs before any stack is touched: on error nothing changed.
// Showing the window that is already on top of its layer is a no-op.
func (m *Manager) ShowWindow(path string) error {
	m.mu.Lock()
	err := m.showLocked(path)
	m.mu.Unlock()
	m.flush()
	return err
}

func (m *Manager) showLocked(path string) error {
	layerName, windowName := SplitPath(m.names.sanitize(path))
	if windowName == "" {
		return fmt.Errorf("show %q: %w: empty window name", path, ErrInvalidArgument)
	}
	w := m.windows[windowName]
	if w == nil {
		return fmt.Errorf("show %q: %w", path, ErrUnknownWindow)
	}
	target, create, err := m.resolveLayer(w, layerName)
	if err != nil {
		return fmt.Errorf("show %q: %w", path, err)
	}
	from := w.layer
	if target != nil && from == target && target.top() == w {
		return nil
	}
	if target != nil && target.busy() {
		return fmt.Errorf("show %q: layer %q: %w", path, target.id, ErrTransitionInProgress)
	}
	if from != nil && from != target && from.busy() {
		return fmt.Errorf("show %q: layer %q: %w", path, from.id, ErrTransitionInProgress)
	}
	if m.animator.Active(w.panel) {
		return fmt.Errorf("show %q: %w", path, ErrTransitionInProgress)
	}

	if target == nil {
		if target, err = m.createLayerLocked(LayerConfig{ID: create}); err != nil {
			return fmt.Errorf("show %q: %w", path, err)
		}
	}

	switch {
	case from == nil:
		target.attach(w)
	case from != target:
		from.removeWindow(w)
		target.addWindow(w)
		m.logger.Debug("window moved",
			zap.String("window", w.id), zap.String("from", from.id), zap.String("to", target.id))
	}
	target.showWindow(w)

	if from != nil && from != target {
		from.reconcile()
	}
	target.reconcile()
	m.refreshTop()
	return nil
}

// CloseWindow closes the window registered under id if it is the topmost
// window of its layer. Closing a covered or never-shown window is a no-op.
func (m *Manager) CloseWindow(id string) error {
	m.mu.Lock()
	err := m.closeLocked(id)
	m.mu.Unlock()
	m.flush()
	return err
}

func (m *Manager) closeLocked(id string) error {
	w := m.windows[m.names.sanitize(id)]
	if w == nil {
		return fmt.Errorf("close %q: %w", id, ErrUnknownWindow)
	}
	l := w.layer
	if l == nil || l.top() != w {
		return nil
	}
	if l.busy() {
		return fmt.Errorf("close %q: layer %q: %w", id, l.id, ErrTransitionInProgress)
	}
	l.closeWindow(w)
	l.reconcile()
	m.refreshTop()
	return nil
}

// Back pops the top of the last activated window's layer. It is a no-op when
// nothing was activated yet.
func (m *Manager) Back() error {
	m.mu.Lock()
	err := m.backLocked()
	m.mu.Unlock()
	m.flush()
	return err
}

func (m *Manager) backLocked() error {
	w := m.lastActivated
	if w == nil || w.layer == nil || len(w.layer.stack) == 0 {
		return nil
	}
	l := w.layer
	if l.busy() {
		return fmt.Errorf("back: layer %q: %w", l.id, ErrTransitionInProgress)
	}
	l.back()
	m.playCue(CueCancel)
	l.reconcile()
	m.refreshTop()
	return nil
}

// HideAll empties every stack and snaps every registered window hidden
// without firing lifecycle events. Windows keep their layers.
func (m *Manager) HideAll() error {
	m.mu.Lock()
	err := m.hideAllLocked()
	m.mu.Unlock()
	m.flush()
	return err
}

func (m *Manager) hideAllLocked() error {
	if m.animator.Len() > 0 {
		return fmt.Errorf("hide all: %w", ErrTransitionInProgress)
	}
	for _, l := range m.ordered {
		for i := range l.stack {
			l.stack[i] = nil
		}
		l.stack = l.stack[:0]
		l.active = nil
	}
	for _, w := range m.windows {
		w.panel.Snap(w.transition(m.defaultTransition), Hide)
	}
	m.lastActivated = nil
	m.refreshTop()
	return nil
}

// Update advances all running transitions by dt seconds and dispatches the
// lifecycle events they produce. Call it once per tick.
func (m *Manager) Update(dt float64) {
	m.mu.Lock()
	m.animator.Update(dt)
	m.mu.Unlock()
	m.flush()
}

// refreshTop recomputes the topmost window across layers, moves deniers and
// repairs the last-activated pointer after pops.
func (m *Manager) refreshTop() {
	var top *Window
	for i := len(m.ordered) - 1; i >= 0; i-- {
		if t := m.ordered[i].top(); t != nil {
			top = t
			break
		}
	}
	if la := m.lastActivated; la != nil && (la.layer == nil || !la.layer.contains(la)) {
		m.lastActivated = top
	}
	if top == m.top {
		return
	}
	prev := m.top
	m.top = top
	m.deniers.Place(top, prev)
	m.emit(top, EventTopChanged)
}

// --- Dispatch ---

// emit queues the handlers for a lifecycle event. w is nil only for
// EventTopChanged with empty stacks.
func (m *Manager) emit(w *Window, t WindowEventType) {
	var ev *Event[*Window]
	var ws WindowEvent
	ws.Type = t
	if w != nil {
		ws.WindowID = w.id
		if w.layer != nil {
			ws.LayerID = w.layer.id
		}
		switch t {
		case EventWillActivate:
			ev = &w.OnWillActivate
		case EventActivated:
			ev = &w.OnActivated
		case EventWillDeactivate:
			ev = &w.OnWillDeactivate
		case EventDeactivated:
			ev = &w.OnDeactivated
		}
	}
	if t == EventTopChanged {
		ev = &m.OnTopWindowChanged
	}
	sink := m.sink
	m.queue = append(m.queue, func() {
		if ev != nil {
			ev.Invoke(w)
		}
		if sink != nil {
			sink.EmitWindowEvent(ws)
		}
	})
}

// PlayCue plays c through the configured SoundPlayer. The manager plays the
// show, hide and cancel cues itself; content code uses PlayCue for CueSubmit
// when a control confirms an action.
func (m *Manager) PlayCue(c SoundCue) {
	m.mu.Lock()
	m.playCue(c)
	m.mu.Unlock()
	m.flush()
}

func (m *Manager) playCue(c SoundCue) {
	if m.sounds == nil {
		return
	}
	sounds := m.sounds
	m.queue = append(m.queue, func() { sounds.PlayCue(c) })
}

func (m *Manager) focus(w *Window) {
	if m.focuser == nil || m.controllerPresent == nil {
		return
	}
	focuser, present := m.focuser, m.controllerPresent
	m.queue = append(m.queue, func() {
		if present() {
			focuser.Focus(w)
		}
	})
}

// flush runs queued handlers outside the lock. Nested calls from handlers
// return immediately; the outermost flush drains everything in FIFO order.
func (m *Manager) flush() {
	m.mu.Lock()
	if m.dispatching {
		m.mu.Unlock()
		return
	}
	m.dispatching = true
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		m.mu.Unlock()
		m.runHandler(fn)
		m.mu.Lock()
	}
	m.queue = nil
	m.dispatching = false
	m.mu.Unlock()
}

func (m *Manager) runHandler(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("window event handler panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

func isDuplicate(err error) bool {
	return err != nil && errors.Is(err, ErrDuplicateRegistration)
}
