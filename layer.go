package canopy

import "go.uber.org/zap"

// Layer is an ordered z-group of windows with its own window stack. The last
// element of the stack is the topmost window: the only one that receives
// input focus and the target of close and back requests.
//
// A stacked layer shows at most one window at a time; the window below the
// top is hidden when it loses the top. A non-stacked layer leaves covered
// windows visible and only moves focus.
//
// Layers are created and mutated by their Manager. The exported methods are
// read-only views guarded by the manager's lock; they are safe to call from
// any goroutine, including event handlers.
type Layer struct {
	id      string
	order   int
	stacked bool

	stack []*Window
	node  *Node

	m        *Manager
	active   *Window // window this layer last activated
	inflight int     // transitions started by this layer and not yet finished
}

func newLayer(m *Manager, id string, order int, stacked bool) *Layer {
	n := NewNode("layer-" + id)
	n.ZIndex = order
	return &Layer{id: id, order: order, stacked: stacked, node: n, m: m}
}

// ID returns the layer's id.
func (l *Layer) ID() string { return l.id }

// Order returns the layer's paint priority; higher orders draw on top.
func (l *Layer) Order() int { return l.order }

// Stacked reports whether the layer shows only its top window.
func (l *Layer) Stacked() bool { return l.stacked }

// Node returns the container node window panels are parented to.
func (l *Layer) Node() *Node { return l.node }

// Top returns the topmost window, or nil when the stack is empty.
func (l *Layer) Top() *Window {
	l.m.mu.RLock()
	defer l.m.mu.RUnlock()
	return l.top()
}

// Windows returns a copy of the stack, bottom first.
func (l *Layer) Windows() []*Window {
	l.m.mu.RLock()
	defer l.m.mu.RUnlock()
	out := make([]*Window, len(l.stack))
	copy(out, l.stack)
	return out
}

// Len returns the stack size.
func (l *Layer) Len() int {
	l.m.mu.RLock()
	defer l.m.mu.RUnlock()
	return len(l.stack)
}

// Contains reports whether w is in the stack.
func (l *Layer) Contains(w *Window) bool {
	l.m.mu.RLock()
	defer l.m.mu.RUnlock()
	return l.contains(w)
}

// Busy reports whether a transition started by this layer is still running.
func (l *Layer) Busy() bool {
	l.m.mu.RLock()
	defer l.m.mu.RUnlock()
	return l.busy()
}

// The unexported views below assume the caller holds the manager lock.

func (l *Layer) top() *Window {
	if len(l.stack) == 0 {
		return nil
	}
	return l.stack[len(l.stack)-1]
}

func (l *Layer) contains(w *Window) bool { return l.indexOf(w) >= 0 }

func (l *Layer) busy() bool { return l.inflight > 0 }

func (l *Layer) indexOf(w *Window) int {
	for i, sw := range l.stack {
		if sw == w {
			return i
		}
	}
	return -1
}

// --- Stack algorithm (caller holds the manager lock) ---

// showWindow brings w to the top. Already topmost is a no-op; a window deeper
// in the stack is relocated; an absent window is pushed.
func (l *Layer) showWindow(w *Window) {
	if n := len(l.stack); n > 0 {
		// The top check must come first: the scan below skips the top slot.
		if l.stack[n-1] == w {
			return
		}
		for i := 0; i < n-1; i++ {
			if l.stack[i] == w {
				copy(l.stack[i:], l.stack[i+1:])
				l.stack[n-1] = w
				return
			}
		}
	}
	l.addWindow(w)
}

// closeWindow pops w if it is the topmost window. A covered window is already
// hidden from the user, so closing it is a no-op.
func (l *Layer) closeWindow(w *Window) bool {
	if l.top() != w || w == nil {
		return false
	}
	l.pop()
	return true
}

// back pops the topmost window.
func (l *Layer) back() *Window {
	return l.pop()
}

func (l *Layer) pop() *Window {
	n := len(l.stack)
	if n == 0 {
		return nil
	}
	w := l.stack[n-1]
	l.stack[n-1] = nil
	l.stack = l.stack[:n-1]
	return w
}

// addWindow pushes w onto the stack unless it is already a member, and
// attaches it to this layer.
func (l *Layer) addWindow(w *Window) {
	if l.contains(w) {
		return
	}
	l.stack = append(l.stack, w)
	l.attach(w)
}

// removeWindow drops w from the stack. The window keeps its layer pointer
// until another layer attaches it.
func (l *Layer) removeWindow(w *Window) {
	i := l.indexOf(w)
	if i < 0 {
		return
	}
	copy(l.stack[i:], l.stack[i+1:])
	l.stack[len(l.stack)-1] = nil
	l.stack = l.stack[:len(l.stack)-1]
}

// attach makes l the window's current layer and parents its node to the
// layer container.
func (l *Layer) attach(w *Window) {
	w.layer = l
	if n := w.Node(); n != nil && n.Parent != l.node {
		l.node.AddChild(n)
	}
}

// reconcile compares the stack top with the window this layer last
// activated and runs the deactivation and activation that bring the visuals
// in line with the stack.
func (l *Layer) reconcile() {
	top := l.top()
	if top == l.active {
		return
	}
	prev := l.active
	l.active = top

	// A window that moved to another layer is activated there instead.
	if prev != nil && prev.layer == l {
		l.deactivate(prev, l.stacked || !l.contains(prev))
	}
	if top != nil {
		l.activate(top)
	}
}

func (l *Layer) activate(w *Window) {
	m := l.m
	if n := w.Node(); n != nil && n.Parent == l.node {
		l.node.BringToFront(n)
	}
	m.lastActivated = w
	m.emit(w, EventWillActivate)
	if !w.panel.Shown() {
		m.playCue(CueShow)
	}

	l.inflight++
	spec := w.transition(m.defaultTransition)
	m.logger.Debug("window activating",
		zap.String("window", w.id), zap.String("layer", l.id), zap.Stringer("kind", spec.Kind))
	_, err := m.animator.Start(w.panel, spec, Show, func() {
		l.inflight--
		m.emit(w, EventActivated)
		m.focus(w)
	})
	if err != nil {
		l.inflight--
		m.logger.Warn("show transition rejected", zap.String("window", w.id), zap.Error(err))
	}
}

func (l *Layer) deactivate(w *Window, hide bool) {
	m := l.m
	m.emit(w, EventWillDeactivate)
	if !hide {
		m.emit(w, EventDeactivated)
		return
	}
	if !w.panel.Hidden() {
		m.playCue(CueHide)
	}

	l.inflight++
	spec := w.transition(m.defaultTransition)
	m.logger.Debug("window deactivating",
		zap.String("window", w.id), zap.String("layer", l.id), zap.Stringer("kind", spec.Kind))
	_, err := m.animator.Start(w.panel, spec, Hide, func() {
		l.inflight--
		m.emit(w, EventDeactivated)
	})
	if err != nil {
		l.inflight--
		m.logger.Warn("hide transition rejected", zap.String("window", w.id), zap.Error(err))
	}
}
