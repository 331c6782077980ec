package canopy

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
)

var instantSpec = &TransitionSpec{Kind: TransitionNone}

func fadeSpec(d float64) *TransitionSpec {
	return &TransitionSpec{Kind: TransitionFade, Duration: d, Easing: linear}
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func addWindow(t *testing.T, m *Manager, id, layer string, spec *TransitionSpec) *Window {
	t.Helper()
	w, err := NewNodeWindow(id, NewRect(id, 10, 10, ColorWhite))
	if err != nil {
		t.Fatal(err)
	}
	w.PreferredLayer = layer
	w.Transition = spec
	if err := m.RegisterWindow(w, id); err != nil {
		t.Fatalf("RegisterWindow(%q): %v", id, err)
	}
	return w
}

func addInstantWindow(t *testing.T, m *Manager, id, layer string) *Window {
	t.Helper()
	return addWindow(t, m, id, layer, instantSpec)
}

func mustShow(t *testing.T, m *Manager, path string) {
	t.Helper()
	if err := m.ShowWindow(path); err != nil {
		t.Fatalf("ShowWindow(%q): %v", path, err)
	}
}

// settle advances the manager until no transition is running.
func settle(m *Manager) {
	for i := 0; i < 1000 && m.Busy(); i++ {
		m.Update(0.05)
	}
}

func stackIDs(l *Layer) []string {
	var ids []string
	for _, w := range l.Windows() {
		ids = append(ids, w.ID())
	}
	return ids
}

func assertStack(t *testing.T, l *Layer, want ...string) {
	t.Helper()
	got := stackIDs(l)
	if fmt.Sprint(got) != fmt.Sprint(want) && !(len(got) == 0 && len(want) == 0) {
		t.Errorf("layer %q stack = %v, want %v", l.ID(), got, want)
	}
}

// eventLog records lifecycle events as "window:event" strings.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(s string) {
	l.mu.Lock()
	l.events = append(l.events, s)
	l.mu.Unlock()
}

func (l *eventLog) watch(w *Window) {
	w.OnWillActivate.Subscribe(func(w *Window) { l.add(w.ID() + ":willActivate") })
	w.OnActivated.Subscribe(func(w *Window) { l.add(w.ID() + ":activated") })
	w.OnWillDeactivate.Subscribe(func(w *Window) { l.add(w.ID() + ":willDeactivate") })
	w.OnDeactivated.Subscribe(func(w *Window) { l.add(w.ID() + ":deactivated") })
}

func (l *eventLog) watchTop(m *Manager) {
	m.OnTopWindowChanged.Subscribe(func(w *Window) {
		if w == nil {
			l.add("top:nil")
			return
		}
		l.add("top:" + w.ID())
	})
}

func (l *eventLog) count(s string) int {
	n := 0
	for _, e := range l.events {
		if e == s {
			n++
		}
	}
	return n
}

func (l *eventLog) String() string { return fmt.Sprint(l.events) }

type cueLog struct{ cues []SoundCue }

func (c *cueLog) PlayCue(cue SoundCue) { c.cues = append(c.cues, cue) }

type focusLog struct{ windows []*Window }

func (f *focusLog) Focus(w *Window) { f.windows = append(f.windows, w) }

type sinkLog struct{ events []WindowEvent }

func (s *sinkLog) EmitWindowEvent(e WindowEvent) { s.events = append(s.events, e) }

// --- Scenarios ---

func TestShowAttachesToDefaultLayer(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	w := addWindow(t, m, "main", "", fadeSpec(0.2))
	var log eventLog
	log.watch(w)

	mustShow(t, m, "main")

	if w.Layer() == nil || w.Layer().ID() != "ui" {
		t.Fatalf("layer = %v, want ui", w.Layer())
	}
	assertStack(t, m.GetLayer("ui"), "main")
	if fmt.Sprint(log.events) != "[main:willActivate]" {
		t.Errorf("events before transition = %v", log.events)
	}

	settle(m)
	if fmt.Sprint(log.events) != "[main:willActivate main:activated]" {
		t.Errorf("events = %v", log.events)
	}
	if w.Panel().Progress() != 1 {
		t.Errorf("progress = %v, want 1", w.Panel().Progress())
	}
}

func TestStackedLayerHidesCoveredWindow(t *testing.T) {
	m := newTestManager(t, Config{Layers: []LayerConfig{{ID: "ui", Stacked: true}}, DefaultLayer: "ui"})
	a := addWindow(t, m, "a", "", fadeSpec(0.5))
	b := addWindow(t, m, "b", "", fadeSpec(0.5))
	var log eventLog
	log.watch(a)
	log.watch(b)

	mustShow(t, m, "a")
	settle(m)
	mustShow(t, m, "b")
	settle(m)

	assertStack(t, m.GetLayer("ui"), "a", "b")
	if log.count("a:deactivated") != 1 {
		t.Errorf("a deactivated %d times, want 1: %v", log.count("a:deactivated"), &log)
	}
	if log.count("b:activated") != 1 {
		t.Errorf("b activated %d times, want 1: %v", log.count("b:activated"), &log)
	}
	if !a.Panel().Hidden() || a.Node().Visible {
		t.Error("covered window on a stacked layer should be hidden")
	}
	if !b.Panel().Shown() {
		t.Error("top window should be shown")
	}
}

func TestNonStackedLayerKeepsCoveredWindowVisible(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	a := addInstantWindow(t, m, "a", "")
	addInstantWindow(t, m, "b", "")
	var log eventLog
	log.watch(a)

	mustShow(t, m, "a")
	mustShow(t, m, "b")

	if fmt.Sprint(log.events) != "[a:willActivate a:activated a:willDeactivate a:deactivated]" {
		t.Errorf("events = %v", log.events)
	}
	if !a.Panel().Shown() || !a.Node().Visible {
		t.Error("covered window on a non-stacked layer should stay visible")
	}
}

func TestShowMovesWindowBetweenLayers(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui", CreateMissingLayers: true})
	a := addInstantWindow(t, m, "a", "")

	mustShow(t, m, "ui/a")
	mustShow(t, m, "modal/a")

	assertStack(t, m.GetLayer("ui"))
	assertStack(t, m.GetLayer("modal"), "a")
	if a.Layer() != m.GetLayer("modal") {
		t.Errorf("a.Layer() = %v, want modal", a.Layer())
	}
	if a.Node().Parent != m.GetLayer("modal").Node() {
		t.Error("window node should move to the new layer container")
	}
	if !a.Panel().Shown() {
		t.Error("moved window should be shown")
	}
}

func TestCloseOnlyTopmost(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	addInstantWindow(t, m, "a", "")
	addInstantWindow(t, m, "b", "")
	mustShow(t, m, "a")
	mustShow(t, m, "b")
	l := m.GetLayer("ui")

	if err := m.CloseWindow("a"); err != nil {
		t.Fatal(err)
	}
	assertStack(t, l, "a", "b")

	if err := m.CloseWindow("b"); err != nil {
		t.Fatal(err)
	}
	assertStack(t, l, "a")
	if m.TopWindow() != m.GetWindow("a") {
		t.Errorf("top = %v, want a", m.TopWindow())
	}
}

func TestShowUnknownWindowChangesNothing(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui", CreateMissingLayers: true})
	addInstantWindow(t, m, "a", "")
	mustShow(t, m, "a")

	before := snapshot(m)
	for _, path := range []string{"missing", "ui/missing", "newlayer/missing"} {
		err := m.ShowWindow(path)
		if !errors.Is(err, ErrUnknownWindow) {
			t.Errorf("ShowWindow(%q) = %v, want ErrUnknownWindow", path, err)
		}
	}
	if after := snapshot(m); after != before {
		t.Errorf("state changed:\nbefore %s\nafter  %s", before, after)
	}
	if m.LayerExists("newlayer") {
		t.Error("failed show must not create layers")
	}
}

func snapshot(m *Manager) string {
	s := ""
	for _, l := range m.Layers() {
		s += fmt.Sprintf("%s%v ", l.ID(), stackIDs(l))
	}
	m.mu.RLock()
	s += fmt.Sprintf("windows=%d top=%v last=%v", len(m.windows), m.top, m.lastActivated)
	m.mu.RUnlock()
	return s
}

// --- Stack semantics ---

func TestShowIsIdempotent(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	a := addInstantWindow(t, m, "a", "")
	var log eventLog
	log.watch(a)
	log.watchTop(m)

	mustShow(t, m, "a")
	n := len(log.events)
	mustShow(t, m, "a")
	mustShow(t, m, "ui/a")

	assertStack(t, m.GetLayer("ui"), "a")
	if len(log.events) != n {
		t.Errorf("repeated show fired events: %v", &log)
	}
}

func TestShowIsIdempotentWhileAnimating(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	addWindow(t, m, "a", "", fadeSpec(1))
	mustShow(t, m, "a")
	if err := m.ShowWindow("a"); err != nil {
		t.Errorf("showing the top window mid-transition should be a no-op, got %v", err)
	}
}

func TestShowRelocatesCoveredWindow(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	for _, id := range []string{"a", "b", "c"} {
		addInstantWindow(t, m, id, "")
		mustShow(t, m, id)
	}
	mustShow(t, m, "a")
	assertStack(t, m.GetLayer("ui"), "b", "c", "a")
	if m.TopWindow().ID() != "a" {
		t.Errorf("top = %v, want a", m.TopWindow())
	}
}

func TestWindowInAtMostOneStack(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui", CreateMissingLayers: true})
	addInstantWindow(t, m, "a", "")
	addInstantWindow(t, m, "b", "")
	for _, path := range []string{"a", "b", "x/a", "y/b", "ui/a", "x/b", "a", "y/a"} {
		mustShow(t, m, path)
		seen := map[string]int{}
		for _, l := range m.Layers() {
			for _, id := range stackIDs(l) {
				seen[id]++
			}
		}
		for id, n := range seen {
			if n > 1 {
				t.Fatalf("after %q window %q is on %d stacks", path, id, n)
			}
		}
	}
}

func TestTopWindowAcrossLayers(t *testing.T) {
	m := newTestManager(t, Config{
		DefaultLayer: "main",
		Layers:       []LayerConfig{{ID: "overlay", Order: 10}},
	})
	addInstantWindow(t, m, "game", "")
	addInstantWindow(t, m, "pause", "overlay")
	var log eventLog
	log.watchTop(m)

	mustShow(t, m, "pause")
	mustShow(t, m, "game")
	if m.TopWindow().ID() != "pause" {
		t.Errorf("top = %v, want pause (higher order)", m.TopWindow())
	}
	if fmt.Sprint(log.events) != "[top:pause]" {
		t.Errorf("top events = %v", log.events)
	}

	if err := m.CloseWindow("pause"); err != nil {
		t.Fatal(err)
	}
	if m.TopWindow().ID() != "game" {
		t.Errorf("top = %v, want game", m.TopWindow())
	}
	if m.LastActivated() != m.GetWindow("game") {
		t.Errorf("last activated = %v, want game after pause closed", m.LastActivated())
	}
}

func TestLayersSortedByOrder(t *testing.T) {
	m := newTestManager(t, Config{Layers: []LayerConfig{
		{ID: "c", Order: 5}, {ID: "a", Order: -1}, {ID: "b", Order: 5}, {ID: "d", Order: 0},
	}})
	var ids []string
	for _, l := range m.Layers() {
		ids = append(ids, l.ID())
	}
	if fmt.Sprint(ids) != "[a d c b]" {
		t.Errorf("layers = %v, want [a d c b]", ids)
	}
}

func TestCreateLayerExisting(t *testing.T) {
	m := newTestManager(t, Config{})
	l1, err := m.CreateLayer(LayerConfig{ID: "ui", Order: 3, Stacked: true})
	if err != nil {
		t.Fatal(err)
	}
	l2, _ := m.CreateLayer(LayerConfig{ID: "ui", Order: 9})
	if l1 != l2 || l2.Order() != 3 || !l2.Stacked() {
		t.Error("CreateLayer should return the existing layer unchanged")
	}
	if _, err := m.CreateLayer(LayerConfig{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty id: err = %v", err)
	}
	if _, err := m.CreateLayer(LayerConfig{ID: "ui/hud"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("path separator: err = %v", err)
	}
	if m.LayerExists("ui/hud") {
		t.Error("layer with a path separator should not be created")
	}
}

// --- Layer resolution ---

func TestExplicitUnknownLayer(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	addInstantWindow(t, m, "a", "")
	err := m.ShowWindow("nope/a")
	if !errors.Is(err, ErrUnknownLayer) {
		t.Errorf("err = %v, want ErrUnknownLayer", err)
	}
	if m.GetWindow("a").Layer() != nil {
		t.Error("failed show must not attach the window")
	}
}

func TestPreferredLayer(t *testing.T) {
	t.Run("existing", func(t *testing.T) {
		m := newTestManager(t, Config{DefaultLayer: "ui", Layers: []LayerConfig{{ID: "hud"}}})
		w := addInstantWindow(t, m, "a", "hud")
		mustShow(t, m, "a")
		if w.Layer().ID() != "hud" {
			t.Errorf("layer = %s, want hud", w.Layer().ID())
		}
	})
	t.Run("missing falls back to default", func(t *testing.T) {
		m := newTestManager(t, Config{DefaultLayer: "ui"})
		w := addInstantWindow(t, m, "a", "hud")
		mustShow(t, m, "a")
		if w.Layer().ID() != "ui" {
			t.Errorf("layer = %s, want ui", w.Layer().ID())
		}
	})
	t.Run("missing is created", func(t *testing.T) {
		m := newTestManager(t, Config{DefaultLayer: "ui", CreateMissingLayers: true})
		w := addInstantWindow(t, m, "a", "hud")
		mustShow(t, m, "a")
		if w.Layer().ID() != "hud" {
			t.Errorf("layer = %s, want hud", w.Layer().ID())
		}
	})
	t.Run("current layer wins", func(t *testing.T) {
		m := newTestManager(t, Config{DefaultLayer: "ui", CreateMissingLayers: true})
		w := addInstantWindow(t, m, "a", "hud")
		mustShow(t, m, "modal/a")
		_ = m.CloseWindow("a")
		mustShow(t, m, "a")
		if w.Layer().ID() != "modal" {
			t.Errorf("layer = %s, want modal", w.Layer().ID())
		}
	})
}

func TestUnresolvableLayer(t *testing.T) {
	m := newTestManager(t, Config{})
	addInstantWindow(t, m, "a", "")
	before := snapshot(m)
	if err := m.ShowWindow("a"); !errors.Is(err, ErrUnresolvableLayer) {
		t.Errorf("err = %v, want ErrUnresolvableLayer", err)
	}
	if after := snapshot(m); after != before {
		t.Errorf("state changed:\nbefore %s\nafter  %s", before, after)
	}
	if m.GetWindow("a").Layer() != nil {
		t.Error("window should stay unattached")
	}
}

func TestNamePolicyLowercase(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "UI", NamePolicy: NameLowercase})
	w, _ := NewNodeWindow("Main", NewNode("main"))
	w.Transition = instantSpec
	if err := m.RegisterWindow(w, "MAIN"); err != nil {
		t.Fatal(err)
	}
	mustShow(t, m, "Ui/mAiN")
	if m.GetWindow("main") != w || m.GetLayer("ui") == nil {
		t.Error("lookups should fold case")
	}
	assertStack(t, m.GetLayer("ui"), "Main")
}

func TestNamePolicyExact(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	addInstantWindow(t, m, "Main", "")
	if err := m.ShowWindow("main"); !errors.Is(err, ErrUnknownWindow) {
		t.Errorf("err = %v, want ErrUnknownWindow", err)
	}
}

// --- Registration ---

func TestRegisterDuplicate(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	first := addInstantWindow(t, m, "a", "")
	second, _ := NewNodeWindow("a", NewNode("a2"))

	err := m.RegisterWindow(second, "a")
	if !errors.Is(err, ErrDuplicateRegistration) {
		t.Errorf("err = %v, want ErrDuplicateRegistration", err)
	}
	if m.GetWindow("a") != second {
		t.Error("the new registration should win")
	}
	if err := m.RegisterWindow(second, "a"); err != nil {
		t.Errorf("re-registering the same window: %v", err)
	}
	_ = first
}

func TestRegisterInvalid(t *testing.T) {
	m := newTestManager(t, Config{})
	w, _ := NewNodeWindow("a", NewNode("a"))
	other := newTestManager(t, Config{})
	owned, _ := NewNodeWindow("b", NewNode("b"))
	_ = other.RegisterWindow(owned, "b")

	tests := []struct {
		name string
		w    *Window
		id   string
	}{
		{"nil window", nil, "a"},
		{"empty id", w, ""},
		{"id mismatch", w, "z"},
		{"other manager", owned, "b"},
		{"path separator", &Window{id: "a/b", panel: w.Panel()}, "a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.RegisterWindow(tt.w, tt.id); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestRegisterSnapsHidden(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	n := NewRect("a", 10, 10, ColorWhite)
	w, _ := NewNodeWindow("a", n)
	_ = m.RegisterWindow(w, "a")
	if !w.Panel().Hidden() || n.Visible {
		t.Error("registered window should start hidden")
	}
}

func TestConfigWindowsAttachHidden(t *testing.T) {
	w, _ := NewNodeWindow("a", NewNode("a"))
	w.PreferredLayer = "hud"
	m := newTestManager(t, Config{
		DefaultLayer: "ui",
		Layers:       []LayerConfig{{ID: "hud", Order: 1}},
		Windows:      []*Window{w},
	})
	if w.Layer() != m.GetLayer("hud") {
		t.Errorf("layer = %v, want hud", w.Layer())
	}
	assertStack(t, m.GetLayer("hud"))
	if !w.Panel().Hidden() {
		t.Error("configured window should start hidden")
	}
}

func TestWindowShowCloseUnregistered(t *testing.T) {
	w, _ := NewNodeWindow("a", NewNode("a"))
	if err := w.Show(); !errors.Is(err, ErrUnknownWindow) {
		t.Errorf("Show: %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrUnknownWindow) {
		t.Errorf("Close: %v", err)
	}
}

func TestNewWindowInvalid(t *testing.T) {
	if _, err := NewWindow("", &Panel{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty id: %v", err)
	}
	if _, err := NewWindow("a", nil); !errors.Is(err, ErrMisconfiguredPanel) {
		t.Errorf("nil panel: %v", err)
	}
	if _, err := NewNodeWindow("a", nil); !errors.Is(err, ErrMisconfiguredPanel) {
		t.Errorf("nil node: %v", err)
	}
	if _, err := NewNodeWindow("ui/a", NewNode("a")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("path separator: %v", err)
	}
}

// --- Transitions in flight ---

func TestBusyLayerRejectsRequests(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	addWindow(t, m, "a", "", fadeSpec(1))
	addWindow(t, m, "b", "", fadeSpec(1))
	mustShow(t, m, "a")

	before := snapshot(m)
	if err := m.ShowWindow("b"); !errors.Is(err, ErrTransitionInProgress) {
		t.Errorf("show: err = %v, want ErrTransitionInProgress", err)
	}
	if err := m.CloseWindow("a"); !errors.Is(err, ErrTransitionInProgress) {
		t.Errorf("close: err = %v, want ErrTransitionInProgress", err)
	}
	if err := m.Back(); !errors.Is(err, ErrTransitionInProgress) {
		t.Errorf("back: err = %v, want ErrTransitionInProgress", err)
	}
	if after := snapshot(m); after != before {
		t.Errorf("rejected requests changed state:\nbefore %s\nafter  %s", before, after)
	}

	settle(m)
	mustShow(t, m, "b")
}

func TestOtherLayersStayAvailable(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui", Layers: []LayerConfig{{ID: "hud"}}})
	addWindow(t, m, "a", "", fadeSpec(1))
	addWindow(t, m, "b", "hud", fadeSpec(1))
	mustShow(t, m, "a")
	if err := m.ShowWindow("b"); err != nil {
		t.Errorf("a transition on ui must not block hud: %v", err)
	}
}

// --- Back ---

func TestBack(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui", Layers: []LayerConfig{{ID: "ui", Stacked: true}}})
	if err := m.Back(); err != nil {
		t.Errorf("Back with nothing shown: %v", err)
	}
	a := addInstantWindow(t, m, "a", "")
	addInstantWindow(t, m, "b", "")
	mustShow(t, m, "a")
	mustShow(t, m, "b")

	if err := m.Back(); err != nil {
		t.Fatal(err)
	}
	assertStack(t, m.GetLayer("ui"), "a")
	if !a.Panel().Shown() {
		t.Error("window uncovered by Back should show again on a stacked layer")
	}
	if m.LastActivated() != a {
		t.Errorf("last activated = %v, want a", m.LastActivated())
	}
	_ = m.Back()
	assertStack(t, m.GetLayer("ui"))
	if m.TopWindow() != nil || m.LastActivated() != nil {
		t.Error("empty stacks should clear top and last activated")
	}
	if err := m.Back(); err != nil {
		t.Errorf("Back on empty stack: %v", err)
	}
}

func TestBackUsesLastActivatedLayer(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "main", Layers: []LayerConfig{{ID: "overlay", Order: 10}}})
	addInstantWindow(t, m, "pause", "overlay")
	addInstantWindow(t, m, "game", "")
	mustShow(t, m, "pause")
	mustShow(t, m, "game")

	_ = m.Back()
	assertStack(t, m.GetLayer("main"))
	assertStack(t, m.GetLayer("overlay"), "pause")
}

// --- Events and collaborators ---

func TestLifecycleEventOrder(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui", Layers: []LayerConfig{{ID: "ui", Stacked: true}}})
	a := addInstantWindow(t, m, "a", "")
	b := addInstantWindow(t, m, "b", "")
	mustShow(t, m, "a")

	var log eventLog
	log.watch(a)
	log.watch(b)
	log.watchTop(m)
	mustShow(t, m, "b")

	want := "[a:willDeactivate a:deactivated b:willActivate b:activated top:b]"
	if log.String() != want {
		t.Errorf("events = %v\nwant     %s", &log, want)
	}
}

func TestHandlersMayCallManager(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	a := addInstantWindow(t, m, "a", "")
	addInstantWindow(t, m, "b", "")
	var nestedErr error
	a.OnActivated.Subscribe(func(*Window) {
		nestedErr = m.ShowWindow("b")
	})

	mustShow(t, m, "a")
	if nestedErr != nil {
		t.Fatalf("ShowWindow from handler: %v", nestedErr)
	}
	assertStack(t, m.GetLayer("ui"), "a", "b")
	if m.TopWindow().ID() != "b" {
		t.Errorf("top = %v, want b", m.TopWindow())
	}
}

func TestHandlerPanicRecovered(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	a := addInstantWindow(t, m, "a", "")
	a.OnWillActivate.Subscribe(func(*Window) { panic("boom") })
	activated := false
	a.OnActivated.Subscribe(func(*Window) { activated = true })

	mustShow(t, m, "a")
	if !activated {
		t.Error("events queued after a panicking handler should still run")
	}
	addInstantWindow(t, m, "b", "")
	mustShow(t, m, "b")
}

func TestSoundCues(t *testing.T) {
	var cues cueLog
	m := newTestManager(t, Config{
		DefaultLayer: "ui",
		Layers:       []LayerConfig{{ID: "ui", Stacked: true}},
		Sounds:       &cues,
	})
	addInstantWindow(t, m, "a", "")
	addInstantWindow(t, m, "b", "")
	mustShow(t, m, "a")
	mustShow(t, m, "b")
	cues.cues = nil

	_ = m.Back()
	want := []SoundCue{CueCancel, CueHide, CueShow}
	if fmt.Sprint(cues.cues) != fmt.Sprint(want) {
		t.Errorf("cues = %v, want %v", cues.cues, want)
	}
}

func TestPlayCueFromContent(t *testing.T) {
	var cues cueLog
	m := newTestManager(t, Config{DefaultLayer: "ui", Sounds: &cues})
	m.PlayCue(CueSubmit)
	if len(cues.cues) != 1 || cues.cues[0] != CueSubmit {
		t.Errorf("cues = %v, want [submit]", cues.cues)
	}

	silent := newTestManager(t, Config{DefaultLayer: "ui"})
	silent.PlayCue(CueSubmit)
}

func TestFocusAfterActivation(t *testing.T) {
	present := false
	var focus focusLog
	m := newTestManager(t, Config{
		DefaultLayer:      "ui",
		Focuser:           &focus,
		ControllerPresent: func() bool { return present },
	})
	a := addWindow(t, m, "a", "", fadeSpec(0.5))
	b := addInstantWindow(t, m, "b", "")

	mustShow(t, m, "a")
	present = true
	if len(focus.windows) != 0 {
		t.Fatal("focus must wait for the show transition")
	}
	settle(m)
	if len(focus.windows) != 1 || focus.windows[0] != a {
		t.Errorf("focused = %v, want [a]", focus.windows)
	}

	present = false
	mustShow(t, m, "b")
	if len(focus.windows) != 1 {
		t.Errorf("focus without a controller: %v", focus.windows)
	}
	_ = b
}

func TestEventSink(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	var sink sinkLog
	m.SetEventSink(&sink)
	addInstantWindow(t, m, "a", "")
	mustShow(t, m, "a")

	want := []WindowEvent{
		{EventWillActivate, "a", "ui"},
		{EventActivated, "a", "ui"},
		{EventTopChanged, "a", "ui"},
	}
	if fmt.Sprint(sink.events) != fmt.Sprint(want) {
		t.Errorf("sink events = %v, want %v", sink.events, want)
	}
}

func TestDenierPlacement(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui", Layers: []LayerConfig{{ID: "ui", Stacked: true}}})
	a := addInstantWindow(t, m, "a", "")
	b := addInstantWindow(t, m, "b", "")
	a.Denier = NewRect("da", 640, 480, Color{A: 0.5})
	b.Denier = NewRect("db", 640, 480, Color{A: 0.5})

	mustShow(t, m, "a")
	parent := a.Node().Parent
	if a.Denier.Parent != parent || parent.ChildIndex(a.Denier) != parent.ChildIndex(a.Node())-1 {
		t.Error("a's denier should sit directly behind a")
	}

	mustShow(t, m, "b")
	if !b.Denier.Visible || a.Denier.Visible {
		t.Errorf("denier visibility: a %v b %v", a.Denier.Visible, b.Denier.Visible)
	}
	if parent.ChildIndex(b.Denier) != parent.ChildIndex(b.Node())-1 {
		t.Error("b's denier should sit directly behind b")
	}

	_ = m.CloseWindow("b")
	if b.Denier.Visible || !a.Denier.Visible {
		t.Errorf("after close: a %v b %v", a.Denier.Visible, b.Denier.Visible)
	}
	if parent.ChildIndex(a.Denier) != parent.ChildIndex(a.Node())-1 {
		t.Error("a's denier should move back behind a")
	}
}

func TestHideAll(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui", Layers: []LayerConfig{{ID: "hud", Order: 1}}})
	a := addInstantWindow(t, m, "a", "")
	b := addInstantWindow(t, m, "b", "hud")
	mustShow(t, m, "a")
	mustShow(t, m, "b")
	var log eventLog
	log.watch(a)
	log.watchTop(m)

	if err := m.HideAll(); err != nil {
		t.Fatal(err)
	}
	assertStack(t, m.GetLayer("ui"))
	assertStack(t, m.GetLayer("hud"))
	if !a.Panel().Hidden() || !b.Panel().Hidden() {
		t.Error("all windows should be hidden")
	}
	if m.TopWindow() != nil || m.LastActivated() != nil {
		t.Error("HideAll should clear top and last activated")
	}
	if log.String() != "[top:nil]" {
		t.Errorf("events = %v", &log)
	}
	mustShow(t, m, "a")
	assertStack(t, m.GetLayer("ui"), "a")
}

// --- Concurrency ---

func TestConcurrentRequests(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui", CreateMissingLayers: true})
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		addWindow(t, m, id, "", fadeSpec(0.05))
	}
	layers := []string{"", "ui/", "hud/", "modal/"}

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				id := ids[r.Intn(len(ids))]
				switch r.Intn(5) {
				case 0, 1:
					_ = m.ShowWindow(layers[r.Intn(len(layers))] + id)
				case 2:
					_ = m.CloseWindow(id)
				case 3:
					_ = m.Back()
				case 4:
					m.Update(0.02)
				}
			}
		}(int64(g))
	}
	wg.Wait()
	settle(m)

	seen := map[string]int{}
	for _, l := range m.Layers() {
		for _, w := range l.Windows() {
			seen[w.ID()]++
			if w.Layer() != l {
				t.Errorf("window %q is on %q but reports %v", w.ID(), l.ID(), w.Layer())
			}
		}
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("window %q on %d stacks", id, n)
		}
	}
}

func TestLayerReadsDuringCrossLayerMoves(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui", CreateMissingLayers: true})
	a := addInstantWindow(t, m, "a", "")
	mustShow(t, m, "ui/a")
	mustShow(t, m, "modal/a")
	ui, modal := m.GetLayer("ui"), m.GetLayer("modal")

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			path := "ui/a"
			if i%2 == 1 {
				path = "modal/a"
			}
			_ = m.ShowWindow(path)
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			if ui.Contains(a) == modal.Contains(a) {
				t.Errorf("window a should be on exactly one layer, ui=%v modal=%v", ui.Contains(a), modal.Contains(a))
			}
			return
		default:
		}
		for _, l := range []*Layer{ui, modal} {
			ws := l.Windows()
			_ = l.Len()
			if len(ws) > 1 {
				t.Errorf("layer %q holds %d windows, want at most 1", l.ID(), len(ws))
			}
			if top := l.Top(); top != nil && top != a {
				t.Errorf("layer %q top = %v, want a or nil", l.ID(), top)
			}
			_ = l.Busy()
		}
		if l := a.Layer(); l != ui && l != modal {
			t.Errorf("a.Layer() = %v, want ui or modal", l)
		}
	}
}

func TestNodeCreationAcrossGoroutines(t *testing.T) {
	m := newTestManager(t, Config{DefaultLayer: "ui"})
	var wg sync.WaitGroup
	ids := make(chan uint32, 400)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			l, err := m.CreateLayer(LayerConfig{ID: fmt.Sprintf("l%d", i), Order: i})
			if err != nil {
				t.Errorf("CreateLayer: %v", err)
				return
			}
			ids <- l.Node().ID
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			ids <- NewRect("r", 1, 1, ColorWhite).ID
		}
	}()
	wg.Wait()
	close(ids)

	seen := map[uint32]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("node id %d handed out twice", id)
		}
		seen[id] = true
	}
}
