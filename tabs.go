package canopy

import (
	"fmt"
	"sync"
)

// Tabs drives a group of panels where exactly one page is selected. Update
// steps the selected page toward shown and every other page toward hidden, so
// switching quickly between pages cross-fades without waiting for a running
// transition to finish.
type Tabs struct {
	mu      sync.Mutex
	spec    *TransitionSpec
	pages   []*Panel
	current int

	// OnTabSelected fires after the selection changed, with the new index.
	// Handlers run on the caller's goroutine without the tabs lock held.
	OnTabSelected Event[int]
}

// NewTabs creates a tab group over pages. Page 0 is shown and the others are
// hidden immediately. A nil spec means DefaultTransition().
func NewTabs(spec *TransitionSpec, pages ...*Panel) (*Tabs, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("new tabs: %w: no pages", ErrInvalidArgument)
	}
	for i, p := range pages {
		if p == nil {
			return nil, fmt.Errorf("new tabs: page %d: %w", i, ErrMisconfiguredPanel)
		}
	}
	if spec == nil {
		spec = DefaultTransition()
	}
	t := &Tabs{spec: spec, pages: append([]*Panel(nil), pages...)}
	for i, p := range t.pages {
		if i == 0 {
			p.Snap(spec, Show)
		} else {
			p.Snap(spec, Hide)
		}
	}
	return t, nil
}

// Current returns the selected page index.
func (t *Tabs) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Len returns the number of pages.
func (t *Tabs) Len() int { return len(t.pages) }

// Page returns the panel at index i.
func (t *Tabs) Page(i int) *Panel { return t.pages[i] }

// ShowTab selects page i. Selecting the current page is a no-op.
func (t *Tabs) ShowTab(i int) error {
	t.mu.Lock()
	if i < 0 || i >= len(t.pages) {
		t.mu.Unlock()
		return fmt.Errorf("show tab %d: %w: %d pages", i, ErrInvalidArgument, len(t.pages))
	}
	if i == t.current {
		t.mu.Unlock()
		return nil
	}
	t.current = i
	t.mu.Unlock()
	t.OnTabSelected.Invoke(i)
	return nil
}

// Next selects the following page, wrapping to the first.
func (t *Tabs) Next() error {
	return t.ShowTab((t.Current() + 1) % len(t.pages))
}

// Previous selects the preceding page, wrapping to the last.
func (t *Tabs) Previous() error {
	n := len(t.pages)
	return t.ShowTab((t.Current() + n - 1) % n)
}

// Update advances every page by dt seconds toward its target state.
func (t *Tabs) Update(dt float64) {
	if dt <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, p := range t.pages {
		delta := -dt
		if i == t.current {
			delta = dt
		}
		// Step only fails on a zero delta.
		_ = p.Step(t.spec, delta)
	}
}
