// Package canopy is a window and layer manager for [Ebitengine] UIs.
//
// Canopy keeps a registry of named windows, groups them into ordered layers
// with their own window stacks, and animates every show and hide through a
// small transition engine (slides, fades, popups and externally driven
// animations).
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	m, _ := canopy.NewManager(canopy.Config{DefaultLayer: "main"})
//	inv, _ := canopy.NewNodeWindow("inventory", canopy.NewRect("inventory", 300, 200, canopy.ColorWhite))
//	m.RegisterWindow(inv, "inventory")
//	m.ShowWindow("inventory")
//	canopy.Run(m, canopy.RunConfig{
//		Title: "My Game", Width: 640, Height: 480,
//	})
//
// For full control, implement [ebiten.Game] yourself and call
// [Manager.Update] and [Draw] directly:
//
//	type Game struct{ m *canopy.Manager }
//
//	func (g *Game) Update() error         { g.m.Update(1.0 / 60); return nil }
//	func (g *Game) Draw(s *ebiten.Image)  { canopy.Draw(s, g.m.Root()) }
//	func (g *Game) Layout(w, h int) (int, int) { return w, h }
//
// # Layers and stacks
//
// Each [Layer] has an integer order; higher orders paint on top. The last
// window of a layer's stack is its topmost window. In a stacked layer only the
// top window is visible; in a non-stacked layer covered windows stay visible
// but lose focus. [Manager.ShowWindow] accepts "window" or "layer/window"
// paths; a window shown on a new layer leaves its old one.
//
// # Transitions
//
// A [Panel] owns a progress value in [0, 1]. The [Animator] drives it toward
// shown or hidden at a constant rate and a [TransitionSpec] maps the eased
// progress onto the surface. Requests that would start a second transition on
// a busy panel or layer fail with [ErrTransitionInProgress].
//
// # Events
//
// Windows expose OnWillActivate, OnActivated, OnWillDeactivate and
// OnDeactivated; the manager exposes OnTopWindowChanged. Handlers run after
// the manager releases its lock, so they may call back into it. The
// canopy/ecs module forwards the same events into a Donburi world; it is a
// separate module so the core library does not depend on Donburi.
//
// [Ebitengine]: https://ebitengine.org
package canopy
