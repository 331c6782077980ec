package canopy

import "errors"

// Errors returned by Manager, Animator and Panel operations. They are wrapped
// with call-specific context; match them with errors.Is.
var (
	// ErrUnknownWindow is returned when an id is not in the window registry.
	ErrUnknownWindow = errors.New("canopy: unknown window")
	// ErrUnknownLayer is returned when an explicit layer id is not registered
	// and missing layers may not be created.
	ErrUnknownLayer = errors.New("canopy: unknown layer")
	// ErrUnresolvableLayer is returned when a window has no explicit, current,
	// preferred or default layer to go to.
	ErrUnresolvableLayer = errors.New("canopy: unable to resolve layer")
	// ErrDuplicateRegistration reports that a registration replaced a different
	// window bound to the same id. The new registration still takes effect.
	ErrDuplicateRegistration = errors.New("canopy: window id registered twice")
	// ErrInvalidArgument is returned for nil windows, empty ids and similar
	// caller mistakes.
	ErrInvalidArgument = errors.New("canopy: invalid argument")
	// ErrMisconfiguredPanel is returned when a panel has no visual surface.
	ErrMisconfiguredPanel = errors.New("canopy: panel has no surface")
	// ErrTransitionInProgress is returned when a request would start a
	// transition on a panel or layer that is still animating. The request is
	// dropped; callers may retry after the running transition finishes.
	ErrTransitionInProgress = errors.New("canopy: transition in progress")
)
