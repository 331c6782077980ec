package canopy

// Subscription identifies a handler registered on an Event.
type Subscription uint64

// Event is an ordered observer list. Handlers run in registration order.
// The zero value is ready to use.
//
// Event is not synchronized. Manager-owned events are only touched from
// dispatch, which runs outside the manager lock but on the caller's goroutine.
type Event[T any] struct {
	next     Subscription
	handlers []eventHandler[T]
}

type eventHandler[T any] struct {
	id Subscription
	fn func(T)
}

// Subscribe registers fn and returns a handle for Unsubscribe.
func (e *Event[T]) Subscribe(fn func(T)) Subscription {
	e.next++
	e.handlers = append(e.handlers, eventHandler[T]{id: e.next, fn: fn})
	return e.next
}

// Unsubscribe removes a handler. Unknown handles are ignored.
func (e *Event[T]) Unsubscribe(id Subscription) {
	for i, h := range e.handlers {
		if h.id == id {
			e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered handlers.
func (e *Event[T]) Len() int {
	return len(e.handlers)
}

// Invoke calls every handler with v. Handlers added or removed during Invoke
// take effect on the next call.
func (e *Event[T]) Invoke(v T) {
	hs := e.handlers
	for _, h := range hs {
		h.fn(v)
	}
}
