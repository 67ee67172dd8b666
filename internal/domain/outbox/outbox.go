// Package outbox defines how domain events leave a use case: publishers
// enqueue, subscribers register handlers by event name.
package outbox

import "context"

// Event is anything published on the bus, keyed by EventName
// (e.g. "assignment.recorded").
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

// Middleware decorates a Handler; used for per-delivery logging context.
type Middleware func(Handler) Handler

// Chain applies mw to h with the first middleware outermost.
func Chain(h Handler, mw ...Middleware) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

type Publisher interface {
	// Publish must not block past ctx; delivery happens asynchronously.
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
