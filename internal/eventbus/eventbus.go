// Package eventbus fans out dispatch events to in-process subscribers such
// as the service event logger.
package eventbus

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// EventBus is implemented by Bus.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is an untyped TypedBus.
type Bus struct {
	*TypedBus[Event]
}

// New creates a new Bus.
func New(opts ...Option) *Bus { return &Bus{TypedBus: NewTyped[Event](opts...)} }
