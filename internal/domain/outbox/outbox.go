package outbox

import "context"

// Event is anything published on the in-process bus, keyed by its name.
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus is both ends of the in-process event channel.
type Bus interface {
	Publisher
	Subscriber
}
