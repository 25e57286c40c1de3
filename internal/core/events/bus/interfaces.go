package bus

import "time"

// EventBus is the in-process pub/sub channel the simulation core uses to
// announce mutations ("genes updated", "egg hatched", ...). Consumers such as
// telemetry or cosmetic systems subscribe by event type; the core never knows
// who listens.
//
// Delivery is synchronous in the publisher's goroutine, in subscription order.
// Handler errors are joined and returned from Publish. All methods are safe for
// concurrent use.
type EventBus interface {
	// Publish delivers event to every active subscriber of event.Type().
	Publish(event Event) error
	// PublishBatch publishes events in order and joins their errors.
	PublishBatch(events ...Event) error
	// Subscribe registers handler for eventType.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. Nil is ignored.
	Unsubscribe(sub Subscription) error

	// AddObserver registers an observer notified after every delivery.
	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	GetMetrics() EventBusMetrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked once per delivered event.
	EventHandler func(event Event) error
)

// Subscription is a handler bound to one event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about every delivery.
type EventBusObserver interface {
	OnDelivered(eventType string, handlers int, err error)
}

// EventBusMetrics holds counters updated on every Publish.
type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
