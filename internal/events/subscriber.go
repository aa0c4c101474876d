package events

import "time"

// Message is one delivered event.
type Message struct {
	Topic string
	Data  []byte
	// ID and PublishedAt are empty when the publisher set no headers.
	ID          string
	PublishedAt time.Time
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}
