// Package messaging defines the events the inventory publishes and the publisher abstraction.
package messaging

import (
	"context"
)

// Stream and subjects used for inventory events.
const (
	InventoryStream     = "INVENTORY"
	InventorySubjects   = "inventory.>"
	StockChangedSubject = "inventory.stock.changed"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

// Deduplicated is implemented by events carrying a stable id.
// Publishing the same id twice within the stream's duplicate window stores the event once.
type Deduplicated interface {
	MessageID() string
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards every event. It is used when messaging is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error {
	return nil
}
