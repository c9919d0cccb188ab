// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package event publishes a record of every change made to the item store.
//
// Publishing is best effort. A failure to publish never fails the HTTP
// request which caused the change.
package event

import (
	"context"
	"time"

	"github.com/z5labs/items/internal/item"

	"github.com/google/uuid"
)

// Type identifies what happened to an item.
type Type string

const (
	ItemCreated Type = "item.created"
	ItemUpdated Type = "item.updated"
	ItemDeleted Type = "item.deleted"
)

// Event describes a single change to the item store.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Type       Type       `json:"type"`
	ItemID     int64      `json:"item_id"`
	Item       *item.Item `json:"item,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// New stamps a new [Event] with a random id and the current time.
// it should be nil for [ItemDeleted].
func New(t Type, id int64, it *item.Item) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		ItemID:     id,
		Item:       it,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher sends events somewhere other services can read them.
type Publisher interface {
	Publish(context.Context, Event) error

	// Healthy reports whether events can currently be delivered.
	Healthy(context.Context) (bool, error)

	// Close flushes any buffered events before releasing resources.
	Close(context.Context) error
}

// Discard is a [Publisher] which drops every event. It is used when no
// brokers are configured.
type Discard struct{}

// Publish implements the [Publisher] interface.
func (Discard) Publish(context.Context, Event) error { return nil }

// Healthy implements the [Publisher] interface.
func (Discard) Healthy(context.Context) (bool, error) { return true, nil }

// Close implements the [Publisher] interface.
func (Discard) Close(context.Context) error { return nil }
