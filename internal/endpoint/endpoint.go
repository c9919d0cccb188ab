// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package endpoint implements the item CRUD operations.
package endpoint

import (
	"context"
	"log/slog"

	"github.com/z5labs/items/event"
)

const instrumentationName = "github.com/z5labs/items/internal/endpoint"

// ItemRequest is the body accepted by create and update.
// Every field except description must be present.
type ItemRequest struct {
	ID          *int64   `json:"id" validate:"required"`
	Name        *string  `json:"name" validate:"required"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"required"`
}

func publish(ctx context.Context, log *slog.Logger, pub event.Publisher, e event.Event) {
	err := pub.Publish(ctx, e)
	if err == nil {
		return
	}
	log.WarnContext(
		ctx,
		"failed to publish item event",
		slog.String("event_type", string(e.Type)),
		slog.Int64("item_id", e.ItemID),
		slog.Any("error", err),
	)
}
