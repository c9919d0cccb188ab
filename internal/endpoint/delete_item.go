// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/z5labs/items"
	"github.com/z5labs/items/event"
	"github.com/z5labs/items/internal/item"
	"github.com/z5labs/items/rest"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type deleteItemHandler struct {
	tracer     trace.Tracer
	log        *slog.Logger
	store      *item.Store
	publisher  event.Publisher
	operations metric.Int64Counter
}

// DeleteItem removes an item at DELETE /items/{item_id}.
func DeleteItem(ctx context.Context, store *item.Store, pub event.Publisher) rest.ApiOption {
	h := &deleteItemHandler{
		tracer:     otel.Tracer(instrumentationName),
		log:        items.Logger(instrumentationName),
		store:      store,
		publisher:  pub,
		operations: operationCounter(),
	}

	return rest.Operation(
		http.MethodDelete,
		rest.BasePath("/items/").Param("item_id", rest.Required(), rest.Integer()),
		h,
		rest.OperationID("delete_item"),
		rest.Summary("Delete an item"),
		rest.Tags("Items"),
		rest.Returns(http.StatusNotFound),
	)
}

func (h *deleteItemHandler) Handle(ctx context.Context, _ *rest.EmptyRequest) (*rest.NoContent, error) {
	spanCtx, span := h.tracer.Start(ctx, "deleteItemHandler.Handle")
	defer span.End()

	id := rest.Int64PathParamValue(ctx, "item_id")
	span.SetAttributes(attribute.Int64("item.id", id))

	if !h.store.Remove(id) {
		recordOperation(spanCtx, h.operations, "delete", outcomeNotFound)
		return nil, newNotFoundError(id)
	}
	recordOperation(spanCtx, h.operations, "delete", outcomeSuccess)

	h.log.InfoContext(spanCtx, "deleted item", slog.Int64("item_id", id))
	publish(spanCtx, h.log, h.publisher, event.New(event.ItemDeleted, id, nil))

	return &rest.NoContent{}, nil
}
