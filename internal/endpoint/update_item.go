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

type updateItemHandler struct {
	tracer     trace.Tracer
	log        *slog.Logger
	store      *item.Store
	publisher  event.Publisher
	operations metric.Int64Counter
}

// UpdateItem replaces the name, description and price of an item at
// PUT /items/{item_id}. The id in the body is required but never used;
// an item's id can not change.
func UpdateItem(ctx context.Context, store *item.Store, pub event.Publisher) rest.ApiOption {
	h := &updateItemHandler{
		tracer:     otel.Tracer(instrumentationName),
		log:        items.Logger(instrumentationName),
		store:      store,
		publisher:  pub,
		operations: operationCounter(),
	}

	return rest.Operation(
		http.MethodPut,
		rest.BasePath("/items/").Param("item_id", rest.Required(), rest.Integer()),
		rest.HandleJson(h),
		rest.OperationID("update_item"),
		rest.Summary("Update an item"),
		rest.Tags("Items"),
		rest.Returns(http.StatusNotFound),
	)
}

func (h *updateItemHandler) Handle(ctx context.Context, req *ItemRequest) (*item.Item, error) {
	spanCtx, span := h.tracer.Start(ctx, "updateItemHandler.Handle")
	defer span.End()

	id := rest.Int64PathParamValue(ctx, "item_id")
	span.SetAttributes(attribute.Int64("item.id", id))

	updated, ok := h.store.UpdateFields(id, *req.Name, req.Description, *req.Price)
	if !ok {
		recordOperation(spanCtx, h.operations, "update", outcomeNotFound)
		return nil, newNotFoundError(id)
	}
	recordOperation(spanCtx, h.operations, "update", outcomeSuccess)

	h.log.InfoContext(spanCtx, "updated item", slog.Int64("item_id", id))
	publish(spanCtx, h.log, h.publisher, event.New(event.ItemUpdated, id, &updated))

	return &updated, nil
}
