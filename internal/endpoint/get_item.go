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
	"github.com/z5labs/items/internal/item"
	"github.com/z5labs/items/rest"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type getItemHandler struct {
	tracer     trace.Tracer
	log        *slog.Logger
	store      *item.Store
	operations metric.Int64Counter
}

// GetItem serves a single item at GET /items/{item_id}.
func GetItem(ctx context.Context, store *item.Store) rest.ApiOption {
	h := &getItemHandler{
		tracer:     otel.Tracer(instrumentationName),
		log:        items.Logger(instrumentationName),
		store:      store,
		operations: operationCounter(),
	}

	return rest.Operation(
		http.MethodGet,
		rest.BasePath("/items/").Param("item_id", rest.Required(), rest.Integer()),
		rest.ProduceJson(h),
		rest.OperationID("get_item"),
		rest.Summary("Get an item by id"),
		rest.Tags("Items"),
		rest.Returns(http.StatusNotFound),
	)
}

func (h *getItemHandler) Produce(ctx context.Context) (*item.Item, error) {
	_, span := h.tracer.Start(ctx, "getItemHandler.Produce")
	defer span.End()

	id := rest.Int64PathParamValue(ctx, "item_id")
	span.SetAttributes(attribute.Int64("item.id", id))

	it, ok := h.store.Find(id)
	if !ok {
		recordOperation(ctx, h.operations, "get", outcomeNotFound)
		return nil, newNotFoundError(id)
	}

	recordOperation(ctx, h.operations, "get", outcomeSuccess)
	return &it, nil
}
