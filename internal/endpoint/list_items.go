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

type listItemsHandler struct {
	tracer     trace.Tracer
	log        *slog.Logger
	store      *item.Store
	operations metric.Int64Counter
}

// ListItems serves every stored item, in insertion order, at GET /items/.
func ListItems(ctx context.Context, store *item.Store) rest.ApiOption {
	h := &listItemsHandler{
		tracer:     otel.Tracer(instrumentationName),
		log:        items.Logger(instrumentationName),
		store:      store,
		operations: operationCounter(),
	}

	return rest.Operation(
		http.MethodGet,
		rest.BasePath("/items/"),
		rest.ProduceJson(h),
		rest.OperationID("list_items"),
		rest.Summary("List all items"),
		rest.Tags("Items"),
	)
}

func (h *listItemsHandler) Produce(ctx context.Context) (*[]item.Item, error) {
	_, span := h.tracer.Start(ctx, "listItemsHandler.Produce")
	defer span.End()

	list := h.store.List()
	if list == nil {
		list = []item.Item{}
	}
	span.SetAttributes(attribute.Int("items.count", len(list)))

	recordOperation(ctx, h.operations, "list", outcomeSuccess)
	return &list, nil
}
