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

type createItemHandler struct {
	tracer     trace.Tracer
	log        *slog.Logger
	store      *item.Store
	publisher  event.Publisher
	operations metric.Int64Counter
}

// CreateItem adds a new item at POST /items/. The client picks the id and
// it must not already be in use.
func CreateItem(ctx context.Context, store *item.Store, pub event.Publisher) rest.ApiOption {
	h := &createItemHandler{
		tracer:     otel.Tracer(instrumentationName),
		log:        items.Logger(instrumentationName),
		store:      store,
		publisher:  pub,
		operations: operationCounter(),
	}

	return rest.Operation(
		http.MethodPost,
		rest.BasePath("/items/"),
		rest.CreateJson(h),
		rest.OperationID("create_item"),
		rest.Summary("Create an item"),
		rest.Tags("Items"),
		rest.Returns(http.StatusBadRequest),
	)
}

func (h *createItemHandler) Handle(ctx context.Context, req *ItemRequest) (*item.Item, error) {
	spanCtx, span := h.tracer.Start(ctx, "createItemHandler.Handle")
	defer span.End()

	it := item.Item{
		ID:          *req.ID,
		Name:        *req.Name,
		Description: req.Description,
		Price:       *req.Price,
	}
	span.SetAttributes(attribute.Int64("item.id", it.ID))

	err := h.store.Atomically(func(tx *item.Tx) error {
		if _, exists := tx.Find(it.ID); exists {
			return newConflictError(it.ID)
		}
		tx.Insert(it)
		return nil
	})
	if err != nil {
		recordOperation(spanCtx, h.operations, "create", outcomeConflict)
		return nil, err
	}
	recordOperation(spanCtx, h.operations, "create", outcomeSuccess)

	h.log.InfoContext(spanCtx, "created item", slog.Int64("item_id", it.ID))
	publish(spanCtx, h.log, h.publisher, event.New(event.ItemCreated, it.ID, &it))

	return &it, nil
}
