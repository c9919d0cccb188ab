// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"

	"github.com/z5labs/items/internal/item"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomeSuccess  = "success"
	outcomeNotFound = "not_found"
	outcomeConflict = "conflict"
)

func operationCounter() metric.Int64Counter {
	counter, err := otel.GetMeterProvider().Meter(instrumentationName).Int64Counter(
		"items.operations",
		metric.WithDescription("Total number of item operations by outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		panic(err)
	}
	return counter
}

func recordOperation(ctx context.Context, counter metric.Int64Counter, operation, outcome string) {
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

// ObserveStore reports the number of stored items as the items.stored gauge.
func ObserveStore(store *item.Store) (metric.Registration, error) {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	gauge, err := meter.Int64ObservableGauge(
		"items.stored",
		metric.WithDescription("Number of items currently held in memory"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		o.ObserveInt64(gauge, int64(store.Len()))
		return nil
	}, gauge)
}
