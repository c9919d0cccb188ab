// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package api assembles the items REST API.
package api

import (
	"context"
	"net/http"

	"github.com/z5labs/items/config"
	"github.com/z5labs/items/event"
	"github.com/z5labs/items/health"
	"github.com/z5labs/items/internal/endpoint"
	"github.com/z5labs/items/internal/item"
	"github.com/z5labs/items/rest"
)

// Title is the OpenAPI title of the items API.
const Title = "Items API"

// BuildApi registers every item operation against store. The service is
// only ready while serving is healthy and pub can deliver events. A nil
// serving is ignored. metrics is served at GET /metrics when it is not nil.
func BuildApi(ctx context.Context, store *item.Store, pub event.Publisher, serving health.Monitor, metrics http.Handler) (*rest.Api, error) {
	_, err := endpoint.ObserveStore(store)
	if err != nil {
		return nil, err
	}

	ready := health.And(pub)
	if serving != nil {
		ready = health.And(serving, pub)
	}

	opts := []rest.ApiOption{
		endpoint.ListItems(ctx, store),
		endpoint.GetItem(ctx, store),
		endpoint.CreateItem(ctx, store, pub),
		endpoint.UpdateItem(ctx, store, pub),
		endpoint.DeleteItem(ctx, store, pub),
		rest.Readiness(ready),
	}
	if metrics != nil {
		opts = append(opts, rest.Metrics(metrics))
	}

	api := rest.NewApi(
		Title,
		config.MustOr(ctx, "v0.0.0", config.Env("OTEL_SERVICE_VERSION")),
		opts...,
	)
	return api, nil
}
