// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command items serves the in-memory item catalogue over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/z5labs/items/app"
	"github.com/z5labs/items/config"
	"github.com/z5labs/items/event"
	"github.com/z5labs/items/health"
	httpserver "github.com/z5labs/items/http"
	"github.com/z5labs/items/internal/api"
	"github.com/z5labs/items/internal/item"
	"github.com/z5labs/items/otel"
	"github.com/z5labs/items/rest"
)

func main() {
	prom := otel.NewPrometheus()

	var serving health.Binary
	srv := httpserver.NewServer(
		httpserver.NewTCPListener(),
		append(httpserver.OptionsFromEnv(), httpserver.Serving(&serving))...,
	)

	runtime := app.WithHooks(func(ctx context.Context, h *app.HookRegistry) (httpserver.App, error) {
		seed, err := config.Read(ctx, item.Seed(item.SeedFileFromEnv()))
		if err != nil {
			return httpserver.App{}, err
		}
		store := item.NewStore(seed...)

		pub, err := event.Build(event.ConfigFromEnv()).Build(ctx)
		if err != nil {
			return httpserver.App{}, err
		}
		h.OnPostRun(pub.Close)

		apiBuilder := app.BuilderFunc[*rest.Api](func(ctx context.Context) (*rest.Api, error) {
			return api.BuildApi(ctx, store, pub, &serving, prom.Handler())
		})

		return rest.Build(srv, apiBuilder).Build(ctx)
	})

	err := app.Run(context.Background(), otel.Build(otel.SDKFromEnv(prom), runtime))
	if err == nil {
		return
	}

	// the otel log provider has already been shut down by now
	app.LogError(slog.NewJSONHandler(os.Stderr, nil), err)
	os.Exit(1)
}
