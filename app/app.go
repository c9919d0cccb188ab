// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app wires builders and runtimes into a runnable process.
//
// Builders construct the long lived pieces of the service (listener,
// HTTP server, event publisher, telemetry providers) from configuration.
// Runtimes block until the process is asked to stop. Cleanup is registered
// through [WithHooks] and runs after the runtime returns.
package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/z5labs/sdk-go/try"
)

// Builder builds a T from the surrounding configuration.
type Builder[T any] interface {
	Build(context.Context) (T, error)
}

// BuilderFunc is a func type implementation of [Builder].
type BuilderFunc[T any] func(context.Context) (T, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[T]) Build(ctx context.Context) (T, error) {
	return f(ctx)
}

// Build adapts f into a [Builder].
func Build[T any](f func(context.Context) (T, error)) Builder[T] {
	return BuilderFunc[T](f)
}

// Bind feeds the output of builder into binder to produce the next [Builder].
func Bind[A, B any](builder Builder[A], binder func(A) Builder[B]) Builder[B] {
	return BuilderFunc[B](func(ctx context.Context) (B, error) {
		a, err := builder.Build(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return binder(a).Build(ctx)
	})
}

// Runtime is a blocking unit of work, e.g. an HTTP server.
type Runtime interface {
	Run(context.Context) error
}

// RuntimeFunc is a func type implementation of [Runtime].
type RuntimeFunc func(context.Context) error

// Run implements the [Runtime] interface.
func (f RuntimeFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Run builds and runs the [Runtime] produced by builder.
//
// The context passed to both build and run is cancelled on SIGINT or SIGTERM.
// Panics raised while building, such as a required config value
// being absent, are returned as errors.
func Run[T Runtime](ctx context.Context, builder Builder[T]) error {
	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := build(sigCtx, builder)
	if err != nil {
		return err
	}

	return rt.Run(sigCtx)
}

func build[T any](ctx context.Context, builder Builder[T]) (t T, err error) {
	defer try.Recover(&err)

	return builder.Build(ctx)
}

// LogError logs err, if any, with the given handler.
func LogError(handler slog.Handler, err error) {
	if err == nil {
		return
	}

	log := slog.New(handler)
	log.Error("failed to run items service", slog.Any("error", err))
}
