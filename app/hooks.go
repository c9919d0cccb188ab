// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
)

// HookFunc runs once the wrapped runtime has returned.
type HookFunc func(context.Context) error

// HookRegistry collects post-run hooks while the runtime is being built.
type HookRegistry struct {
	hooks []HookFunc
}

// OnPostRun registers hook. Hooks run in registration order.
func (r *HookRegistry) OnPostRun(hook HookFunc) {
	r.hooks = append(r.hooks, hook)
}

// HookRuntime runs an inner [Runtime] followed by its post-run hooks.
type HookRuntime struct {
	inner Runtime
	hooks []HookFunc
}

// Run implements the [Runtime] interface.
//
// Every hook runs even if the runtime or an earlier hook failed. Hooks
// receive a context which is not cancelled along with ctx, since ctx is
// usually already done by the time the runtime returns.
func (rt HookRuntime) Run(ctx context.Context) error {
	runErr := rt.inner.Run(ctx)

	hookCtx := context.WithoutCancel(ctx)

	var hookErr error
	for _, hook := range rt.hooks {
		err := hook(hookCtx)
		if err != nil {
			hookErr = errors.Join(hookErr, err)
		}
	}

	return errors.Join(runErr, hookErr)
}

// WithHooks gives f a [HookRegistry] for registering cleanup of the
// resources it creates. If f fails, the hooks registered up to that point
// are run before its error is returned.
//
//	app.WithHooks(func(ctx context.Context, h *app.HookRegistry) (httpserver.App, error) {
//	    pub, err := event.NewKafkaPublisher(ctx, cfg)
//	    if err != nil {
//	        return httpserver.App{}, err
//	    }
//	    h.OnPostRun(pub.Close)
//	    ...
//	})
func WithHooks[T Runtime](f func(context.Context, *HookRegistry) (T, error)) Builder[HookRuntime] {
	return BuilderFunc[HookRuntime](func(ctx context.Context) (HookRuntime, error) {
		registry := &HookRegistry{}

		inner, err := f(ctx, registry)
		if err != nil {
			return HookRuntime{}, errors.Join(err, HookRuntime{inner: noopRuntime{}, hooks: registry.hooks}.Run(ctx))
		}

		return HookRuntime{
			inner: inner,
			hooks: registry.hooks,
		}, nil
	})
}

type noopRuntime struct{}

func (noopRuntime) Run(context.Context) error { return nil }
