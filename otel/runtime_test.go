// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/z5labs/items/app"
	"github.com/z5labs/items/config"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type mockRuntime struct {
	runCalled bool
	runErr    error
}

func (m *mockRuntime) Run(ctx context.Context) error {
	m.runCalled = true
	return m.runErr
}

type mockShutdowner struct {
	shutdownCalled bool
	shutdownErr    error
}

func (m *mockShutdowner) Shutdown(ctx context.Context) error {
	m.shutdownCalled = true
	return m.shutdownErr
}

type shutdownTracerProvider struct {
	tracenoop.TracerProvider
	*mockShutdowner
}

type shutdownMeterProvider struct {
	metricnoop.MeterProvider
	*mockShutdowner
}

type shutdownLoggerProvider struct {
	lognoop.LoggerProvider
	*mockShutdowner
}

func TestBuild(t *testing.T) {
	t.Run("will fall back to defaults", func(t *testing.T) {
		t.Run("if every reader is unset", func(t *testing.T) {
			rt, err := Build(SDK{}, app.BuilderFunc[*mockRuntime](func(ctx context.Context) (*mockRuntime, error) {
				return &mockRuntime{}, nil
			})).Build(context.Background())
			require.NoError(t, err)

			require.IsType(t, tracenoop.TracerProvider{}, rt.tracerProvider)
			require.IsType(t, metricnoop.MeterProvider{}, rt.meterProvider)
			require.IsType(t, lognoop.LoggerProvider{}, rt.loggerProvider)
		})
	})

	t.Run("will install the providers before building the inner runtime", func(t *testing.T) {
		mp := sdkmetric.NewMeterProvider()
		defer mp.Shutdown(context.Background())

		var seen metric.MeterProvider
		_, err := Build(
			SDK{
				MeterProvider: config.ReaderOf[metric.MeterProvider](mp),
			},
			app.BuilderFunc[*mockRuntime](func(ctx context.Context) (*mockRuntime, error) {
				seen = otel.GetMeterProvider()
				return &mockRuntime{}, nil
			}),
		).Build(context.Background())
		require.NoError(t, err)
		require.Equal(t, mp, seen)

		otel.SetMeterProvider(metricnoop.NewMeterProvider())
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the inner runtime fails to build", func(t *testing.T) {
			buildErr := errors.New("failed to build")

			_, err := Build(SDK{}, app.BuilderFunc[*mockRuntime](func(ctx context.Context) (*mockRuntime, error) {
				return nil, buildErr
			})).Build(context.Background())
			require.ErrorIs(t, err, buildErr)
		})
	})
}

func TestRuntime_Run(t *testing.T) {
	t.Run("will shut down the providers", func(t *testing.T) {
		tp := &mockShutdowner{}
		mp := &mockShutdowner{}
		lp := &mockShutdowner{}

		rt := Runtime{
			inner:          &mockRuntime{},
			tracerProvider: shutdownTracerProvider{mockShutdowner: tp},
			meterProvider:  shutdownMeterProvider{mockShutdowner: mp},
			loggerProvider: shutdownLoggerProvider{mockShutdowner: lp},
		}

		err := rt.Run(context.Background())
		require.NoError(t, err)

		require.True(t, tp.shutdownCalled)
		require.True(t, mp.shutdownCalled)
		require.True(t, lp.shutdownCalled)
	})

	t.Run("will propagate the inner runtime error", func(t *testing.T) {
		runErr := errors.New("runtime error")
		inner := &mockRuntime{runErr: runErr}

		rt := Runtime{
			inner:          inner,
			tracerProvider: tracenoop.NewTracerProvider(),
			meterProvider:  metricnoop.NewMeterProvider(),
			loggerProvider: lognoop.NewLoggerProvider(),
		}

		err := rt.Run(context.Background())
		require.ErrorIs(t, err, runErr)
		require.True(t, inner.runCalled)
	})
}

func TestShutdown(t *testing.T) {
	testCases := []struct {
		name        string
		shutdowners []any
		expectError bool
	}{
		{
			name: "shuts down all providers",
			shutdowners: []any{
				&mockShutdowner{},
				&mockShutdowner{},
			},
		},
		{
			name: "ignores values which can not be shut down",
			shutdowners: []any{
				tracenoop.NewTracerProvider(),
				42,
			},
		},
		{
			name: "continues and collects errors",
			shutdowners: []any{
				&mockShutdowner{shutdownErr: errors.New("error 1")},
				&mockShutdowner{},
				&mockShutdowner{shutdownErr: errors.New("error 2")},
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := shutdown(tc.shutdowners...)()

			if tc.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			for _, v := range tc.shutdowners {
				if m, ok := v.(*mockShutdowner); ok {
					require.True(t, m.shutdownCalled)
				}
			}
		})
	}
}
