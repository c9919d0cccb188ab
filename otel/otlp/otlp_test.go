// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"
	"testing"

	"github.com/z5labs/items/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, name := range []string{
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_PROTOCOL",
		"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
		"OTEL_EXPORTER_OTLP_TRACES_PROTOCOL",
		"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT",
		"OTEL_EXPORTER_OTLP_METRICS_PROTOCOL",
		"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT",
		"OTEL_EXPORTER_OTLP_LOGS_PROTOCOL",
	} {
		t.Setenv(name, "")
	}
}

func TestGrpcConn_Read(t *testing.T) {
	testCases := []struct {
		Name           string
		Target         string
		ExpectedTarget string
	}{
		{
			Name:           "host and port",
			Target:         "localhost:4317",
			ExpectedTarget: "localhost:4317",
		},
		{
			Name:           "http scheme is stripped",
			Target:         "http://collector:4317",
			ExpectedTarget: "collector:4317",
		},
		{
			Name:           "https scheme is stripped",
			Target:         "https://collector:4317",
			ExpectedTarget: "collector:4317",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			gc := &GrpcConn{
				Target: config.ReaderOf(testCase.Target),
			}

			v, err := gc.Read(context.Background())
			require.NoError(t, err)

			cc, ok := v.Value()
			require.True(t, ok)

			assert.Equal(t, testCase.ExpectedTarget, cc.Target())
		})
	}
}

func TestGrpcConn_shared(t *testing.T) {
	t.Run("will reuse the connection for the same target", func(t *testing.T) {
		a, err := config.Read(context.Background(), &GrpcConn{Target: config.ReaderOf("shared:4317")})
		require.NoError(t, err)

		b, err := config.Read(context.Background(), &GrpcConn{Target: config.ReaderOf("http://shared:4317")})
		require.NoError(t, err)

		assert.Same(t, a, b)
	})
}

func TestSpanExporterFromEnv(t *testing.T) {
	t.Run("will be unset", func(t *testing.T) {
		t.Run("if no endpoint is configured", func(t *testing.T) {
			clearEnv(t)

			_, err := config.Read(context.Background(), SpanExporterFromEnv())
			require.ErrorIs(t, err, config.ErrValueNotSet)
		})
	})

	t.Run("will create an exporter", func(t *testing.T) {
		protocols := []string{"", "grpc", "http/protobuf"}
		for _, protocol := range protocols {
			t.Run("for protocol "+protocol, func(t *testing.T) {
				clearEnv(t)
				t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")
				t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", protocol)

				exp, err := config.Read(context.Background(), SpanExporterFromEnv())
				require.NoError(t, err)
				require.NotNil(t, exp)
				require.NoError(t, exp.Shutdown(context.Background()))
			})
		}
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the protocol is not supported", func(t *testing.T) {
			clearEnv(t)
			t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")
			t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/json")

			_, err := config.Read(context.Background(), SpanExporterFromEnv())

			var perr UnsupportedProtocolError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, Protocol("http/json"), perr.Protocol)
		})
	})
}

func TestMetricExporterFromEnv(t *testing.T) {
	t.Run("will be unset", func(t *testing.T) {
		t.Run("if no endpoint is configured", func(t *testing.T) {
			clearEnv(t)

			_, err := config.Read(context.Background(), MetricExporterFromEnv())
			require.ErrorIs(t, err, config.ErrValueNotSet)
		})
	})

	t.Run("will use grpc by default", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "localhost:4317")

		exp, err := config.Read(context.Background(), MetricExporterFromEnv())
		require.NoError(t, err)
		defer exp.Shutdown(context.Background())

		require.IsType(t, &otlpmetricgrpc.Exporter{}, exp)
	})

	t.Run("will prefer the signal specific protocol", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
		t.Setenv("OTEL_EXPORTER_OTLP_METRICS_PROTOCOL", "http/protobuf")

		exp, err := config.Read(context.Background(), MetricExporterFromEnv())
		require.NoError(t, err)
		defer exp.Shutdown(context.Background())

		require.IsType(t, &otlpmetrichttp.Exporter{}, exp)
	})
}

func TestLogExporterFromEnv(t *testing.T) {
	t.Run("will be unset", func(t *testing.T) {
		t.Run("if only another signal has an endpoint", func(t *testing.T) {
			clearEnv(t)
			t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "localhost:4317")

			_, err := config.Read(context.Background(), LogExporterFromEnv())
			require.ErrorIs(t, err, config.ErrValueNotSet)
		})
	})

	t.Run("will create a grpc exporter", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "localhost:4317")

		exp, err := config.Read(context.Background(), LogExporterFromEnv())
		require.NoError(t, err)
		defer exp.Shutdown(context.Background())

		require.IsType(t, &otlploggrpc.Exporter{}, exp)
	})

	t.Run("will create an http exporter", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "http://localhost:4318/v1/logs")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")

		exp, err := config.Read(context.Background(), LogExporterFromEnv())
		require.NoError(t, err)
		defer exp.Shutdown(context.Background())

		require.IsType(t, &otlploghttp.Exporter{}, exp)
	})
}
