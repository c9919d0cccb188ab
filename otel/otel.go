// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otel configures the OpenTelemetry SDK for the items service.
//
// Each provider is described by a [config.Reader] so it can be resolved
// from the environment when the application is built. A provider whose
// exporter is not configured reads as unset, and [Build] falls back to a
// no-op implementation for it.
//
// Environment Variables:
//   - OTEL_SERVICE_NAME: service name, defaults to "items"
//   - OTEL_SERVICE_VERSION: service version, defaults to "v0.0.0"
//   - OTEL_TRACES_SAMPLER_RATIO: ratio of traces to sample (0.0 to 1.0)
//   - OTEL_BSP_EXPORT_INTERVAL: batch span processor export interval
//   - OTEL_METRICS_EXPORTER: "otlp" (default), "prometheus" or "none"
//   - OTEL_METRIC_EXPORT_INTERVAL: periodic metric export interval
//   - OTEL_BLP_EXPORT_INTERVAL: batch log processor export interval
//
// OTLP endpoints and protocols are read by package otlp.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/z5labs/items/config"
	"github.com/z5labs/items/otel/otlp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultServiceName    = "items"
	DefaultServiceVersion = "v0.0.0"
)

// Resource describes the service producing telemetry.
type Resource struct {
	ServiceName    config.Reader[string]
	ServiceVersion config.Reader[string]
}

// ResourceFromEnv reads OTEL_SERVICE_NAME and OTEL_SERVICE_VERSION.
func ResourceFromEnv() Resource {
	return Resource{
		ServiceName:    config.Env("OTEL_SERVICE_NAME"),
		ServiceVersion: config.Env("OTEL_SERVICE_VERSION"),
	}
}

// Read implements the [config.Reader] interface.
func (cfg Resource) Read(ctx context.Context) (config.Value[*resource.Resource], error) {
	rsc, err := resource.New(
		context.Background(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(config.MustOr(ctx, DefaultServiceName, cfg.ServiceName)),
			semconv.ServiceVersion(config.MustOr(ctx, DefaultServiceVersion, cfg.ServiceVersion)),
		),
	)
	if err != nil {
		return config.Value[*resource.Resource]{}, err
	}
	return config.ValueOf(rsc), nil
}

// SamplerFromEnv samples root spans by trace id using the ratio in
// OTEL_TRACES_SAMPLER_RATIO and otherwise follows the parent's decision.
func SamplerFromEnv() config.Reader[sdktrace.Sampler] {
	return config.ReaderFunc[sdktrace.Sampler](func(ctx context.Context) (config.Value[sdktrace.Sampler], error) {
		ratio := config.MustOr(ctx, 1.0, config.Float64FromString(config.Env("OTEL_TRACES_SAMPLER_RATIO")))
		if ratio < 0 || ratio > 1 {
			return config.Value[sdktrace.Sampler]{}, fmt.Errorf("otel: sampler ratio must be between 0 and 1: %v", ratio)
		}
		return config.ValueOf(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))), nil
	})
}

// TracerProvider batches spans to Exporter.
type TracerProvider struct {
	Resource       config.Reader[*resource.Resource]
	Sampler        config.Reader[sdktrace.Sampler]
	Exporter       config.Reader[sdktrace.SpanExporter]
	ExportInterval config.Reader[time.Duration]
}

// Read implements the [config.Reader] interface. It is unset when no
// exporter is configured.
func (cfg TracerProvider) Read(ctx context.Context) (config.Value[trace.TracerProvider], error) {
	exporter, ok, err := optional(ctx, cfg.Exporter)
	if err != nil || !ok {
		return config.Value[trace.TracerProvider]{}, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(config.Must(ctx, cfg.Resource)),
		sdktrace.WithSampler(config.MustOr(ctx, sdktrace.AlwaysSample(), cfg.Sampler)),
		sdktrace.WithBatcher(
			exporter,
			sdktrace.WithBatchTimeout(config.MustOr(ctx, 5*time.Second, cfg.ExportInterval)),
		),
	)
	return config.ValueOf[trace.TracerProvider](tp), nil
}

// PeriodicReader pushes metrics to Exporter on a fixed interval.
type PeriodicReader struct {
	Exporter       config.Reader[sdkmetric.Exporter]
	ExportInterval config.Reader[time.Duration]
}

// Read implements the [config.Reader] interface. It is unset when no
// exporter is configured.
func (cfg PeriodicReader) Read(ctx context.Context) (config.Value[sdkmetric.Reader], error) {
	exporter, ok, err := optional(ctx, cfg.Exporter)
	if err != nil || !ok {
		return config.Value[sdkmetric.Reader]{}, err
	}

	pr := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(config.MustOr(ctx, 30*time.Second, cfg.ExportInterval)),
	)
	return config.ValueOf[sdkmetric.Reader](pr), nil
}

// Prometheus is a pull based metric reader. Collected metrics, along with
// Go and process collectors, are served by [Prometheus.Handler].
type Prometheus struct {
	registry *prometheus.Registry
}

// NewPrometheus initializes a [Prometheus] with its own registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Prometheus{
		registry: reg,
	}
}

// Read implements the [config.Reader] interface.
func (p *Prometheus) Read(ctx context.Context) (config.Value[sdkmetric.Reader], error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(p.registry))
	if err != nil {
		return config.Value[sdkmetric.Reader]{}, err
	}
	return config.ValueOf[sdkmetric.Reader](exp), nil
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		Registry: p.registry,
	})
}

// UnknownMetricsExporterError is returned for an unrecognized
// OTEL_METRICS_EXPORTER value.
type UnknownMetricsExporterError struct {
	Exporter string
}

func (e UnknownMetricsExporterError) Error() string {
	return fmt.Sprintf("otel: unknown metrics exporter: %s", e.Exporter)
}

// MetricReaderFromEnv selects a metric reader using OTEL_METRICS_EXPORTER.
// prom is used when the exporter is "prometheus".
func MetricReaderFromEnv(prom *Prometheus) config.Reader[sdkmetric.Reader] {
	return config.ReaderFunc[sdkmetric.Reader](func(ctx context.Context) (config.Value[sdkmetric.Reader], error) {
		exporter := config.MustOr(ctx, "otlp", config.Env("OTEL_METRICS_EXPORTER"))
		switch exporter {
		case "otlp":
			return PeriodicReader{
				Exporter:       otlp.MetricExporterFromEnv(),
				ExportInterval: config.DurationFromString(config.Env("OTEL_METRIC_EXPORT_INTERVAL")),
			}.Read(ctx)
		case "prometheus":
			return prom.Read(ctx)
		case "none":
			return config.Value[sdkmetric.Reader]{}, nil
		default:
			return config.Value[sdkmetric.Reader]{}, UnknownMetricsExporterError{Exporter: exporter}
		}
	})
}

// MeterProvider collects metrics with Reader.
type MeterProvider struct {
	Resource config.Reader[*resource.Resource]
	Reader   config.Reader[sdkmetric.Reader]
}

// Read implements the [config.Reader] interface. It is unset when no
// reader is configured.
func (cfg MeterProvider) Read(ctx context.Context) (config.Value[metric.MeterProvider], error) {
	reader, ok, err := optional(ctx, cfg.Reader)
	if err != nil || !ok {
		return config.Value[metric.MeterProvider]{}, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(config.Must(ctx, cfg.Resource)),
		sdkmetric.WithReader(reader),
	)
	return config.ValueOf[metric.MeterProvider](mp), nil
}

// BatchLogProcessor batches log records to Exporter.
type BatchLogProcessor struct {
	Exporter       config.Reader[sdklog.Exporter]
	ExportInterval config.Reader[time.Duration]
}

// Read implements the [config.Reader] interface. It is unset when no
// exporter is configured.
func (cfg BatchLogProcessor) Read(ctx context.Context) (config.Value[sdklog.Processor], error) {
	exporter, ok, err := optional(ctx, cfg.Exporter)
	if err != nil || !ok {
		return config.Value[sdklog.Processor]{}, err
	}

	blp := sdklog.NewBatchProcessor(
		exporter,
		sdklog.WithExportInterval(config.MustOr(ctx, time.Second, cfg.ExportInterval)),
	)
	return config.ValueOf[sdklog.Processor](blp), nil
}

// StdoutLogProcessor writes every log record as a line of JSON.
type StdoutLogProcessor struct {
	Writer io.Writer
}

// Read implements the [config.Reader] interface.
func (cfg StdoutLogProcessor) Read(ctx context.Context) (config.Value[sdklog.Processor], error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	exp := &slogExporter{
		handler: slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}),
	}
	return config.ValueOf[sdklog.Processor](sdklog.NewSimpleProcessor(exp)), nil
}

// LoggerProvider sends log records to Processor.
type LoggerProvider struct {
	Resource  config.Reader[*resource.Resource]
	Processor config.Reader[sdklog.Processor]
}

// Read implements the [config.Reader] interface. It is unset when no
// processor is configured.
func (cfg LoggerProvider) Read(ctx context.Context) (config.Value[log.LoggerProvider], error) {
	processor, ok, err := optional(ctx, cfg.Processor)
	if err != nil || !ok {
		return config.Value[log.LoggerProvider]{}, err
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(config.Must(ctx, cfg.Resource)),
		sdklog.WithProcessor(processor),
	)
	return config.ValueOf[log.LoggerProvider](lp), nil
}

// SDKFromEnv describes the whole SDK from environment variables.
//
// Traces are only exported to an OTLP collector. Metrics go to OTLP or
// prom depending on OTEL_METRICS_EXPORTER. Logs go to OTLP when a
// collector is configured and to stdout as JSON otherwise.
func SDKFromEnv(prom *Prometheus) SDK {
	rsc := ResourceFromEnv()

	return SDK{
		TextMapPropagator: config.ReaderOf[propagation.TextMapPropagator](
			propagation.NewCompositeTextMapPropagator(
				propagation.Baggage{},
				propagation.TraceContext{},
			),
		),
		TracerProvider: TracerProvider{
			Resource:       rsc,
			Sampler:        SamplerFromEnv(),
			Exporter:       otlp.SpanExporterFromEnv(),
			ExportInterval: config.DurationFromString(config.Env("OTEL_BSP_EXPORT_INTERVAL")),
		},
		MeterProvider: MeterProvider{
			Resource: rsc,
			Reader:   MetricReaderFromEnv(prom),
		},
		LoggerProvider: LoggerProvider{
			Resource: rsc,
			Processor: config.Or[sdklog.Processor](
				BatchLogProcessor{
					Exporter:       otlp.LogExporterFromEnv(),
					ExportInterval: config.DurationFromString(config.Env("OTEL_BLP_EXPORT_INTERVAL")),
				},
				StdoutLogProcessor{},
			),
		},
	}
}

func optional[T any](ctx context.Context, r config.Reader[T]) (T, bool, error) {
	t, err := config.Read(ctx, r)
	if errors.Is(err, config.ErrValueNotSet) {
		return t, false, nil
	}
	if err != nil {
		return t, false, err
	}
	return t, true, nil
}
