// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otlp provides OpenTelemetry Protocol (OTLP) exporters for traces, metrics, and logs.
//
// Both gRPC and HTTP/protobuf transports are supported. The *FromEnv
// readers follow the standard OpenTelemetry environment variables:
//   - OTEL_EXPORTER_OTLP_ENDPOINT, or the per-signal
//     OTEL_EXPORTER_OTLP_{TRACES,METRICS,LOGS}_ENDPOINT
//   - OTEL_EXPORTER_OTLP_PROTOCOL, or the per-signal
//     OTEL_EXPORTER_OTLP_{TRACES,METRICS,LOGS}_PROTOCOL
//
// When no endpoint is configured for a signal its exporter reader is unset,
// which leaves that signal disabled.
package otlp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/z5labs/items/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Protocol is an OTLP transport.
type Protocol string

const (
	ProtocolGrpc         Protocol = "grpc"
	ProtocolHttpProtobuf Protocol = "http/protobuf"
)

// UnsupportedProtocolError is returned when the configured protocol is
// neither [ProtocolGrpc] nor [ProtocolHttpProtobuf].
type UnsupportedProtocolError struct {
	Protocol Protocol
}

func (e UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("otlp: unsupported protocol: %s", e.Protocol)
}

type signal struct {
	endpoint config.Reader[string]
	protocol config.Reader[Protocol]
}

func signalFromEnv(name string) signal {
	return signal{
		endpoint: config.Or(
			config.Env("OTEL_EXPORTER_OTLP_"+name+"_ENDPOINT"),
			config.Env("OTEL_EXPORTER_OTLP_ENDPOINT"),
		),
		protocol: config.Map(
			config.Or(
				config.Env("OTEL_EXPORTER_OTLP_"+name+"_PROTOCOL"),
				config.Env("OTEL_EXPORTER_OTLP_PROTOCOL"),
			),
			func(_ context.Context, s string) (Protocol, error) {
				return Protocol(s), nil
			},
		),
	}
}

// enabled reports the protocol to use, or false if no endpoint is set.
func (s signal) enabled(ctx context.Context) (Protocol, bool, error) {
	_, err := config.Read(ctx, s.endpoint)
	if errors.Is(err, config.ErrValueNotSet) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	p := config.MustOr(ctx, ProtocolGrpc, s.protocol)
	switch p {
	case ProtocolGrpc, ProtocolHttpProtobuf:
		return p, true, nil
	default:
		return "", false, UnsupportedProtocolError{Protocol: p}
	}
}

// SpanExporterFromEnv picks a gRPC or HTTP trace exporter based on the
// configured protocol. It is unset when no endpoint is configured.
func SpanExporterFromEnv() config.Reader[sdktrace.SpanExporter] {
	sig := signalFromEnv("TRACES")

	return config.ReaderFunc[sdktrace.SpanExporter](func(ctx context.Context) (config.Value[sdktrace.SpanExporter], error) {
		p, ok, err := sig.enabled(ctx)
		if err != nil || !ok {
			return config.Value[sdktrace.SpanExporter]{}, err
		}
		if p == ProtocolHttpProtobuf {
			return HttpTraceExporterFromEnv().Read(ctx)
		}
		return GrpcTraceExporterFromEnv().Read(ctx)
	})
}

// MetricExporterFromEnv picks a gRPC or HTTP metric exporter based on the
// configured protocol. It is unset when no endpoint is configured.
func MetricExporterFromEnv() config.Reader[sdkmetric.Exporter] {
	sig := signalFromEnv("METRICS")

	return config.ReaderFunc[sdkmetric.Exporter](func(ctx context.Context) (config.Value[sdkmetric.Exporter], error) {
		p, ok, err := sig.enabled(ctx)
		if err != nil || !ok {
			return config.Value[sdkmetric.Exporter]{}, err
		}
		if p == ProtocolHttpProtobuf {
			return HttpMetricExporterFromEnv().Read(ctx)
		}
		return GrpcMetricExporterFromEnv().Read(ctx)
	})
}

// LogExporterFromEnv picks a gRPC or HTTP log exporter based on the
// configured protocol. It is unset when no endpoint is configured.
func LogExporterFromEnv() config.Reader[sdklog.Exporter] {
	sig := signalFromEnv("LOGS")

	return config.ReaderFunc[sdklog.Exporter](func(ctx context.Context) (config.Value[sdklog.Exporter], error) {
		p, ok, err := sig.enabled(ctx)
		if err != nil || !ok {
			return config.Value[sdklog.Exporter]{}, err
		}
		if p == ProtocolHttpProtobuf {
			return HttpLogExporterFromEnv().Read(ctx)
		}
		return GrpcLogExporterFromEnv().Read(ctx)
	})
}

type connCache struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

func (c *connCache) getOr(target string, dial func() (*grpc.ClientConn, error)) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cc, ok := c.conns[target]; ok {
		return cc, nil
	}

	cc, err := dial()
	if err != nil {
		return nil, err
	}
	if c.conns == nil {
		c.conns = make(map[string]*grpc.ClientConn)
	}
	c.conns[target] = cc
	return cc, nil
}

// signals pointed at the same collector share one connection
var conns connCache

// GrpcConn dials an insecure gRPC client connection to Target.
// A leading http:// or https:// is stripped from the target.
type GrpcConn struct {
	Target config.Reader[string]
}

func (gc *GrpcConn) Read(ctx context.Context) (config.Value[*grpc.ClientConn], error) {
	target := config.Must(ctx, gc.Target)
	target = strings.TrimPrefix(target, "http://")
	target = strings.TrimPrefix(target, "https://")

	cc, err := conns.getOr(target, func() (*grpc.ClientConn, error) {
		return grpc.NewClient(
			target,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	})
	if err != nil {
		return config.Value[*grpc.ClientConn]{}, err
	}

	return config.ValueOf(cc), nil
}

type GrpcTraceExporter struct {
	Conn config.Reader[*grpc.ClientConn]
}

func GrpcTraceExporterFromEnv(overrides ...func(*GrpcTraceExporter)) GrpcTraceExporter {
	exp := GrpcTraceExporter{
		Conn: &GrpcConn{
			Target: signalFromEnv("TRACES").endpoint,
		},
	}
	for _, o := range overrides {
		o(&exp)
	}
	return exp
}

func (cfg GrpcTraceExporter) Read(ctx context.Context) (config.Value[sdktrace.SpanExporter], error) {
	conn := config.Must(ctx, cfg.Conn)

	exp, err := otlptracegrpc.New(context.Background(), otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return config.Value[sdktrace.SpanExporter]{}, err
	}

	return config.ValueOf[sdktrace.SpanExporter](exp), nil
}

type GrpcMetricExporter struct {
	Conn config.Reader[*grpc.ClientConn]
}

func GrpcMetricExporterFromEnv(overrides ...func(*GrpcMetricExporter)) GrpcMetricExporter {
	exp := GrpcMetricExporter{
		Conn: &GrpcConn{
			Target: signalFromEnv("METRICS").endpoint,
		},
	}
	for _, o := range overrides {
		o(&exp)
	}
	return exp
}

func (cfg GrpcMetricExporter) Read(ctx context.Context) (config.Value[sdkmetric.Exporter], error) {
	conn := config.Must(ctx, cfg.Conn)

	exp, err := otlpmetricgrpc.New(context.Background(), otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return config.Value[sdkmetric.Exporter]{}, err
	}

	return config.ValueOf[sdkmetric.Exporter](exp), nil
}

type GrpcLogExporter struct {
	Conn config.Reader[*grpc.ClientConn]
}

func GrpcLogExporterFromEnv(overrides ...func(*GrpcLogExporter)) GrpcLogExporter {
	exp := GrpcLogExporter{
		Conn: &GrpcConn{
			Target: signalFromEnv("LOGS").endpoint,
		},
	}
	for _, o := range overrides {
		o(&exp)
	}
	return exp
}

func (cfg GrpcLogExporter) Read(ctx context.Context) (config.Value[sdklog.Exporter], error) {
	conn := config.Must(ctx, cfg.Conn)

	exp, err := otlploggrpc.New(context.Background(), otlploggrpc.WithGRPCConn(conn))
	if err != nil {
		return config.Value[sdklog.Exporter]{}, err
	}

	return config.ValueOf[sdklog.Exporter](exp), nil
}

// HttpTraceExporter sends spans over HTTP/protobuf. Endpoint is a full URL
// including the signal path; when it is unset the exporter falls back to
// the SDK's own environment handling.
type HttpTraceExporter struct {
	Endpoint config.Reader[string]
}

func HttpTraceExporterFromEnv(overrides ...func(*HttpTraceExporter)) HttpTraceExporter {
	exp := HttpTraceExporter{
		Endpoint: config.Env("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"),
	}
	for _, o := range overrides {
		o(&exp)
	}
	return exp
}

func (cfg HttpTraceExporter) Read(ctx context.Context) (config.Value[sdktrace.SpanExporter], error) {
	var opts []otlptracehttp.Option
	if endpoint, ok := optional(ctx, cfg.Endpoint); ok {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	}

	exp, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return config.Value[sdktrace.SpanExporter]{}, err
	}
	return config.ValueOf[sdktrace.SpanExporter](exp), nil
}

// HttpMetricExporter sends metrics over HTTP/protobuf.
type HttpMetricExporter struct {
	Endpoint config.Reader[string]
}

func HttpMetricExporterFromEnv(overrides ...func(*HttpMetricExporter)) HttpMetricExporter {
	exp := HttpMetricExporter{
		Endpoint: config.Env("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
	}
	for _, o := range overrides {
		o(&exp)
	}
	return exp
}

func (cfg HttpMetricExporter) Read(ctx context.Context) (config.Value[sdkmetric.Exporter], error) {
	var opts []otlpmetrichttp.Option
	if endpoint, ok := optional(ctx, cfg.Endpoint); ok {
		opts = append(opts, otlpmetrichttp.WithEndpointURL(endpoint))
	}

	exp, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return config.Value[sdkmetric.Exporter]{}, err
	}
	return config.ValueOf[sdkmetric.Exporter](exp), nil
}

// HttpLogExporter sends log records over HTTP/protobuf.
type HttpLogExporter struct {
	Endpoint config.Reader[string]
}

func HttpLogExporterFromEnv(overrides ...func(*HttpLogExporter)) HttpLogExporter {
	exp := HttpLogExporter{
		Endpoint: config.Env("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"),
	}
	for _, o := range overrides {
		o(&exp)
	}
	return exp
}

func (cfg HttpLogExporter) Read(ctx context.Context) (config.Value[sdklog.Exporter], error) {
	var opts []otlploghttp.Option
	if endpoint, ok := optional(ctx, cfg.Endpoint); ok {
		opts = append(opts, otlploghttp.WithEndpointURL(endpoint))
	}

	exp, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		return config.Value[sdklog.Exporter]{}, err
	}
	return config.ValueOf[sdklog.Exporter](exp), nil
}

func optional(ctx context.Context, r config.Reader[string]) (string, bool) {
	s := config.MustOr(ctx, "", r)
	return s, s != ""
}
