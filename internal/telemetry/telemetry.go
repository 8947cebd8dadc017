// Package telemetry wires gorushi's OpenTelemetry tracer and logger
// providers.
//
// It is modernized from the teacher repo's legacy pkg/tracing bootstrap
// (which targeted a pre-1.0 otel API and a Jaeger exporter) to the otel SDK
// versions actually pinned in go.mod, and generalized from "always enabled,
// Jaeger only" to "no-op unless configured, OTLP over gRPC or HTTP".
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the well-known tracer name spans for the fetch/tokenize/build
// pipeline are created under.
const Tracer = "github.com/kojima/gorushi"

// Shutdown flushes and closes everything Setup started. It is safe to call
// even when Setup ran in no-op mode.
type Shutdown func(context.Context) error

// Setup wires a TracerProvider and LoggerProvider from the standard
// OTEL_EXPORTER_OTLP_* environment variables and returns a *slog.Logger that
// forwards records to the logger provider (in addition to stderr) along with
// a Shutdown func.
//
// When OTEL_EXPORTER_OTLP_ENDPOINT is unset, Setup leaves the global
// TracerProvider untouched (otel's default no-op) and returns a *slog.Logger
// that only writes to stderr — the core pipeline never requires a collector
// to be running.
func Setup(ctx context.Context, serviceName string) (*slog.Logger, Shutdown, error) {
	base := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return base, func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return base, nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	grpcProto := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "grpc"

	traceExp, err := newTraceExporter(ctx, grpcProto)
	if err != nil {
		return base, nil, fmt.Errorf("telemetry: building trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logExp, err := newLogExporter(ctx, grpcProto)
	if err != nil {
		return base, nil, fmt.Errorf("telemetry: building log exporter: %w", err)
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)

	bridged := otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp))
	logger := slog.New(fanout{a: base.Handler(), b: bridged})

	shutdown := func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if lerr := lp.Shutdown(ctx); err == nil {
			err = lerr
		}
		return err
	}
	return logger, shutdown, nil
}

func newTraceExporter(ctx context.Context, grpcProto bool) (sdktrace.SpanExporter, error) {
	if grpcProto {
		return otlptrace.New(ctx, otlptracegrpc.NewClient())
	}
	return otlptrace.New(ctx, otlptracehttp.NewClient())
}

func newLogExporter(ctx context.Context, grpcProto bool) (sdklog.Exporter, error) {
	if grpcProto {
		return otlploggrpc.New(ctx)
	}
	return otlploghttp.New(ctx)
}

// StartSpan is a small convenience wrapper so pipeline stages don't each
// need to call otel.Tracer(Tracer) themselves.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(Tracer).Start(ctx, name)
}

// fanout sends every record to both handlers, so the bridged logger keeps
// writing to stderr as well as to the OTLP exporter.
type fanout struct{ a, b slog.Handler }

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	return f.a.Enabled(ctx, l) || f.b.Enabled(ctx, l)
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	if err := f.a.Handle(ctx, r.Clone()); err != nil {
		return err
	}
	return f.b.Handle(ctx, r.Clone())
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return fanout{a: f.a.WithAttrs(attrs), b: f.b.WithAttrs(attrs)}
}

func (f fanout) WithGroup(name string) slog.Handler {
	return fanout{a: f.a.WithGroup(name), b: f.b.WithGroup(name)}
}
