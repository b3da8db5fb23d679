// Package tracing wires OpenTelemetry spans around run phases, with an
// optional Jaeger exporter for inspecting where simulated time goes.
package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/nrnutil/nrnutil"

// Options configures span export.
type Options struct {
	// EnableJaeger turns on batched export to a Jaeger collector.
	EnableJaeger bool

	// JaegerEndpoint is the collector endpoint, e.g.
	// http://localhost:14268/api/traces.
	JaegerEndpoint string
}

// InitProvider installs a global tracer provider for the library. Without
// Jaeger enabled, spans are recorded but never exported.
func InitProvider(o Options) (*tracesdk.TracerProvider, error) {
	tracerOptions := []tracesdk.TracerProviderOption{
		tracesdk.WithSampler(tracesdk.AlwaysSample()),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("nrnutil"),
		)),
	}
	if o.EnableJaeger {
		exp, err := jaeger.New(
			jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(o.JaegerEndpoint)),
		)
		if err != nil {
			return nil, fmt.Errorf("tracing: creating jaeger exporter: %w", err)
		}
		tracerOptions = append(tracerOptions, tracesdk.WithBatcher(exp))
	}

	tp := tracesdk.NewTracerProvider(tracerOptions...)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// Shutdown flushes and stops the provider, bounded to five seconds.
func Shutdown(ctx context.Context, log logr.Logger, tp *tracesdk.TracerProvider) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		log.Error(err, "error shutting down tracer provider")
	}
}

// StartSpan opens a span on the library's tracer, tagged with the given
// attributes.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithAttributes(attrs...))
}
