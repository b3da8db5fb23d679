package tracing

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_TagsAttributes(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)

	_, span := StartSpan(context.Background(), "run",
		attribute.Int("rank", 3),
		attribute.Float64("horizon", 1000))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "run", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.Int("rank", 3))
	assert.Contains(t, ended[0].Attributes(), attribute.Float64("horizon", 1000))
}

func TestInitProvider_NoExporter(t *testing.T) {
	tp, err := InitProvider(Options{})
	require.NoError(t, err)
	Shutdown(context.Background(), logr.Discard(), tp)
}
