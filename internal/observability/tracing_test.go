package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDisabledTracingIsNoop(t *testing.T) {
	tp, err := NewTracerProvider(TracingConfig{})
	require.NoError(t, err)

	_, span := tp.Tracer().Start(context.Background(), SpanAPIRequest)
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, tp.Shutdown(context.Background()))

	var nilProvider *TracerProvider
	assert.NoError(t, nilProvider.Shutdown(context.Background()))
	assert.NotNil(t, TracerOrNop(nil))
}

func TestTracerProviderExporters(t *testing.T) {
	_, err := NewTracerProvider(TracingConfig{Endpoint: "http://localhost:4318", Exporter: "jaeger"})
	assert.ErrorContains(t, err, "unsupported trace exporter")

	for _, cfg := range []TracingConfig{
		{Endpoint: "http://127.0.0.1:4318"},
		{Endpoint: "http://127.0.0.1:9411/api/v2/spans", Exporter: ExporterZipkin},
	} {
		tp, err := NewTracerProvider(cfg)
		require.NoError(t, err)
		_, span := tp.Tracer().Start(context.Background(), SpanUpload)
		assert.True(t, span.SpanContext().IsValid())
		span.End()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		// nothing listens on the collector port; only the shutdown path matters here
		_ = tp.Shutdown(ctx)
	}
}

func TestEndSpanTagsOutcome(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, ok := tracer.Start(context.Background(), "ok")
	EndSpan(ok, OutcomeSuccess, nil)
	_, logical := tracer.Start(context.Background(), "logical")
	EndSpan(logical, OutcomeLogical, nil)
	_, failed := tracer.Start(context.Background(), "failed")
	EndSpan(failed, OutcomeTransport, errors.New("connection refused"))

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "connection refused", spans[2].Status().Description)
	assert.Len(t, spans[2].Events(), 1)
	for i, want := range []Outcome{OutcomeSuccess, OutcomeLogical, OutcomeTransport} {
		var got string
		for _, kv := range spans[i].Attributes() {
			if kv.Key == AttrOutcome {
				got = kv.Value.AsString()
			}
		}
		assert.Equal(t, string(want), got)
	}
}
