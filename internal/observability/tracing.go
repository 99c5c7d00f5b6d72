package observability

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "karmatch"

// Exporters accepted by TracingConfig.Exporter.
const (
	ExporterOTLP   = "otlp"
	ExporterZipkin = "zipkin"
)

// Span names.
const (
	SpanAPIRequest = "karmatch.api.request"
	SpanUpload     = "karmatch.upload"
)

// Span attribute keys.
const (
	AttrEndpoint   = "karmatch.endpoint"
	AttrOutcome    = "karmatch.outcome"
	AttrRequestID  = "karmatch.request_id"
	AttrStatusCode = "http.response.status_code"
	AttrSizeBytes  = "karmatch.upload.size_bytes"
)

// TracingConfig configures span export. Tracing is off unless Endpoint is set.
type TracingConfig struct {
	Endpoint       string // collector URL, e.g. http://localhost:4318 or a zipkin /api/v2/spans URL
	Exporter       string // otlp (default) or zipkin
	ServiceName    string
	ServiceVersion string
}

// Enabled reports whether spans leave the process.
func (c TracingConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// TracerProvider owns the SDK provider when tracing is enabled.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracerProvider builds a provider for cfg. A disabled config yields a
// no-op tracer and installs nothing globally.
func NewTracerProvider(cfg TracingConfig) (*TracerProvider, error) {
	if !cfg.Enabled() {
		return &TracerProvider{tracer: NopTracer()}, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = instrumentationName
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Exporter)) {
	case "", ExporterOTLP:
		exporter, err = otlptracehttp.New(context.Background(), otlptracehttp.WithEndpointURL(endpoint))
	case ExporterZipkin:
		exporter, err = zipkin.New(endpoint)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &TracerProvider{provider: provider, tracer: provider.Tracer(instrumentationName)}, nil
}

// Tracer returns the tracer handed to the API and upload clients.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Shutdown flushes buffered spans.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

// NopTracer returns a tracer that records nothing.
func NopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer(instrumentationName)
}

// TracerOrNop substitutes NopTracer for nil.
func TracerOrNop(t trace.Tracer) trace.Tracer {
	if t == nil {
		return NopTracer()
	}
	return t
}

// EndSpan tags span with the call outcome and ends it.
func EndSpan(span trace.Span, outcome Outcome, err error) {
	span.SetAttributes(attribute.String(AttrOutcome, string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if outcome != OutcomeSuccess {
		span.SetStatus(codes.Error, string(outcome))
	}
	span.End()
}
