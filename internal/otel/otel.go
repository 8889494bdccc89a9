package otel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	otelxray "go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// SetupTracer installs a global tracer provider exporting to the local OTLP
// collector with X-Ray compatible ids and propagation. Detectors add
// platform attributes (Lambda, ECS) to the service resource.
func SetupTracer(ctx context.Context, svcName string, detectors ...resource.Detector) (*sdktrace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithInsecure(), otlptracegrpc.WithDialOption(grpc.WithBlock()))
	if err != nil {
		return nil, fmt.Errorf("create otel trace exporter: %w", err)
	}

	r, err := resource.New(ctx,
		resource.WithDetectors(detectors...),
		resource.WithAttributes(semconv.ServiceNameKey.String(svcName)),
	)
	if err != nil {
		return nil, fmt.Errorf("detect resource: %w", err)
	}

	idg := otelxray.NewIDGenerator()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(r),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithIDGenerator(idg),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(otelxray.Propagator{})
	return tp, nil
}

// XRayTraceID formats the span's trace id the way X-Ray prints it.
func XRayTraceID(span trace.Span) string {
	id := span.SpanContext().TraceID().String()
	if len(id) < 9 {
		return id
	}

	return fmt.Sprintf("1-%s-%s", id[:8], id[8:])
}

// WithTraceHeader returns ctx carrying the remote span described by an
// X-Ray trace header, so spans started from it join the caller's trace.
func WithTraceHeader(ctx context.Context, header string) context.Context {
	if header == "" {
		return ctx
	}

	carrier := propagation.HeaderCarrier(http.Header{})
	carrier.Set("X-Amzn-Trace-Id", header)
	return otelxray.Propagator{}.Extract(ctx, carrier)
}

// SpanErrorf formats an error and records it as the span's status.
func SpanErrorf(span trace.Span, format string, a ...any) error {
	err := fmt.Errorf(format, a...)
	span.SetStatus(codes.Error, err.Error())
	return err
}
