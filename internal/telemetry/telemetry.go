// Package telemetry configures OpenTelemetry tracing with a Zipkin exporter.
package telemetry

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Setup installs a global tracer provider that batches spans to the Zipkin
// collector at zipkinURL, e.g. "http://zipkin:9411/api/v2/spans". With an
// empty URL only the propagator is installed and spans are dropped.
//
// The returned func flushes pending spans.
func Setup(serviceName, zipkinURL string) (shutdown func(context.Context) error, err error) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	if zipkinURL == "" {
		log.Println("INFO: telemetry: ZIPKIN_URL not set, tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := zipkin.New(zipkinURL)
	if err != nil {
		return nil, fmt.Errorf("create zipkin exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	)
	otel.SetTracerProvider(tp)

	log.Printf("INFO: telemetry: exporting spans to %s", zipkinURL)
	return tp.Shutdown, nil
}
