package main

import (
	"context"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/lookatitude/skill-engine/o11y"
)

// initObservability wires o11y's tracer and meter to real exporters instead
// of leaving them on the OTel SDK's process-wide no-op default. Tracing
// exports to an OTLP/gRPC collector when SKILL_ENGINE_OTEL_ENDPOINT is set,
// falling back to a stdout exporter (handy for `skill serve` run locally
// with nothing else listening) rather than silently dropping spans.
// Metrics always get a Prometheus reader; the caller is responsible for
// mounting metricsHandler() somewhere (cmd/skill serve does, on --addr's
// router).
//
// Returns a shutdown func that flushes both providers; it is always safe
// to call even if tracing/metrics setup partially failed.
func initObservability(serviceName string) (shutdown func(context.Context), err error) {
	var traceShutdown func()
	endpoint := os.Getenv("SKILL_ENGINE_OTEL_ENDPOINT")
	if endpoint != "" {
		exp, expErr := otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if expErr != nil {
			return func(context.Context) {}, expErr
		}
		traceShutdown, err = o11y.InitTracer(serviceName, o11y.WithSpanExporter(exp))
	} else {
		exp, expErr := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if expErr != nil {
			return func(context.Context) {}, expErr
		}
		traceShutdown, err = o11y.InitTracer(serviceName, o11y.WithSpanExporter(exp))
	}
	if err != nil {
		return func(context.Context) {}, err
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return func(context.Context) {}, err
	}
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(promExporter))
	otel.SetMeterProvider(meterProvider)
	if err := o11y.InitMeter(serviceName); err != nil {
		return func(context.Context) {}, err
	}

	return func(ctx context.Context) {
		traceShutdown()
		_ = meterProvider.Shutdown(ctx)
	}, nil
}

// metricsHandler exposes the process's OTel-collected metrics in Prometheus
// exposition format via the client_golang default registry's HTTP handler,
// the same handoff the teacher's single-binary deployment example notes but
// never finished wiring.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
