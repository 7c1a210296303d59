// Package otel configures OpenTelemetry export and turns the lifecycle
// events of the event bus into spans.
package otel

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hanpama/graphcore/internal/eventbus"
)

// Config selects the signals to export.
type Config struct {
	ServiceName string
	// OTLPEndpoint is the host:port of an OTLP gRPC collector receiving
	// traces and logs. Empty disables both.
	OTLPEndpoint string
	// Insecure dials the collector without TLS.
	Insecure bool
	// Metrics enables the Prometheus exporter.
	Metrics bool
}

// Telemetry holds the providers created by Setup.
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider
	unsubscribe    func()
}

// Setup configures OpenTelemetry and attaches the span subscriber to bus.
// Signals that are not configured are left to the global no-op providers.
func Setup(ctx context.Context, cfg Config, bus *eventbus.Bus) (*Telemetry, error) {
	t := &Telemetry{unsubscribe: func() {}}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.OTLPEndpoint != "" {
		traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			traceOpts = append(traceOpts, otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
			logOpts = append(logOpts, otlploggrpc.WithInsecure())
		}

		traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		t.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExp),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(t.tracerProvider)
		otel.SetTextMapPropagator(propagation.TraceContext{})
		t.unsubscribe = Subscribe(bus, t.tracerProvider.Tracer("graphcore"))

		logExp, err := otlploggrpc.New(ctx, logOpts...)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
		t.loggerProvider = sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		)
	}

	if cfg.Metrics {
		exp, err := prometheus.New()
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		t.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exp),
		)
		otel.SetMeterProvider(t.meterProvider)
	}
	return t, nil
}

// LoggerProvider returns the OTLP logger provider, or nil when logs are not
// exported.
func (t *Telemetry) LoggerProvider() *sdklog.LoggerProvider { return t.loggerProvider }

// MetricsHandler serves the Prometheus scrape endpoint, or returns nil when
// metrics are disabled.
func (t *Telemetry) MetricsHandler() http.Handler {
	if t.meterProvider == nil {
		return nil
	}
	return promhttp.Handler()
}

// Shutdown flushes and stops every provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.unsubscribe()
	var result *multierror.Error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("meter provider: %w", err))
		}
	}
	if t.loggerProvider != nil {
		if err := t.loggerProvider.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("logger provider: %w", err))
		}
	}
	return result.ErrorOrNil()
}
