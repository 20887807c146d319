// Package telemetry instruments wi's storage calls with OpenTelemetry.
//
// Nothing is recorded unless WI_OTEL_ENABLED=true. Exporters:
//
//	WI_OTEL_STDOUT=true                  spans and metrics printed to stderr
//	OTEL_EXPORTER_OTLP_ENDPOINT=...      metrics pushed over OTLP/HTTP
//	OTEL_SERVICE_NAME=...                service name (default "wi")
//
// Stdout is left alone so --json output stays parseable.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/steveyegge/workitems"

const (
	debugMetricInterval = 15 * time.Second
	otlpMetricInterval  = 30 * time.Second
)

// Config selects the exporters installed by InitWith.
type Config struct {
	Enabled      bool
	Debug        bool      // print spans and metrics to DebugWriter
	DebugWriter  io.Writer // defaults to os.Stderr
	OTLPEndpoint string    // host:port or URL for OTLP/HTTP metrics
	ServiceName  string
}

// ConfigFromEnv reads the WI_OTEL_* and OTEL_* variables.
func ConfigFromEnv() Config {
	endpoint := firstNonEmpty(
		os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
		os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	)
	return Config{
		Enabled:      Enabled(),
		Debug:        os.Getenv("WI_OTEL_STDOUT") == "true",
		OTLPEndpoint: endpoint,
		ServiceName:  os.Getenv("OTEL_SERVICE_NAME"),
	}
}

var shutdownFns []func(context.Context) error

// Enabled reports whether WI_OTEL_ENABLED=true.
func Enabled() bool {
	return os.Getenv("WI_OTEL_ENABLED") == "true"
}

// Init installs providers configured from the environment.
func Init(ctx context.Context, serviceName, version string) error {
	cfg := ConfigFromEnv()
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}
	return InitWith(ctx, cfg, version)
}

// InitWith installs global providers for cfg. A disabled config installs
// no-op providers.
func InitWith(ctx context.Context, cfg Config, version string) error {
	if !cfg.Enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}
	if cfg.DebugWriter == nil {
		cfg.DebugWriter = os.Stderr
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(version),
		),
		resource.WithProcess(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	metricOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.Debug {
		spans, err := stdouttrace.New(stdouttrace.WithWriter(cfg.DebugWriter), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("telemetry: span exporter: %w", err)
		}
		// Syncer so every span of a short CLI run is written before exit.
		traceOpts = append(traceOpts, sdktrace.WithSyncer(spans))

		metrics, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.DebugWriter))
		if err != nil {
			return fmt.Errorf("telemetry: metric exporter: %w", err)
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metrics, sdkmetric.WithInterval(debugMetricInterval)),
		))
	}
	if cfg.OTLPEndpoint != "" {
		exp, err := buildOTLPMetricExporter(ctx, cfg.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("telemetry: otlp metric exporter: %w", err)
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(otlpMetricInterval)),
		))
	}

	tp := sdktrace.NewTracerProvider(traceOpts...)
	mp := sdkmetric.NewMeterProvider(metricOpts...)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	shutdownFns = append(shutdownFns, tp.Shutdown, mp.Shutdown)
	return nil
}

// Tracer returns the named tracer, or the module-wide one for "".
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Tracer(name)
}

// Meter returns the named meter, or the module-wide one for "".
func Meter(name string) metric.Meter {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Meter(name)
}

// Shutdown flushes and stops the providers installed by Init.
func Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range shutdownFns {
		errs = append(errs, fn(ctx))
	}
	shutdownFns = nil
	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
