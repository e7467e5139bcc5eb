package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Config de trazas. Sin Endpoint la telemetría queda desactivada (tracer no-op global).
type Config struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
}

// Init configura el TracerProvider global y devuelve la función de apagado.
func Init(ctx context.Context, cfg Config, log *zap.Logger) (func(context.Context), error) {
	noop := func(context.Context) {}
	if cfg.Endpoint == "" {
		log.Info("Tracing disabled: no OTLP endpoint configured")
		return noop, nil
	}
	if cfg.ServiceName == "" {
		return noop, errors.New("service name cannot be empty")
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return noop, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Info("📡 Tracing enabled", zap.String("endpoint", cfg.Endpoint))

	return func(ctx context.Context) {
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("Error shutting down tracer provider", zap.Error(err))
		}
	}, nil
}
