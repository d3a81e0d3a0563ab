package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"pos-service/pkg/config"
)

// Init configures an OTLP HTTP exporter when an endpoint is configured.
// Without one tracing stays a no-op and the returned shutdown does nothing.
func Init(ctx context.Context, log *zap.Logger, cfg *config.Config) (func(context.Context) error, error) {
	endpoint := cfg.Tracing.Endpoint
	if endpoint == "" {
		log.Info("Tracing disabled: OTEL_EXPORTER_OTLP_ENDPOINT not set")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Server.Env),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Info("Tracing initialized", zap.String("endpoint", endpoint))
	return tp.Shutdown, nil
}
