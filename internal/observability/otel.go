package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

type OtelConfig struct {
	ServiceName string
	Environment string
	Exporter    string
	SampleRatio float64
}

func noopShutdown(context.Context) error { return nil }

// InitOTel installs the global tracer provider and W3C propagators. With the
// "none" exporter nothing is installed and the returned shutdown is a no-op.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) (func(context.Context) error, error) {
	exporter, err := buildTraceExporter(ctx, cfg.Exporter)
	if err != nil {
		return noopShutdown, err
	}
	if exporter == nil {
		return noopShutdown, nil
	}
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "dubmyyt"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		),
	)
	if err != nil && log != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if log != nil {
		log.Info("otel tracing initialized", "service", serviceName, "exporter", cfg.Exporter)
	}
	return tp.Shutdown, nil
}

func buildTraceExporter(ctx context.Context, kind string) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "none", "off":
		return nil, nil
	case "otlp":
		return otlptracehttp.New(ctx)
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown otel exporter %q", kind)
	}
}

func clampRatio(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
