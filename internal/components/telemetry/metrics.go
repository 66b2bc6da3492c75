package telemetry

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// SetupMetrics installs a global meter provider exporting to the configured OTLP
// endpoint every 5 seconds. If no endpoint is configured the global (no-op) provider is
// left untouched.
func SetupMetrics(ctx context.Context, serviceName string, config OtlpConfig) (shutdown func(context.Context) error, err error) {
	if !config.Enabled() {
		return func(context.Context) error { return nil }, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlpMetricExporter(ctx, config)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(time.Second*5))),
		sdkmetric.WithResource(r),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

func otlpMetricExporter(ctx context.Context, c OtlpConfig) (sdkmetric.Exporter, error) {
	if c.GrpcEndpoint != "" {
		slog.Info(
			"metric exporter initialized",
			"type", "grpc",
			"endpoint", c.GrpcEndpoint,
			"headers", len(c.Headers) > 0,
		)
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(c.GrpcEndpoint),
			otlpmetricgrpc.WithHeaders(c.Headers),
		)
	}

	slog.Info(
		"metric exporter initialized",
		"type", "http",
		"endpoint", c.HttpEndpoint,
		"headers", len(c.Headers) > 0,
	)
	return otlpmetrichttp.New(
		ctx,
		otlpmetrichttp.WithEndpointURL(c.HttpEndpoint),
		otlpmetrichttp.WithHeaders(c.Headers),
	)
}

// MeteredAPI forwards every report to an inner API and additionally records counts
// as OpenTelemetry gauges named after the report id.
type MeteredAPI struct {
	API
	meter metric.Meter

	mutex  sync.Mutex
	gauges map[string]metric.Int64Gauge
}

// NewMeteredAPI records counts with the meter of the global provider.
func NewMeteredAPI(inner API, meterName string) *MeteredAPI {
	return &MeteredAPI{
		API:    inner,
		meter:  otel.Meter(meterName),
		gauges: map[string]metric.Int64Gauge{},
	}
}

// metricName turns a (possibly scoped) report id like "gradebook: bundle.submissions"
// into a metric name like "gradebook.bundle.submissions".
func metricName(id string) string {
	return strings.ReplaceAll(id, ": ", ".")
}

func (m *MeteredAPI) gauge(id string) (metric.Int64Gauge, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	name := metricName(id)
	gauge, ok := m.gauges[name]
	if ok {
		return gauge, nil
	}
	gauge, err := m.meter.Int64Gauge(name)
	if err != nil {
		return nil, err
	}
	m.gauges[name] = gauge
	return gauge, nil
}

func (m *MeteredAPI) ReportCount(id string, count int64) {
	m.API.ReportCount(id, count)

	gauge, err := m.gauge(id)
	if err != nil {
		m.API.ReportBroken("telemetry.create-gauge", err, id)
		return
	}
	gauge.Record(context.Background(), count)
}
