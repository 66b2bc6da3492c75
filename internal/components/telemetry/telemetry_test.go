package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestScopedAPI(t *testing.T) {
	rec := &RecorderAPI{}
	scoped := NewScopedAPI("canvas", NewScopedAPI("session", rec))

	scoped.ReportBroken("course.get-assignments", "boom")
	scoped.ReportWarning("conversation.start")
	scoped.ReportDebug("fetching page", 2)
	scoped.ReportCount("pages", 3)

	require.Len(t, rec.Reports, 4)
	require.Equal(t, "session: canvas: course.get-assignments", rec.Reports[0].Id)
	require.Equal(t, []any{"boom"}, rec.Reports[0].Params)
	require.Equal(t, "session: canvas: conversation.start", rec.Reports[1].Id)
	require.Equal(t, "session: canvas: fetching page", rec.Reports[2].Id)
	require.Equal(t, []any{int64(3)}, rec.Reports[3].Params)

	require.Equal(t, 1, rec.Count("broken"))
	require.Equal(t, 1, rec.Count("warning"))
	require.Equal(t, 0, rec.Count("unknown"))
}

func TestOtlpConfigEnabled(t *testing.T) {
	require.False(t, OtlpConfig{}.Enabled())
	require.True(t, OtlpConfig{HttpEndpoint: "http://localhost:4318"}.Enabled())
	require.True(t, OtlpConfig{GrpcEndpoint: "http://localhost:4317"}.Enabled())
}

func TestMeteredAPI(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	rec := &RecorderAPI{}
	tel := NewScopedAPI("gradebook", NewMeteredAPI(rec, "test"))
	tel.ReportCount("bundle.submissions", 4)
	tel.ReportCount("bundle.submissions", 6)
	tel.ReportWarning("unrelated")

	require.Equal(t, 2, rec.Count("count"))
	require.Equal(t, 1, rec.Count("warning"))

	var data metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &data)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, data.ScopeMetrics, 1)
	metrics := data.ScopeMetrics[0].Metrics
	require.Len(t, metrics, 1)
	require.Equal(t, "gradebook.bundle.submissions", metrics[0].Name)

	gauge, ok := metrics[0].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	require.Equal(t, int64(6), gauge.DataPoints[0].Value)
}

func TestMetricName(t *testing.T) {
	require.Equal(t, "canvas.course.get-users", metricName("canvas: course.get-users"))
	require.Equal(t, "pages", metricName("pages"))
}
