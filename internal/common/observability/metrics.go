package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"eflyt-phone-lookup/internal/common/logger"
)

// Observability records run-level metrics through OpenTelemetry. The
// exporter publishes them on the default Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	runCounter    otelmetric.Int64Counter
	runDuration   otelmetric.Float64Histogram
	runAttempts   otelmetric.Int64Histogram
	records       otelmetric.Int64Counter
}

func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("Failed to create Prometheus exporter, run metrics disabled", map[string]interface{}{"error": err.Error()})
		return &Observability{}
	}
	o := newWithReader(serviceName, exporter)
	otel.SetMeterProvider(o.meterProvider)
	return o
}

func newWithReader(serviceName string, reader metric.Reader) *Observability {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	meter := provider.Meter(serviceName)

	runCounter, _ := meter.Int64Counter(
		"robot.runs",
		otelmetric.WithDescription("Completed robot runs by status"),
	)
	runDuration, _ := meter.Float64Histogram(
		"robot.run.duration",
		otelmetric.WithDescription("Robot run duration"),
		otelmetric.WithUnit("ms"),
	)
	runAttempts, _ := meter.Int64Histogram(
		"robot.run.attempts",
		otelmetric.WithDescription("Attempts used by a run"),
	)
	records, _ := meter.Int64Counter(
		"robot.records",
		otelmetric.WithDescription("Records reported by outcome"),
	)

	return &Observability{
		meterProvider: provider,
		runCounter:    runCounter,
		runDuration:   runDuration,
		runAttempts:   runAttempts,
		records:       records,
	}
}

func (o *Observability) RecordRun(ctx context.Context, status string, attempts int, duration time.Duration) {
	if o == nil || o.runCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	o.runCounter.Add(ctx, 1, attrs)
	o.runDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	o.runAttempts.Record(ctx, int64(attempts), attrs)
}

func (o *Observability) RecordRecords(ctx context.Context, outcome string, n int) {
	if o == nil || o.records == nil || n == 0 {
		return
	}
	o.records.Add(ctx, int64(n), otelmetric.WithAttributes(attribute.String("outcome", outcome)))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
