package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zahanati/dashboard-backend"

// Metrics holds the sync pipeline's instruments
type Metrics struct {
	DatesSynced       metric.Int64Counter
	RecordsUpserted   metric.Int64Counter
	SyncFailures      metric.Int64Counter
	SyncDuration      metric.Float64Histogram
	CacheInvalidation metric.Int64Counter
	RequestCount      metric.Int64Counter
	RequestDuration   metric.Float64Histogram
}

// Setup initializes OpenTelemetry trace and metric providers
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace exporter
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Set up metric exporter
	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		return meterProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	datesSynced, err := meter.Int64Counter(
		"sync.dates.count",
		metric.WithDescription("Number of dates synced"),
	)
	if err != nil {
		return nil, err
	}

	recordsUpserted, err := meter.Int64Counter(
		"sync.records.upserted",
		metric.WithDescription("Number of visit records upserted"),
	)
	if err != nil {
		return nil, err
	}

	syncFailures, err := meter.Int64Counter(
		"sync.failures.count",
		metric.WithDescription("Number of failed date syncs"),
	)
	if err != nil {
		return nil, err
	}

	syncDuration, err := meter.Float64Histogram(
		"sync.duration",
		metric.WithDescription("End to end duration of one date sync in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheInvalidation, err := meter.Int64Counter(
		"cache.invalidation.count",
		metric.WithDescription("Number of cache invalidation sweeps"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"http.requests.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.requests.duration",
		metric.WithDescription("Duration of HTTP requests in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		DatesSynced:       datesSynced,
		RecordsUpserted:   recordsUpserted,
		SyncFailures:      syncFailures,
		SyncDuration:      syncDuration,
		CacheInvalidation: cacheInvalidation,
		RequestCount:      requestCount,
		RequestDuration:   requestDuration,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// SetSpanAttributes attaches attributes to a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records count and duration for one HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, route string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	)
	metrics.RequestCount.Add(ctx, 1, attrs)
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordSyncMetric records the outcome of one date sync
func RecordSyncMetric(ctx context.Context, metrics *Metrics, date string, records int, success bool, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("sync.date", date),
		attribute.Bool("sync.success", success),
	}
	if success {
		metrics.DatesSynced.Add(ctx, 1, metric.WithAttributes(attrs...))
		metrics.RecordsUpserted.Add(ctx, int64(records), metric.WithAttributes(attrs...))
	} else {
		metrics.SyncFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	metrics.SyncDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCacheInvalidation records one invalidation sweep
func RecordCacheInvalidation(ctx context.Context, metrics *Metrics) {
	if metrics == nil {
		return
	}
	metrics.CacheInvalidation.Add(ctx, 1)
}
