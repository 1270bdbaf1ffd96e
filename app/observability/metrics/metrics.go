package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	CollectorCyclesTotal       metric.Int64Counter
	CollectorFetchErrorsTotal  metric.Int64Counter
	CollectorSamplesTotal      metric.Int64Counter
	InsightGenerationSeconds   metric.Float64Histogram
	SummarizerFailuresTotal    metric.Int64Counter
	DbQueryErrorsTotal         metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("weathervane")
		var err error
		m := &AppMetrics{}

		m.CollectorCyclesTotal, err = meter.Int64Counter(
			"collector_cycles_total",
			metric.WithDescription("Total number of completed collection cycles"),
			metric.WithUnit("{cycle}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create collector_cycles_total: %v", err)
		}

		m.CollectorFetchErrorsTotal, err = meter.Int64Counter(
			"collector_fetch_errors_total",
			metric.WithDescription("Total number of failed per-location weather fetches"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create collector_fetch_errors_total: %v", err)
		}

		m.CollectorSamplesTotal, err = meter.Int64Counter(
			"collector_samples_total",
			metric.WithDescription("Total number of weather samples persisted by the collector"),
			metric.WithUnit("{sample}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create collector_samples_total: %v", err)
		}

		m.InsightGenerationSeconds, err = meter.Float64Histogram(
			"insight_generation_seconds",
			metric.WithDescription("Duration of insight aggregation runs in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create insight_generation_seconds: %v", err)
		}

		m.SummarizerFailuresTotal, err = meter.Int64Counter(
			"summarizer_failures_total",
			metric.WithDescription("Total number of narrative summarizer failures (absorbed)"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create summarizer_failures_total: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
