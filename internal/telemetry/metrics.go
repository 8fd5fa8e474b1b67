package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/cfauth"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	LoginAttemptsTotal metric.Int64Counter
	LoginFailuresTotal metric.Int64Counter
	LoginDuration      metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = NewMetrics(otel.GetMeterProvider())
	})
	return metrics
}

// NewMetrics creates the metric instruments from provider.
func NewMetrics(provider metric.MeterProvider) *Metrics {
	meter := provider.Meter(meterName)

	m := &Metrics{}

	m.LoginAttemptsTotal, _ = meter.Int64Counter(
		"cfauth.login.attempts.total",
		metric.WithDescription("Total number of Vault login attempts"),
		metric.WithUnit("{attempt}"),
	)

	m.LoginFailuresTotal, _ = meter.Int64Counter(
		"cfauth.login.failures.total",
		metric.WithDescription("Total number of failed Vault login attempts by reason"),
		metric.WithUnit("{failure}"),
	)

	m.LoginDuration, _ = meter.Float64Histogram(
		"cfauth.login.duration",
		metric.WithDescription("Duration of Vault login attempts"),
		metric.WithUnit("s"),
	)

	return m
}
