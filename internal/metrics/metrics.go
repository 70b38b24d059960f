package metrics

import (
	"net/http"
	"time"
)

// Metrics interface for dependency injection
type Metrics interface {
	RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration)
	RecordBackendCall(endpoint, status string, duration time.Duration)
	RecordAlertAction(action, status string)
	RecordForecastFallback(reason string)
	RecordPipelineRun(source string, duration time.Duration)
	SetDBConnectionsActive(count float64)
	RecordDBQuery(operation, status string)
	Handler() http.Handler
}

// NoOpMetrics provides a no-op implementation
type NoOpMetrics struct{}

func (m *NoOpMetrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
}
func (m *NoOpMetrics) RecordBackendCall(endpoint, status string, duration time.Duration) {}
func (m *NoOpMetrics) RecordAlertAction(action, status string)                          {}
func (m *NoOpMetrics) RecordForecastFallback(reason string)                             {}
func (m *NoOpMetrics) RecordPipelineRun(source string, duration time.Duration)          {}
func (m *NoOpMetrics) SetDBConnectionsActive(count float64)                             {}
func (m *NoOpMetrics) RecordDBQuery(operation, status string)                           {}
func (m *NoOpMetrics) Handler() http.Handler                                            { return http.NotFoundHandler() }

// Global metrics instance
var globalMetrics Metrics = &NoOpMetrics{}

// Init installs the in-process collector as the global metrics sink
func Init() *Collector {
	c := NewCollector()
	globalMetrics = c
	return c
}

// Set replaces the global metrics sink; passing nil restores the no-op one
func Set(m Metrics) {
	if m == nil {
		m = &NoOpMetrics{}
	}
	globalMetrics = m
}

// Handler returns the metrics handler
func Handler() http.Handler {
	return globalMetrics.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	globalMetrics.RecordHTTPRequest(method, endpoint, statusCode, duration)
}

// RecordBackendCall records an upstream weather backend call
func RecordBackendCall(endpoint, status string, duration time.Duration) {
	globalMetrics.RecordBackendCall(endpoint, status, duration)
}

// RecordAlertAction records an alert lifecycle action such as acknowledge
func RecordAlertAction(action, status string) {
	globalMetrics.RecordAlertAction(action, status)
}

// RecordForecastFallback records a forecast served from the synthetic set
func RecordForecastFallback(reason string) {
	globalMetrics.RecordForecastFallback(reason)
}

// RecordPipelineRun records pipeline run metrics
func RecordPipelineRun(source string, duration time.Duration) {
	globalMetrics.RecordPipelineRun(source, duration)
}

// SetDBConnectionsActive sets the number of active database connections
func SetDBConnectionsActive(count float64) {
	globalMetrics.SetDBConnectionsActive(count)
}

// RecordDBQuery records database query metrics
func RecordDBQuery(operation, status string) {
	globalMetrics.RecordDBQuery(operation, status)
}
