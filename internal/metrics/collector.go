package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/VividCortex/ewma"
)

// Collector is an in-process Metrics implementation. Counters are keyed by
// label tuples and latencies are smoothed with an exponentially weighted
// moving average per series.
type Collector struct {
	mu        sync.Mutex
	started   time.Time
	counters  map[string]uint64
	latencies map[string]ewma.MovingAverage
	gauges    map[string]float64
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		started:   time.Now(),
		counters:  make(map[string]uint64),
		latencies: make(map[string]ewma.MovingAverage),
		gauges:    make(map[string]float64),
	}
}

func (c *Collector) inc(key string) {
	c.mu.Lock()
	c.counters[key]++
	c.mu.Unlock()
}

func (c *Collector) observe(key string, d time.Duration) {
	c.mu.Lock()
	avg, ok := c.latencies[key]
	if !ok {
		avg = ewma.NewMovingAverage()
		c.latencies[key] = avg
	}
	avg.Add(float64(d.Microseconds()) / 1000)
	c.mu.Unlock()
}

func (c *Collector) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	c.inc(fmt.Sprintf("http_requests{method=%s,endpoint=%s,status=%d}", method, endpoint, statusCode))
	c.observe(fmt.Sprintf("http_latency_ms{endpoint=%s}", endpoint), duration)
}

func (c *Collector) RecordBackendCall(endpoint, status string, duration time.Duration) {
	c.inc(fmt.Sprintf("backend_calls{endpoint=%s,status=%s}", endpoint, status))
	c.observe(fmt.Sprintf("backend_latency_ms{endpoint=%s}", endpoint), duration)
}

func (c *Collector) RecordAlertAction(action, status string) {
	c.inc(fmt.Sprintf("alert_actions{action=%s,status=%s}", action, status))
}

func (c *Collector) RecordForecastFallback(reason string) {
	c.inc(fmt.Sprintf("forecast_fallbacks{reason=%s}", reason))
}

func (c *Collector) RecordPipelineRun(source string, duration time.Duration) {
	c.inc(fmt.Sprintf("pipeline_runs{source=%s}", source))
	c.observe(fmt.Sprintf("pipeline_latency_ms{source=%s}", source), duration)
}

func (c *Collector) SetDBConnectionsActive(count float64) {
	c.mu.Lock()
	c.gauges["db_connections_active"] = count
	c.mu.Unlock()
}

func (c *Collector) RecordDBQuery(operation, status string) {
	c.inc(fmt.Sprintf("db_queries{operation=%s,status=%s}", operation, status))
}

// Counter returns the current value of a counter series
func (c *Collector) Counter(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[key]
}

// Latency returns the smoothed latency in milliseconds for a series
func (c *Collector) Latency(key string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if avg, ok := c.latencies[key]; ok {
		return avg.Value()
	}
	return 0
}

// Snapshot is the JSON document served by Handler
type Snapshot struct {
	UptimeSeconds float64            `json:"uptime_seconds"`
	Counters      map[string]uint64  `json:"counters"`
	LatenciesMs   map[string]float64 `json:"latencies_ms"`
	Gauges        map[string]float64 `json:"gauges"`
	Series        []string           `json:"series"`
}

// Snapshot copies the current state
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		UptimeSeconds: time.Since(c.started).Seconds(),
		Counters:      make(map[string]uint64, len(c.counters)),
		LatenciesMs:   make(map[string]float64, len(c.latencies)),
		Gauges:        make(map[string]float64, len(c.gauges)),
	}
	for k, v := range c.counters {
		s.Counters[k] = v
		s.Series = append(s.Series, k)
	}
	for k, v := range c.latencies {
		s.LatenciesMs[k] = v.Value()
		s.Series = append(s.Series, k)
	}
	for k, v := range c.gauges {
		s.Gauges[k] = v
		s.Series = append(s.Series, k)
	}
	sort.Strings(s.Series)
	return s
}

// Handler serves the snapshot as JSON
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c.Snapshot())
	})
}
