// Package metrics exposes SortStats and ClientStats as Prometheus
// collectors on an admin HTTP endpoint, independent of the client- and
// worker-facing TCP sockets.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netsort/distsort/internal/registry"
	"github.com/netsort/distsort/internal/stats"
)

// Collector adapts SortStats, ClientStats and the worker registry to
// prometheus.Collector by sampling them on every scrape rather than
// pushing updates — the counters already live behind their own locks,
// so a pull model avoids a second copy of the synchronization.
type Collector struct {
	sortStats   *stats.SortStats
	clientStats *stats.ClientStats
	registry    *registry.Registry

	bytesProcessed  *prometheus.Desc
	numbersSorted   *prometheus.Desc
	totalErrors     *prometheus.Desc
	avgResponseTime *prometheus.Desc
	totalOps        *prometheus.Desc
	successfulOps   *prometheus.Desc
	activeWorkers   *prometheus.Desc
	totalWorkers    *prometheus.Desc
}

// NewCollector builds a Collector over the given stats and registry.
func NewCollector(sortStats *stats.SortStats, clientStats *stats.ClientStats, reg *registry.Registry) *Collector {
	return &Collector{
		sortStats:   sortStats,
		clientStats: clientStats,
		registry:    reg,
		bytesProcessed: prometheus.NewDesc(
			"distsort_bytes_processed_total", "Total bytes received from clients as framed input.", nil, nil),
		numbersSorted: prometheus.NewDesc(
			"distsort_numbers_sorted_total", "Total integers sorted across all completed jobs.", nil, nil),
		totalErrors: prometheus.NewDesc(
			"distsort_worker_errors_total", "Total worker round trips that failed.", nil, nil),
		avgResponseTime: prometheus.NewDesc(
			"distsort_worker_response_seconds_avg", "Running mean of successful worker round-trip latency.", nil, nil),
		totalOps: prometheus.NewDesc(
			"distsort_client_operations_total", "Total client sort operations attempted.", nil, nil),
		successfulOps: prometheus.NewDesc(
			"distsort_client_operations_successful_total", "Total client sort operations that produced a result.", nil, nil),
		activeWorkers: prometheus.NewDesc(
			"distsort_workers_active", "Number of workers considered reachable as of the last probe.", nil, nil),
		totalWorkers: prometheus.NewDesc(
			"distsort_workers_registered", "Number of workers currently registered, active or not.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesProcessed
	ch <- c.numbersSorted
	ch <- c.totalErrors
	ch <- c.avgResponseTime
	ch <- c.totalOps
	ch <- c.successfulOps
	ch <- c.activeWorkers
	ch <- c.totalWorkers
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	sort := c.sortStats.Snapshot()
	client := c.clientStats.Snapshot()
	workers := c.registry.Snapshot()

	active := 0
	for _, w := range workers {
		if w.Active {
			active++
		}
	}

	ch <- prometheus.MustNewConstMetric(c.bytesProcessed, prometheus.CounterValue, float64(sort.BytesProcessed))
	ch <- prometheus.MustNewConstMetric(c.numbersSorted, prometheus.CounterValue, float64(sort.NumbersSorted))
	ch <- prometheus.MustNewConstMetric(c.totalErrors, prometheus.CounterValue, float64(sort.TotalErrors))
	ch <- prometheus.MustNewConstMetric(c.avgResponseTime, prometheus.GaugeValue, sort.AvgResponseTime)
	ch <- prometheus.MustNewConstMetric(c.totalOps, prometheus.CounterValue, float64(client.TotalOperations))
	ch <- prometheus.MustNewConstMetric(c.successfulOps, prometheus.CounterValue, float64(client.SuccessfulOperations))
	ch <- prometheus.MustNewConstMetric(c.activeWorkers, prometheus.GaugeValue, float64(active))
	ch <- prometheus.MustNewConstMetric(c.totalWorkers, prometheus.GaugeValue, float64(len(workers)))
}

// Serve registers the collector against a dedicated registry (not the
// global default, so tests can instantiate more than one Collector
// without a duplicate-registration panic) and starts an HTTP server on
// addr exposing it at /metrics. It blocks until the server stops.
func Serve(addr string, c *Collector) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return http.ListenAndServe(addr, mux)
}
