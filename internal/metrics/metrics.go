package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/A1Liu/interloc/pkg/stats"
)

type fetchFn func() stats.AllocStats

// StatsCollector exposes a stats source as Prometheus counters. The
// source is sampled on every scrape through the fetch closure, so no
// per-event metric cost is added to the allocation path.
type StatsCollector struct {
	fetch fetchFn

	allocs           *prometheus.Desc
	deallocs         *prometheus.Desc
	reallocs         *prometheus.Desc
	allocatedBytes   *prometheus.Desc
	deallocatedBytes *prometheus.Desc
}

func NewStatsCollector(source string, fetch func() stats.AllocStats) *StatsCollector {
	labels := prometheus.Labels{"source": source}
	return &StatsCollector{
		fetch: fetch,
		allocs: prometheus.NewDesc(
			"interloc_allocs_total",
			"Allocate and allocate-zeroed calls observed",
			nil, labels,
		),
		deallocs: prometheus.NewDesc(
			"interloc_deallocs_total",
			"Deallocate calls observed",
			nil, labels,
		),
		reallocs: prometheus.NewDesc(
			"interloc_reallocs_total",
			"Reallocate calls observed",
			nil, labels,
		),
		allocatedBytes: prometheus.NewDesc(
			"interloc_allocated_bytes_total",
			"Cumulative bytes requested by allocate and reallocate calls",
			nil, labels,
		),
		deallocatedBytes: prometheus.NewDesc(
			"interloc_deallocated_bytes_total",
			"Cumulative bytes given up by deallocate and reallocate calls",
			nil, labels,
		),
	}
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.allocs
	ch <- c.deallocs
	ch <- c.reallocs
	ch <- c.allocatedBytes
	ch <- c.deallocatedBytes
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.fetch()
	ch <- prometheus.MustNewConstMetric(c.allocs, prometheus.CounterValue, float64(s.Allocs))
	ch <- prometheus.MustNewConstMetric(c.deallocs, prometheus.CounterValue, float64(s.Deallocs))
	ch <- prometheus.MustNewConstMetric(c.reallocs, prometheus.CounterValue, float64(s.Reallocs))
	ch <- prometheus.MustNewConstMetric(c.allocatedBytes, prometheus.CounterValue, float64(s.BytesAllocated))
	ch <- prometheus.MustNewConstMetric(c.deallocatedBytes, prometheus.CounterValue, float64(s.BytesDeallocated))
}

// RegisterStatsCollector registers a collector for source in the
// default registry.
func RegisterStatsCollector(source string, fetch func() stats.AllocStats) error {
	return prometheus.Register(NewStatsCollector(source, fetch))
}
