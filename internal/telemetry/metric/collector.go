package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/ledgermesh-go/internal/core/lockreg"
)

// Collector exports lock registry statistics gathered at scrape time.
type Collector struct {
	stats func() lockreg.Stats

	entries  *prometheus.Desc
	pinned   *prometheus.Desc
	limit    *prometheus.Desc
	sweeping *prometheus.Desc
}

// NewCollector creates a collector reading from stats.
func NewCollector(stats func() lockreg.Stats) *Collector {
	return &Collector{
		stats: stats,
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "lock", "entries"),
			"Lock entries currently held by the registry.", nil, nil),
		pinned: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "lock", "pinned_entries"),
			"Lock entries pinned by in-flight operations.", nil, nil),
		limit: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "lock", "max_entries"),
			"Entry count above which a sweep is triggered.", nil, nil),
		sweeping: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "lock", "sweeping"),
			"1 while a sweep is running.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.pinned
	ch <- c.limit
	ch <- c.sweeping
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	sweeping := 0.0
	if s.Sweeping {
		sweeping = 1
	}
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Entries))
	ch <- prometheus.MustNewConstMetric(c.pinned, prometheus.GaugeValue, float64(s.Pinned))
	ch <- prometheus.MustNewConstMetric(c.limit, prometheus.GaugeValue, float64(s.MaxEntries))
	ch <- prometheus.MustNewConstMetric(c.sweeping, prometheus.GaugeValue, sweeping)
}

// WatchLockRegistry registers a Collector for locks.
func (r *Registry) WatchLockRegistry(locks *lockreg.Registry) {
	r.registry.MustRegister(NewCollector(locks.Stats))
}
