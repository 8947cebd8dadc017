// Package poolstats exposes fetch.Fetcher's connection pool and response
// cache occupancy as Prometheus metrics.
package poolstats

import (
	"github.com/prometheus/client_golang/prometheus"
)

var _ prometheus.Collector = (*Collector)(nil)

// Stat is the snapshot of pool and cache occupancy a fetch.Fetcher
// returns from its Stat method (see Stater).
type Stat interface {
	PooledConnections() int
	OpenedConnections() int64
	CacheEntries() int
	CacheHits() int64
	CacheMisses() int64
}

type staterFunc func() Stat

// Collector is a prometheus.Collector that reports the five statistics
// produced by a fetch.Fetcher's connection pool and response cache.
type Collector struct {
	name string
	stat staterFunc

	pooledConnsDesc  *prometheus.Desc
	openedConnsDesc  *prometheus.Desc
	cacheEntriesDesc *prometheus.Desc
	cacheHitsDesc    *prometheus.Desc
	cacheMissesDesc  *prometheus.Desc
}

// Stater is a provider of the Stat() function. Implemented by *fetch.Fetcher.
type Stater interface {
	Stat() Stat
}

// NewCollector creates a new Collector to collect stats from a fetch.Fetcher.
//
// name labels the metrics, which matters when a process runs more than one
// Fetcher (e.g. one per browser tab) and wants to tell them apart.
func NewCollector(stater Stater, name string) *Collector {
	fn := func() Stat { return stater.Stat() }
	return newCollector(fn, name)
}

func newCollector(fn staterFunc, name string) *Collector {
	return &Collector{
		name: name,
		stat: fn,
		pooledConnsDesc: prometheus.NewDesc(
			"gorushi_fetch_pooled_connections",
			"Number of TCP/TLS connections currently held open in the pool.",
			staticLabels, nil),
		openedConnsDesc: prometheus.NewDesc(
			"gorushi_fetch_opened_connections_total",
			"Cumulative count of connections opened by the fetcher.",
			staticLabels, nil),
		cacheEntriesDesc: prometheus.NewDesc(
			"gorushi_fetch_cache_entries",
			"Number of entries currently held in the response cache, including expired ones not yet evicted.",
			staticLabels, nil),
		cacheHitsDesc: prometheus.NewDesc(
			"gorushi_fetch_cache_hits_total",
			"Cumulative count of fetches served from the response cache.",
			staticLabels, nil),
		cacheMissesDesc: prometheus.NewDesc(
			"gorushi_fetch_cache_misses_total",
			"Cumulative count of fetches that required network activity.",
			staticLabels, nil),
	}
}

var staticLabels = []string{"fetcher"}

// Describe implements the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

// Collect implements the prometheus.Collector interface.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	s := c.stat()
	metrics <- prometheus.MustNewConstMetric(
		c.pooledConnsDesc,
		prometheus.GaugeValue,
		float64(s.PooledConnections()),
		c.name,
	)
	metrics <- prometheus.MustNewConstMetric(
		c.openedConnsDesc,
		prometheus.CounterValue,
		float64(s.OpenedConnections()),
		c.name,
	)
	metrics <- prometheus.MustNewConstMetric(
		c.cacheEntriesDesc,
		prometheus.GaugeValue,
		float64(s.CacheEntries()),
		c.name,
	)
	metrics <- prometheus.MustNewConstMetric(
		c.cacheHitsDesc,
		prometheus.CounterValue,
		float64(s.CacheHits()),
		c.name,
	)
	metrics <- prometheus.MustNewConstMetric(
		c.cacheMissesDesc,
		prometheus.CounterValue,
		float64(s.CacheMisses()),
		c.name,
	)
}
