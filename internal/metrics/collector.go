package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// WatcherStats provides the collector access to watcher state.
type WatcherStats interface {
	PendingCount() int
	InFlightCount() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	pool  *pgxpool.Pool
	stats WatcherStats

	pendingFiles    *prometheus.Desc
	inFlightRuns    *prometheus.Desc
	dbTotalConns    *prometheus.Desc
	dbAcquiredConns *prometheus.Desc
	dbIdleConns     *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// pool may be nil (metrics will report 0). stats may be nil outside watch mode.
func NewCollector(pool *pgxpool.Pool, stats WatcherStats) *Collector {
	return &Collector{
		pool:  pool,
		stats: stats,
		pendingFiles: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ingest", "pending_files"),
			"Files waiting out the debounce window.",
			nil, nil,
		),
		inFlightRuns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ingest", "in_flight_runs"),
			"Chapter runs currently executing for watched files.",
			nil, nil,
		),
		dbTotalConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "total_conns"),
			"Total database pool connections.",
			nil, nil,
		),
		dbAcquiredConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "acquired_conns"),
			"Database pool connections currently in use.",
			nil, nil,
		),
		dbIdleConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "idle_conns"),
			"Database pool idle connections.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pendingFiles
	ch <- c.inFlightRuns
	ch <- c.dbTotalConns
	ch <- c.dbAcquiredConns
	ch <- c.dbIdleConns
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var pending, inFlight float64
	if c.stats != nil {
		pending = float64(c.stats.PendingCount())
		inFlight = float64(c.stats.InFlightCount())
	}
	ch <- prometheus.MustNewConstMetric(c.pendingFiles, prometheus.GaugeValue, pending)
	ch <- prometheus.MustNewConstMetric(c.inFlightRuns, prometheus.GaugeValue, inFlight)

	var total, acquired, idle float64
	if c.pool != nil {
		stat := c.pool.Stat()
		total = float64(stat.TotalConns())
		acquired = float64(stat.AcquiredConns())
		idle = float64(stat.IdleConns())
	}
	ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, total)
	ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, acquired)
	ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, idle)
}
