package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DBPoolStats is a snapshot of connection pool state.
type DBPoolStats struct {
	Total        int32
	Idle         int32
	Acquired     int32
	Max          int32
	AcquireCount int64
	// EmptyAcquireCount counts acquires that had to wait for a connection.
	EmptyAcquireCount int64
	AcquireDuration   time.Duration
}

// DBPoolStatFunc returns pool statistics without importing pgxpool.
type DBPoolStatFunc func() DBPoolStats

type dbPoolCollector struct {
	stats DBPoolStatFunc

	total        *prometheus.Desc
	idle         *prometheus.Desc
	acquired     *prometheus.Desc
	max          *prometheus.Desc
	acquires     *prometheus.Desc
	emptyAcquire *prometheus.Desc
	acquireWait  *prometheus.Desc
}

// NewDBPoolCollector creates a collector that reads pool stats on every scrape.
func NewDBPoolCollector(stats DBPoolStatFunc) prometheus.Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("pulse_db_pool_"+name, help, nil, nil)
	}
	return &dbPoolCollector{
		stats:        stats,
		total:        desc("total_conns", "Total number of connections in the DB pool."),
		idle:         desc("idle_conns", "Number of idle connections in the DB pool."),
		acquired:     desc("acquired_conns", "Number of acquired connections in the DB pool."),
		max:          desc("max_conns", "Maximum size of the DB pool."),
		acquires:     desc("acquires_total", "Total number of successful connection acquires."),
		emptyAcquire: desc("empty_acquires_total", "Acquires that waited because the pool was empty."),
		acquireWait:  desc("acquire_seconds_total", "Cumulative time spent acquiring connections."),
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.total, c.idle, c.acquired, c.max, c.acquires, c.emptyAcquire, c.acquireWait} {
		ch <- d
	}
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v)
	}
	gauge(c.total, float64(s.Total))
	gauge(c.idle, float64(s.Idle))
	gauge(c.acquired, float64(s.Acquired))
	gauge(c.max, float64(s.Max))
	counter(c.acquires, float64(s.AcquireCount))
	counter(c.emptyAcquire, float64(s.EmptyAcquireCount))
	counter(c.acquireWait, s.AcquireDuration.Seconds())
}
