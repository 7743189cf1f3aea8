package catalog

import "github.com/prometheus/client_golang/prometheus"

const labelOp = "op"

type Metrics struct {
	Products        prometheus.Gauge
	Version         prometheus.Gauge
	Mutations       *prometheus.CounterVec
	PersistFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Products currently in the catalog",
		}),
		Version: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_snapshot_version",
			Help: "Version of the latest catalog snapshot",
		}),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_mutations_total",
				Help: "Catalog commits by operation",
			},
			[]string{labelOp},
		),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_persist_failures_total",
			Help: "Snapshot writes or deletes that failed",
		}),
	}

	reg.MustRegister(m.Products, m.Version, m.Mutations, m.PersistFailures)
	return m
}

// Sync sets the gauges from snap without counting a mutation.
func (m *Metrics) Sync(snap Snapshot) {
	m.Products.Set(float64(len(snap.Products)))
	m.Version.Set(float64(snap.Version))
}

// Observe is a Listener.
func (m *Metrics) Observe(ch Change) {
	m.Sync(ch.Snapshot)
	m.Mutations.WithLabelValues(string(ch.Op)).Inc()
	if ch.Err != nil {
		m.PersistFailures.Inc()
	}
}
