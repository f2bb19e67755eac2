package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blinkdb"

// Split kinds used as the "kind" label of Metrics.Splits.
const (
	SplitLeaf  = "leaf"
	SplitInner = "inner"
	SplitRoot  = "root"
)

// Metrics holds the Prometheus collectors updated by a tree. Register them on
// a private registry in tests to avoid clashing with the default one.
type Metrics struct {
	Queries prometheus.Counter
	Hits    prometheus.Counter
	Upserts prometheus.Counter
	Inserts prometheus.Counter
	Splits  *prometheus.CounterVec
	Height  prometheus.Gauge
	Entries prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Point lookups served.",
		}),
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_hits_total",
			Help:      "Point lookups that found a record.",
		}),
		Upserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upserts_total",
			Help:      "Insert-or-update calls.",
		}),
		Inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inserts_total",
			Help:      "Upserts that added a new key.",
		}),
		Splits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_total",
			Help:      "Node splits by kind.",
		}, []string{"kind"}),
		Height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_height",
			Help:      "Inner levels above the leaves.",
		}),
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_entries",
			Help:      "Distinct keys stored.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Queries, m.Hits, m.Upserts, m.Inserts, m.Splits, m.Height, m.Entries)
	}
	return m
}
