package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "datavask"

type Metrics struct {
	CoercedColumns    *prometheus.CounterVec
	DroppedPredicates prometheus.Counter
	TableReloads      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		CoercedColumns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "coercion_columns_total",
			Help:      "Columns handled by type coercion, by outcome.",
		}, []string{"status"}),
		DroppedPredicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "filter_predicates_dropped_total",
			Help:      "Filter predicates dropped because they could not be evaluated against their column.",
		}),
		TableReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "table_reloads_total",
			Help:      "Whole table rewrites of a working copy, by operation.",
		}, []string{"operation"}),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CoercedColumns,
		m.DroppedPredicates,
		m.TableReloads,
	}
}
