// Package metrics exposes prometheus instruments for the chain engine.
// The per-vertex instruments are fed from vertex observers and
// SamplesIngested by the chain service, so the engine core stays free of
// any metrics dependency. ObserverPanics is registered, but no code in
// this module increments it: the engine reports captured observer panics
// only through its logger.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	SamplesIngested prometheus.Counter
	VertexUpdates   *prometheus.CounterVec
	VertexValues    *prometheus.GaugeVec
	ObserverPanics  prometheus.Counter
}

func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		SamplesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statchain_samples_ingested_total",
			Help: "Number of samples ingested at source vertices",
		}),
		VertexUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statchain_vertex_updates_total",
			Help: "Number of effective updates per vertex",
		}, []string{"vertex"}),
		VertexValues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statchain_vertex_value",
			Help: "Current cached value per vertex",
		}, []string{"vertex"}),
		ObserverPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statchain_observer_panics_total",
			Help: "Number of captured observer panics",
		}),
	}

	collectors := []prometheus.Collector{
		m.SamplesIngested,
		m.VertexUpdates,
		m.VertexValues,
		m.ObserverPanics,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
