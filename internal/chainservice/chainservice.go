// Package chainservice is the service façade the HTTP surface consumes:
// it owns one chain graph and bridges its observer stream into
// prometheus metrics.
package chainservice

import (
	"github.com/kegliz/statchain/internal/logger"
	"github.com/kegliz/statchain/internal/metrics"
	"github.com/kegliz/statchain/sc/builder"
	"github.com/kegliz/statchain/sc/dag"
	"github.com/kegliz/statchain/sc/snapshot"
	"github.com/kegliz/statchain/sc/stat"
)

type (
	// ServiceOptions are options for constructing a service.
	ServiceOptions struct {
		Logger  *logger.Logger
		Graph   *dag.Graph
		Metrics *metrics.Metrics
	}

	Service interface {
		Snapshot() (*snapshot.Snapshot, error)
		Values() (map[string]float64, error)
		Order() ([]string, error)
		Fit(source string, values []float64) error
		SetStrategy(name string) error
	}

	service struct {
		graph   *dag.Graph
		logger  *logger.Logger
		metrics *metrics.Metrics
	}
)

// NewService creates a new service. When no graph is supplied a demo
// chain is built so the server has something to show.
func NewService(opts ServiceOptions) (Service, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewLogger(logger.LoggerOptions{Debug: false})
	}
	g := opts.Graph
	if g == nil {
		var err error
		g, err = NewDemoGraph(opts.Logger)
		if err != nil {
			return nil, err
		}
	}
	s := &service{
		graph:   g,
		logger:  opts.Logger.SpawnForService("chainservice"),
		metrics: opts.Metrics,
	}
	if s.metrics != nil {
		if err := s.wireMetrics(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// wireMetrics subscribes a metrics observer on every vertex so each
// effective update is counted and the gauge tracks the cached value.
func (s *service) wireMetrics() error {
	for _, id := range s.graph.Vertices() {
		vertexLabel := string(id)
		_, err := s.graph.AddObserver(id, func(_ dag.VertexID, value float64, _ []float64) {
			s.metrics.VertexUpdates.WithLabelValues(vertexLabel).Inc()
			s.metrics.VertexValues.WithLabelValues(vertexLabel).Set(value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// NewDemoGraph builds a small pipeline over a single tick source:
// running mean, variance and extrema, a spike counter behind a filter
// and a scaled mirror behind a transform.
func NewDemoGraph(l *logger.Logger) (*dag.Graph, error) {
	return builder.New(builder.Logger(l)).
		Vertex("ticks", stat.NewMean()).
		Vertex("mean", stat.NewMean()).
		Vertex("variance", stat.NewVariance()).
		Vertex("extrema", stat.NewExtrema()).
		Vertex("spikes", stat.NewCounter()).
		Vertex("scaled", stat.NewMean()).
		Edge("ticks", "mean").
		Edge("ticks", "variance").
		Edge("ticks", "extrema").
		EdgeWith("ticks", "spikes", dag.WithFilter(func(x float64) bool { return x > 100 })).
		EdgeWith("ticks", "scaled", dag.WithTransform(func(xs ...float64) float64 { return xs[0] / 100 })).
		Build()
}

// Snapshot implements Service.
func (s *service) Snapshot() (*snapshot.Snapshot, error) {
	return snapshot.Take(s.graph)
}

// Values implements Service. Under lazy strategy this refreshes dirty
// vertices on demand.
func (s *service) Values() (map[string]float64, error) {
	out := make(map[string]float64)
	for _, id := range s.graph.Vertices() {
		v, err := s.graph.Value(id)
		if err != nil {
			return nil, err
		}
		out[string(id)] = v
	}
	return out, nil
}

// Order implements Service.
func (s *service) Order() ([]string, error) {
	order, err := s.graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(order))
	for i, id := range order {
		out[i] = string(id)
	}
	return out, nil
}

// Fit implements Service.
func (s *service) Fit(source string, values []float64) error {
	s.logger.Debug().Str("source", source).Int("samples", len(values)).Msg("ingesting batch")
	if err := s.graph.FitBatch(dag.VertexID(source), values); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.SamplesIngested.Add(float64(len(values)))
	}
	return nil
}

// SetStrategy implements Service.
func (s *service) SetStrategy(name string) error {
	strategy, err := dag.ParseStrategy(name)
	if err != nil {
		return err
	}
	s.logger.Info().Str("strategy", strategy.String()).Msg("switching strategy")
	return s.graph.SetStrategy(strategy)
}
