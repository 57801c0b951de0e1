package builder

import (
	"github.com/kegliz/statchain/internal/logger"
	"github.com/kegliz/statchain/sc/dag"
)

type config struct {
	strategy dag.Strategy
	logger   *logger.Logger
}

// Option configures the builder before any vertex is added.
type Option func(*config)

// Strategy sets the evaluation strategy of the built graph.
func Strategy(s dag.Strategy) Option {
	return func(c *config) { c.strategy = s }
}

// Logger routes the graph's captured observer panics to l.
func Logger(l *logger.Logger) Option {
	return func(c *config) { c.logger = l }
}
