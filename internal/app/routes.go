package app

import (
	"net/http"

	"github.com/kegliz/statchain/internal/server/router"
)

func (a *appServer) routes() []*router.Route {
	return []*router.Route{
		{
			Name:        "health",
			Method:      http.MethodGet,
			Pattern:     "/healthz",
			HandlerFunc: a.HealthHandler,
		},
		{
			Name:        "api.graph",
			Method:      http.MethodGet,
			Pattern:     "/api/v1/graph",
			HandlerFunc: a.GraphHandler,
		},
		{
			Name:        "api.order",
			Method:      http.MethodGet,
			Pattern:     "/api/v1/order",
			HandlerFunc: a.OrderHandler,
		},
		{
			Name:        "api.values",
			Method:      http.MethodGet,
			Pattern:     "/api/v1/values",
			HandlerFunc: a.ValuesHandler,
		},
		{
			Name:        "api.fit",
			Method:      http.MethodPost,
			Pattern:     "/api/v1/fit",
			HandlerFunc: a.FitHandler,
		},
		{
			Name:        "api.strategy",
			Method:      http.MethodPost,
			Pattern:     "/api/v1/strategy",
			HandlerFunc: a.StrategyHandler,
		},
		{
			Name:        "metrics",
			Method:      http.MethodGet,
			Pattern:     "/metrics",
			HandlerFunc: a.MetricsHandler(),
		},
	}
}
