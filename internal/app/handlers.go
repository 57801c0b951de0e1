package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kegliz/statchain/sc/dag"
)

// FitRequest is the body of an ingestion request.
type FitRequest struct {
	Source string    `json:"source"`
	Values []float64 `json:"values"`
}

// StrategyRequest is the body of a strategy switch request.
type StrategyRequest struct {
	Strategy string `json:"strategy"`
}

var badRequestErrorMsg = "Bad Request - please contact the administrator"
var internalServerErrorMsg = "Internal Server Error - please contact the administrator"

// HealthHandler is the handler for the /healthz endpoint
func (a *appServer) HealthHandler(c *gin.Context) {
	l, err := a.getLoggerFromContext(c)
	if err != nil {
		panic("logger not found in context")
	}
	l.Debug().Msg("serving health endpoint")
	c.String(http.StatusOK, "OK")
}

// GraphHandler serves the snapshot of the chain graph
func (a *appServer) GraphHandler(c *gin.Context) {
	l, err := a.getLoggerFromContext(c)
	if err != nil {
		panic("logger not found in context")
	}
	l.Debug().Msg("serving graph snapshot endpoint")

	snap, err := a.cs.Snapshot()
	if err != nil {
		l.Error().Err(err).Msg("taking snapshot failed")
		c.String(http.StatusInternalServerError, internalServerErrorMsg)
		return
	}
	c.PureJSON(http.StatusOK, snap)
}

// OrderHandler serves the topological order of the chain graph
func (a *appServer) OrderHandler(c *gin.Context) {
	l, err := a.getLoggerFromContext(c)
	if err != nil {
		panic("logger not found in context")
	}
	l.Debug().Msg("serving topological order endpoint")

	order, err := a.cs.Order()
	if err != nil {
		l.Error().Err(err).Msg("computing order failed")
		c.String(http.StatusInternalServerError, internalServerErrorMsg)
		return
	}
	c.PureJSON(http.StatusOK, gin.H{"order": order})
}

// ValuesHandler serves the current value of every vertex
func (a *appServer) ValuesHandler(c *gin.Context) {
	l, err := a.getLoggerFromContext(c)
	if err != nil {
		panic("logger not found in context")
	}
	l.Debug().Msg("serving values endpoint")

	values, err := a.cs.Values()
	if err != nil {
		l.Error().Err(err).Msg("reading values failed")
		c.String(http.StatusInternalServerError, internalServerErrorMsg)
		return
	}
	c.PureJSON(http.StatusOK, gin.H{"values": values})
}

// FitHandler ingests a batch of samples at a source vertex
func (a *appServer) FitHandler(c *gin.Context) {
	l, err := a.getLoggerFromContext(c)
	if err != nil {
		panic("logger not found in context")
	}
	l.Debug().Msg("serving fit endpoint")

	var req FitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Error().Err(err).Msg("binding JSON failed")
		c.String(http.StatusBadRequest, badRequestErrorMsg)
		return
	}
	if req.Source == "" || len(req.Values) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and values are required"})
		return
	}

	if err := a.cs.Fit(req.Source, req.Values); err != nil {
		if errors.Is(err, dag.ErrUnknownVertex) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		l.Error().Err(err).Str("source", req.Source).Msg("ingestion failed")
		c.String(http.StatusInternalServerError, internalServerErrorMsg)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingested": len(req.Values)})
}

// StrategyHandler switches the evaluation strategy
func (a *appServer) StrategyHandler(c *gin.Context) {
	l, err := a.getLoggerFromContext(c)
	if err != nil {
		panic("logger not found in context")
	}
	l.Debug().Msg("serving strategy endpoint")

	var req StrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Error().Err(err).Msg("binding JSON failed")
		c.String(http.StatusBadRequest, badRequestErrorMsg)
		return
	}
	if err := a.cs.SetStrategy(req.Strategy); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategy": req.Strategy})
}

// MetricsHandler exposes the prometheus registry
func (a *appServer) MetricsHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
