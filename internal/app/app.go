package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kegliz/statchain/internal/chainservice"
	"github.com/kegliz/statchain/internal/config"
	"github.com/kegliz/statchain/internal/logger"
	"github.com/kegliz/statchain/internal/metrics"
	"github.com/kegliz/statchain/internal/server"
	"github.com/kegliz/statchain/internal/server/router"
)

type (
	ServerOptions struct {
		C       *config.Config
		Version string
	}

	appServer struct {
		logger   *logger.Logger
		router   *router.Router
		cs       chainservice.Service
		registry *prometheus.Registry
		version  string
	}

	appServerOptions struct {
		logger   *logger.Logger
		router   *router.Router
		cs       chainservice.Service
		registry *prometheus.Registry
		version  string
	}
)

// newAppServer creates a new appServer.
func newAppServer(options appServerOptions) *appServer {
	a := &appServer{
		logger:   options.logger,
		router:   options.router,
		cs:       options.cs,
		registry: options.registry,
		version:  options.version,
	}
	a.router.SetRoutes(a.routes())
	return a
}

// Listen implements server.Server.
func (a *appServer) Listen(port int, localOnly bool) error {
	a.logger.Debug().Str("version", a.version).Msg("debug statchain server")
	a.logger.Info().
		Int("port", port).
		Bool("localOnly", localOnly).
		Msg("Starting statchain service")
	return a.router.Start(port, localOnly)
}

// Shutdown implements server.Server.
func (a *appServer) Shutdown(ctx context.Context) error {
	return a.router.Shutdown(ctx)
}

func NewServer(options ServerOptions) (server.Server, error) {
	l, r := server.NewLoggerAndRouter(server.EngineOptions{
		Debug: options.C.GetBool("debug"),
	})

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return nil, err
	}

	cs, err := chainservice.NewService(chainservice.ServiceOptions{
		Logger:  l,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}
	if err := cs.SetStrategy(options.C.GetString("strategy")); err != nil {
		return nil, err
	}

	app := newAppServer(appServerOptions{
		logger:   l,
		router:   r,
		cs:       cs,
		registry: registry,
		version:  options.Version,
	})

	return app, nil
}

func (a *appServer) getLoggerFromContext(c *gin.Context) (*logger.Logger, error) {
	if loggerInstance, ok := c.Get("logger"); ok {
		if loggerInstance, ok := loggerInstance.(*logger.Logger); ok {
			return loggerInstance, nil
		}
	}
	err := errors.New("logger not found in context")
	a.logger.Error().Err(err).Send()
	c.String(http.StatusInternalServerError, internalServerErrorMsg)
	return nil, err
}
