package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kegliz/statchain/internal/app"
	"github.com/kegliz/statchain/internal/config"
	"github.com/kegliz/statchain/internal/logger"
)

var version = "dev"

func main() {
	l := logger.NewLogger(logger.LoggerOptions{Debug: false})

	c, err := config.Load()
	if err != nil {
		l.Fatal().Err(err).Msg("loading configuration failed")
	}

	srv, err := app.NewServer(app.ServerOptions{C: c, Version: version})
	if err != nil {
		l.Fatal().Err(err).Msg("building server failed")
	}

	go func() {
		err := srv.Listen(c.GetInt("port"), c.GetBool("local-only"))
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("shutdown failed")
	}
}
