package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/uzairgheewala/dsc106-proj3/internal/adapter/fetch"
	httpadapter "github.com/uzairgheewala/dsc106-proj3/internal/adapter/http"
	"github.com/uzairgheewala/dsc106-proj3/internal/config"
	"github.com/uzairgheewala/dsc106-proj3/internal/observability"
	"github.com/uzairgheewala/dsc106-proj3/internal/store"
	"github.com/uzairgheewala/dsc106-proj3/internal/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load all three sources before serving; a partial dataset never
	// reaches the query surface.
	fetcher := fetch.NewClient(cfg, logger)
	loader := store.NewLoader(fetcher, store.Sources{
		CountryURI:  cfg.CountryDataURI,
		PlantURI:    cfg.PlantDataURI,
		BoundaryURI: cfg.BoundaryDataURI,
	}, cfg.BuffersKm, logger, metrics)

	st, err := loader.Load(ctx)
	if err != nil {
		logger.Error("failed to load datasets", "error", err)
		os.Exit(1)
	}

	facade := view.NewFacade(st)
	state := view.NewState(facade, logger, metrics)
	playback := view.NewPlayback(state, clockwork.NewRealClock(), cfg.PlaybackInterval, logger, metrics)

	state.OnFrame(func(fr view.Frame) {
		logger.Debug("frame recomputed",
			"year", fr.Snapshot.Year,
			"buffer_km", fr.Snapshot.BufferKm,
			"countries", len(fr.Choropleth),
			"plants", len(fr.Plants),
		)
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, facade, state, playback, logger, metrics)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	playback.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
