// Command dashboard serves the Kampung Spirit survey dashboard: it reads an
// .xlsx survey workbook, geocodes postal codes through OneMap, and exposes
// the charts, map, and table over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kampungspirit/kampung-insights/internal/adapter/httpserver"
	"github.com/kampungspirit/kampung-insights/internal/adapter/onemap"
	"github.com/kampungspirit/kampung-insights/internal/adapter/workbook"
	"github.com/kampungspirit/kampung-insights/internal/config"
	"github.com/kampungspirit/kampung-insights/internal/dataset"
	"github.com/kampungspirit/kampung-insights/internal/domain"
	"github.com/kampungspirit/kampung-insights/internal/observability"
	"github.com/kampungspirit/kampung-insights/internal/report"
	"github.com/kampungspirit/kampung-insights/internal/schema"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	sch := schema.Default()
	if cfg.SchemaPath != "" {
		sch, err = schema.LoadFile(cfg.SchemaPath)
		if err != nil {
			logger.Error("failed to load schema", "path", cfg.SchemaPath, "error", err)
			os.Exit(1)
		}
		logger.Info("schema loaded", "path", cfg.SchemaPath, "fields", len(sch.Fields))
	}

	// Initialize geocoder (feature-flagged via GEOCODE_ENABLED).
	var geocoder domain.Geocoder
	if cfg.GeocodeEnabled {
		client := onemap.NewClient(cfg.OneMapBaseURL, cfg.OneMapTimeout, metrics, logger)
		geocoder = onemap.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("onemap geocoding enabled",
			"cache_size", cfg.GeocodeCacheSize,
			"workers", cfg.GeocodeWorkers,
			"timeout", cfg.OneMapTimeout,
		)
	} else {
		logger.Info("onemap geocoding disabled")
	}

	reader := workbook.NewReader(cfg.WorkbookPath)
	enricher := dataset.NewEnricher(geocoder, cfg.GeocodeWorkers, logger)
	store := dataset.NewStore(reader, enricher, sch, logger, metrics)

	watcher, err := dataset.NewWatcher(cfg.WorkbookPath, store, 250*time.Millisecond, logger)
	if err != nil {
		logger.Error("failed to create workbook watcher", "error", err)
		os.Exit(1)
	}

	mapView := report.MapView{
		CenterLat: cfg.MapCenterLat,
		CenterLon: cfg.MapCenterLon,
		Zoom:      cfg.MapZoom,
	}
	builder := report.NewBuilder(store, sch, mapView, logger, metrics)

	srv := httpserver.NewServer(cfg.HTTPAddr, store, builder, mapView, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the workbook watcher.
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Error("workbook watcher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := watcher.Close(); err != nil {
		logger.Error("workbook watcher close error", "error", err)
	}

	logger.Info("shutdown complete")
}
