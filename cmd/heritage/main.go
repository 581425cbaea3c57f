// Command heritage serves the German Texas heritage marker map API. It loads
// the marker export once at startup, then polls it for changes.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/german-heritage-map/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/german-heritage-map/internal/adapter/kafka"
	"github.com/couchcryptid/german-heritage-map/internal/adapter/mapbox"
	"github.com/couchcryptid/german-heritage-map/internal/config"
	"github.com/couchcryptid/german-heritage-map/internal/domain"
	"github.com/couchcryptid/german-heritage-map/internal/observability"
	"github.com/couchcryptid/german-heritage-map/internal/pipeline"
	"github.com/couchcryptid/german-heritage-map/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Geocoding fallback is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, cfg.MapboxRateLimit, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "rate_limit", cfg.MapboxRateLimit)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	opts := domain.DefaultOptions()
	opts.Projection = domain.Projection{Zone: cfg.UTMZone, ZoneLetter: cfg.UTMZoneLetter}

	loader := pipeline.New(
		source.NewFile(cfg.SourcePath, cfg.SourceEncoding),
		pipeline.NewTransformer(opts, geocoder, logger),
		publisher,
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := loader.Load(ctx); err != nil {
		logger.Error("initial marker load failed", "source", cfg.SourcePath, "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, loader, httpadapter.QueryDefaults{
		Years: domain.YearRange{Min: cfg.YearMin, Max: cfg.YearMax},
		Limit: cfg.ResultLimit,
	}, metrics, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.ReloadInterval > 0 {
		g.Go(func() error {
			return loader.Run(gctx, cfg.ReloadInterval)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
