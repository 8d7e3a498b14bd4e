package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/victorybazaar/victorybazaar-backend/internal/relay"
	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/metrics"
	"github.com/victorybazaar/victorybazaar-backend/pkg/migrate"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/registry"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	cfg.Service.Kind = "outbox-publisher"
	logg = logger.FromApp("outbox-publisher", cfg.App)

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	defer closeQuietly(ctx, logg, "database", dbClient.Close)

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer closeQuietly(ctx, logg, "pubsub", pubsubClient.Close)
	requireResource(ctx, logg, "pubsub topics", pubsubClient.Ping(ctx))

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	requireResource(ctx, logg, "event registry", err)

	outboxRelay, err := relay.New(relay.Params{
		Outbox:     cfg.Outbox,
		Ordering:   cfg.PubSub.MessageOrdering,
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		DLQ:        outbox.NewDLQRepository(dbClient.DB()),
		Registry:   eventRegistry,
		Topics:     relay.NewPubSubTopics(pubsubClient, cfg.PubSub.MessageOrdering),
		Metrics:    metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
		Warm:       eventRegistry.Topics(),
	})
	requireResource(ctx, logg, "outbox relay", err)
	defer outboxRelay.Close()

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithField(runCtx, "topics", eventRegistry.Topics())
	metrics.ServeBackground(runCtx, cfg.App.MetricsAddr, logg)
	logg.Info(runCtx, "outbox publisher ready")

	if err := outboxRelay.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "outbox publisher failed", err)
		os.Exit(1)
	}
}

func closeQuietly(ctx context.Context, logg *logger.Logger, resource string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "failed to close "+resource, err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
