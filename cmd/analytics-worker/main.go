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

	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/router"
	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/worker"
	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/writer"
	"github.com/victorybazaar/victorybazaar-backend/pkg/bigquery"
	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/metrics"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/idempotency"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pubsub"
	"github.com/victorybazaar/victorybazaar-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "analytics-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "analytics-worker"

	logg = logger.FromApp("analytics-worker", cfg.App)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer closeQuietly(ctx, logg, "redis", redisClient.Close)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer closeQuietly(ctx, logg, "pubsub", pubsubClient.Close)

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery client", err)
	defer closeQuietly(ctx, logg, "bigquery", bqClient.Close)

	requireResource(ctx, logg, "pubsub subscriptions", pubsubClient.Ping(ctx))

	subscriptions := pubsubClient.AnalyticsSubscriptions()
	if len(subscriptions) == 0 {
		requireResource(ctx, logg, "analytics subscription", errors.New("subscription not configured"))
	}

	ledger, err := idempotency.NewLedger(redisClient, "analytics", cfg.BigQuery.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency ledger", err)

	analyticsWriter, err := writer.New(bqClient, writer.Config{
		OrderTable:   bqClient.OrderTable(),
		PaymentTable: bqClient.PaymentTable(),
	})
	requireResource(ctx, logg, "analytics bigquery writer", err)

	routingHandler, err := router.NewRouter(analyticsWriter, logg, nil)
	requireResource(ctx, logg, "analytics router", err)

	service, err := worker.NewService(worker.Params{
		Subscriptions: subscriptions,
		Handler:       routingHandler,
		Dedupe:        ledger,
		Logger:        logg,
		Metrics:       metrics.NewAnalyticsMetrics(prometheus.DefaultRegisterer),
	})
	requireResource(ctx, logg, "analytics worker service", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithField(runCtx, "subscriptions", len(subscriptions))
	metrics.ServeBackground(runCtx, cfg.App.MetricsAddr, logg)
	logg.Info(runCtx, "analytics worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "analytics worker failed", err)
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
