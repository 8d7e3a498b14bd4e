package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/victorybazaar/victorybazaar-backend/api"
	"github.com/victorybazaar/victorybazaar-backend/api/controllers"
	"github.com/victorybazaar/victorybazaar-backend/api/routes"
	"github.com/victorybazaar/victorybazaar-backend/internal/app"
	"github.com/victorybazaar/victorybazaar-backend/pkg/auth/session"
	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/env"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/metrics"
	"github.com/victorybazaar/victorybazaar-backend/pkg/migrate"
	"github.com/victorybazaar/victorybazaar-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	cfg.Service.Kind = "api"
	logg = logger.FromApp("api", cfg.App)

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	defer closeQuietly(ctx, logg, "database", dbClient.Close)

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer closeQuietly(ctx, logg, "redis", redisClient.Close)

	sessionManager, err := session.NewManager(redisClient)
	requireResource(ctx, logg, "session manager", err)

	services, err := app.Build(ctx, app.Params{
		Config:     cfg,
		DB:         dbClient,
		Redis:      redisClient,
		Logger:     logg,
		Registerer: prometheus.DefaultRegisterer,
	})
	requireResource(ctx, logg, "services", err)

	handler := routes.NewRouter(cfg, logg, routes.Deps{
		Sessions:    sessionManager,
		Limiter:     redisClient,
		Idempotency: redisClient,
		Readiness: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		HTTPMetrics: metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Products:    services.Products,
		Categories:  services.Categories,
		Cart:        services.Cart,
		Orders:      services.Orders,
		Payments:    services.Payments,
		Webhooks:    services.Webhooks,
		Wishlist:    services.Wishlist,
		Users:       services.Users,
		Addresses:   services.Addresses,
	})

	addr := env.ListenAddr(cfg.App.Port)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithField(runCtx, "addr", addr)
	logg.Info(runCtx, "api ready")

	if err := api.Run(runCtx, api.NewServer(addr, handler), logg); err != nil {
		logg.Error(runCtx, "api server failed", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "api stopped")
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
