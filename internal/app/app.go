// Package app assembles the domain services shared by the API and the workers.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/victorybazaar/victorybazaar-backend/internal/address"
	"github.com/victorybazaar/victorybazaar-backend/internal/cart"
	"github.com/victorybazaar/victorybazaar-backend/internal/categories"
	"github.com/victorybazaar/victorybazaar-backend/internal/gateways"
	"github.com/victorybazaar/victorybazaar-backend/internal/orders"
	"github.com/victorybazaar/victorybazaar-backend/internal/payments"
	"github.com/victorybazaar/victorybazaar-backend/internal/products"
	"github.com/victorybazaar/victorybazaar-backend/internal/users"
	"github.com/victorybazaar/victorybazaar-backend/internal/webhooks"
	"github.com/victorybazaar/victorybazaar-backend/internal/wishlist"
	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/metrics"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox"
	"github.com/victorybazaar/victorybazaar-backend/pkg/redis"
	"github.com/victorybazaar/victorybazaar-backend/pkg/square"
	"github.com/victorybazaar/victorybazaar-backend/pkg/stripe"
)

const webhookDedupeTTL = 24 * time.Hour

// Params are the shared resources every binary opens itself.
type Params struct {
	Config     *config.Config
	DB         *db.Client
	Redis      *redis.Client
	Logger     *logger.Logger
	Registerer prometheus.Registerer
}

// Services is the wired domain layer.
type Services struct {
	Products   products.Service
	Categories categories.Service
	Cart       cart.Service
	Orders     orders.Service
	OrdersRepo orders.Repository
	Payments   payments.Service
	Webhooks   *webhooks.Service
	Wishlist   wishlist.Service
	Users      users.Service
	Addresses  address.Service
	Gateways   *gateways.Registry
	Outbox     *outbox.Service
}

// Build wires repositories, collaborators and services in dependency order.
// Only the gateways whose credentials are configured are registered; cash on
// delivery is always available.
func Build(ctx context.Context, p Params) (*Services, error) {
	if p.Config == nil || p.DB == nil || p.Redis == nil || p.Logger == nil {
		return nil, errors.New("app: config, db, redis and logger are required")
	}
	cfg := p.Config
	gdb := p.DB.DB()

	pricing, err := cart.PricingFromConfig(cfg.Commerce)
	if err != nil {
		return nil, err
	}

	coupons, err := cart.LoadCouponBook(cfg.Commerce.CouponsFile, p.Redis)
	if err != nil {
		return nil, fmt.Errorf("load coupons: %w", err)
	}

	productRepo := products.NewRepository(gdb)
	productSvc, err := products.NewService(productRepo, p.Redis, cfg.Commerce.CatalogCacheTTL, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("products service: %w", err)
	}
	categorySvc, err := categories.NewService(categories.NewRepository(gdb))
	if err != nil {
		return nil, fmt.Errorf("categories service: %w", err)
	}

	cartSvc, err := cart.NewService(cart.NewRepository(gdb), productRepo, p.DB, coupons, pricing)
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}
	wishlistSvc, err := wishlist.NewService(wishlist.NewRepository(gdb), productRepo, cartSvc, p.DB, cfg.Commerce.FrontendURL)
	if err != nil {
		return nil, fmt.Errorf("wishlist service: %w", err)
	}
	usersSvc, err := users.NewService(users.NewRepository(gdb), p.Logger)
	if err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}
	addressSvc, err := address.NewService(address.NewRepository(gdb), p.DB, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("address service: %w", err)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), p.Logger)
	paymentRepo := payments.NewRepository(gdb)
	ordersRepo := orders.NewRepository(gdb)

	ordersSvc, err := orders.NewService(orders.Options{
		Repo:         ordersRepo,
		Tx:           p.DB,
		Outbox:       outboxSvc,
		Inventory:    products.NewInventory(productRepo),
		Cart:         cartSvc,
		Wishlist:     wishlistSvc,
		Coupons:      coupons,
		Payments:     payments.NewCanceller(paymentRepo),
		Loyalty:      usersSvc,
		Pricing:      pricing,
		Carrier:      cfg.Commerce.Carrier,
		DeliveryDays: cfg.Commerce.DeliveryDays,
		Logger:       p.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	registry, err := buildGateways(ctx, cfg, p.Logger, metrics.NewGatewayMetrics(p.Registerer))
	if err != nil {
		return nil, err
	}

	paymentsSvc, err := payments.NewService(payments.ServiceParams{
		Repo:     paymentRepo,
		Orders:   ordersRepo,
		Sync:     ordersSvc,
		Gateways: registry,
		Tx:       p.DB,
		Outbox:   outboxSvc,
		Logger:   p.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("payments service: %w", err)
	}

	guard, err := webhooks.NewIdempotencyGuard(p.Redis, webhookDedupeTTL)
	if err != nil {
		return nil, fmt.Errorf("webhook guard: %w", err)
	}
	webhookSvc, err := webhooks.NewService(webhooks.ServiceParams{
		Parsers:  registry,
		Payments: paymentsSvc,
		Guard:    guard,
		Logger:   p.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook service: %w", err)
	}

	return &Services{
		Products:   productSvc,
		Categories: categorySvc,
		Cart:       cartSvc,
		Orders:     ordersSvc,
		OrdersRepo: ordersRepo,
		Payments:   paymentsSvc,
		Webhooks:   webhookSvc,
		Wishlist:   wishlistSvc,
		Users:      usersSvc,
		Addresses:  addressSvc,
		Gateways:   registry,
		Outbox:     outboxSvc,
	}, nil
}

func buildGateways(ctx context.Context, cfg *config.Config, logg *logger.Logger, m *metrics.GatewayMetrics) (*gateways.Registry, error) {
	registry := gateways.NewRegistry(m)
	registry.Register(gateways.NewCash())

	httpClient := gateways.NewHTTPClient()
	if cfg.Razorpay.Enabled() {
		registry.Register(gateways.NewRazorpay(cfg.Razorpay, httpClient))
	}
	if cfg.PhonePe.Enabled() {
		registry.Register(gateways.NewPhonePe(cfg.PhonePe, httpClient))
	}
	if cfg.PayPal.Enabled() {
		paypal, err := gateways.NewPayPal(cfg.PayPal, cfg.PayPal.BaseURL(), httpClient)
		if err != nil {
			return nil, fmt.Errorf("paypal gateway: %w", err)
		}
		registry.Register(paypal)
	}
	if cfg.Stripe.Enabled() {
		client, err := stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, fmt.Errorf("stripe client: %w", err)
		}
		registry.Register(gateways.NewStripe(client.PaymentIntents()))
	}
	if cfg.Square.Enabled() {
		client, err := square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			return nil, fmt.Errorf("square client: %w", err)
		}
		registry.Register(gateways.NewSquare(client, cfg.Square.WebhookURL))
	}

	if logg != nil {
		var names []string
		for _, g := range registry.Available() {
			names = append(names, string(g))
		}
		logg.Info(logg.WithField(ctx, "gateways", names), "payment gateways registered")
	}
	return registry, nil
}
