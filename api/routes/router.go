package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/victorybazaar/victorybazaar-backend/api/controllers"
	cartcontrollers "github.com/victorybazaar/victorybazaar-backend/api/controllers/cart"
	ordercontrollers "github.com/victorybazaar/victorybazaar-backend/api/controllers/orders"
	paymentcontrollers "github.com/victorybazaar/victorybazaar-backend/api/controllers/payments"
	webhookcontrollers "github.com/victorybazaar/victorybazaar-backend/api/controllers/webhooks"
	"github.com/victorybazaar/victorybazaar-backend/api/middleware"
	"github.com/victorybazaar/victorybazaar-backend/internal/address"
	"github.com/victorybazaar/victorybazaar-backend/internal/cart"
	"github.com/victorybazaar/victorybazaar-backend/internal/categories"
	"github.com/victorybazaar/victorybazaar-backend/internal/orders"
	"github.com/victorybazaar/victorybazaar-backend/internal/payments"
	"github.com/victorybazaar/victorybazaar-backend/internal/products"
	"github.com/victorybazaar/victorybazaar-backend/internal/users"
	"github.com/victorybazaar/victorybazaar-backend/internal/webhooks"
	"github.com/victorybazaar/victorybazaar-backend/internal/wishlist"
	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/metrics"
	"github.com/victorybazaar/victorybazaar-backend/pkg/redis"
)

type sessionManager interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type webhookHandler interface {
	Handle(ctx context.Context, gateway enums.PaymentGateway, payload []byte, headers http.Header) (*webhooks.Result, error)
}

// Deps carries everything the HTTP surface needs. Nil services answer 500 on
// their routes instead of panicking.
type Deps struct {
	Sessions    sessionManager
	Limiter     rateLimiter
	Idempotency redis.IdempotencyStore
	Readiness   map[string]controllers.Pinger
	HTTPMetrics *metrics.HTTPMetrics

	Products   products.Service
	Categories categories.Service
	Cart       cart.Service
	Orders     orders.Service
	Payments   payments.Service
	Webhooks   webhookHandler
	Wishlist   wishlist.Service
	Users      users.Service
	Addresses  address.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedOrigins),
		middleware.RateLimit(deps.Limiter, cfg.RateLimit.Limit, cfg.RateLimit.Window, logg),
	)

	authenticated := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	operator := middleware.RequireOperator(logg)
	idempotent := middleware.Idempotency(deps.Idempotency, middleware.IdempotencyTTL, logg)
	critical := middleware.Idempotency(deps.Idempotency, middleware.CriticalIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.Products, logg))
		r.Get("/search", controllers.ProductSearch(deps.Products, logg))
		r.Get("/featured", controllers.ProductFeatured(deps.Products, logg))
		r.Get("/trending", controllers.ProductTrending(deps.Products, logg))
		r.Get("/category/{category}", controllers.ProductsByCategory(deps.Products, logg))
		r.Get("/{id}", controllers.ProductDetail(deps.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated, operator)
			r.Post("/", controllers.ProductCreate(deps.Products, logg))
			r.Put("/{id}", controllers.ProductUpdate(deps.Products, logg))
			r.Delete("/{id}", controllers.ProductDelete(deps.Products, logg))
			r.Patch("/{id}/stock", controllers.ProductUpdateStock(deps.Products, logg))
			r.Patch("/{id}/status", controllers.ProductUpdateStatus(deps.Products, logg))
		})
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", controllers.CategoryList(deps.Categories, logg))
		r.Get("/featured", controllers.CategoryFeatured(deps.Categories, logg))
		r.Get("/{slug}", controllers.CategoryBySlug(deps.Categories, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated, operator)
			r.Post("/", controllers.CategoryCreate(deps.Categories, logg))
			r.Put("/{id}", controllers.CategoryUpdate(deps.Categories, logg))
			r.Delete("/{id}", controllers.CategoryDelete(deps.Categories, logg))
		})
	})

	r.Route("/api/payments", func(r chi.Router) {
		// Gateways post here unauthenticated; the signature is the credential.
		r.Post("/webhook/{gateway}", webhookcontrollers.PaymentWebhook(deps.Webhooks, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.With(critical).Post("/create", paymentcontrollers.Create(deps.Payments, logg))
			r.Post("/verify", paymentcontrollers.Verify(deps.Payments, logg))
			r.Get("/order/{orderId}", paymentcontrollers.GetByOrder(deps.Payments, logg))
			r.Get("/{paymentId}", paymentcontrollers.Get(deps.Payments, logg))
			r.With(operator, idempotent).Post("/{paymentId}/capture", paymentcontrollers.Capture(deps.Payments, logg))
			r.With(operator, idempotent).Post("/{paymentId}/refund", paymentcontrollers.Refund(deps.Payments, logg))
		})
	})

	r.Route("/api/wishlist", func(r chi.Router) {
		r.Get("/public/{userId}", controllers.WishlistPublic(deps.Wishlist, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", controllers.WishlistGet(deps.Wishlist, logg))
			r.Post("/items", controllers.WishlistAddItem(deps.Wishlist, logg))
			r.Delete("/items/{productId}", controllers.WishlistRemoveItem(deps.Wishlist, logg))
			r.Patch("/items/{productId}/priority", controllers.WishlistUpdatePriority(deps.Wishlist, logg))
			r.Post("/items/{productId}/move-to-cart", controllers.WishlistMoveToCart(deps.Wishlist, logg))
			r.Delete("/clear", controllers.WishlistClear(deps.Wishlist, logg))
			r.Patch("/visibility", controllers.WishlistUpdateVisibility(deps.Wishlist, logg))
			r.Post("/share", controllers.WishlistShare(deps.Wishlist, logg))
			r.Get("/suggestions", controllers.WishlistSuggestions(deps.Wishlist, logg))
			r.Get("/analytics", controllers.WishlistAnalytics(deps.Wishlist, logg))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Post("/api/auth/logout", controllers.AuthLogout(deps.Sessions, logg))

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
			r.Put("/items/{productId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
			r.Delete("/clear", cartcontrollers.CartClear(deps.Cart, logg))
			r.Get("/totals", cartcontrollers.CartTotals(deps.Cart, logg))
			r.Post("/apply-coupon", cartcontrollers.CartApplyCoupon(deps.Cart, logg))
			r.Delete("/remove-coupon", cartcontrollers.CartRemoveCoupon(deps.Cart, logg))
		})

		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.With(critical).Post("/", ordercontrollers.Create(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Put("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			r.Get("/{orderId}/tracking", ordercontrollers.Tracking(deps.Orders, logg))
		})

		r.Route("/api/users", func(r chi.Router) {
			r.Post("/sync", controllers.UserSync(deps.Users, logg))
			r.Get("/profile", controllers.UserProfile(deps.Users, logg))
			r.Put("/profile", controllers.UserUpdateProfile(deps.Users, logg))
			r.Get("/preferences", controllers.UserPreferences(deps.Users, logg))
			r.Put("/preferences", controllers.UserUpdatePreferences(deps.Users, logg))
			r.Get("/loyalty", controllers.UserLoyalty(deps.Users, logg))
		})

		r.Route("/api/address", func(r chi.Router) {
			r.Get("/", controllers.AddressList(deps.Addresses, logg))
			r.Post("/", controllers.AddressCreate(deps.Addresses, logg))
			r.Get("/default", controllers.AddressDefault(deps.Addresses, logg))
			r.Post("/validate", controllers.AddressValidate(deps.Addresses, logg))
			r.Put("/{addressId}", controllers.AddressUpdate(deps.Addresses, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(deps.Addresses, logg))
			r.Patch("/{addressId}/set-default", controllers.AddressSetDefault(deps.Addresses, logg))
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(operator)
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.AdminList(deps.Orders, logg))
				r.Put("/{orderId}/status", ordercontrollers.AdminUpdateStatus(deps.Orders, logg))
				r.Put("/{orderId}/payment-status", ordercontrollers.AdminUpdatePaymentStatus(deps.Orders, logg))
			})
			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminUserList(deps.Users, logg))
				r.Get("/{id}", controllers.AdminUserGet(deps.Users, logg))
				r.Patch("/{id}/status", controllers.AdminUserUpdateStatus(deps.Users, logg))
			})
		})
	})

	return r
}
