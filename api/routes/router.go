package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nearbuy-labs/nearbuy-backend/api/controllers"
	"github.com/nearbuy-labs/nearbuy-backend/api/middleware"
	cartsvc "github.com/nearbuy-labs/nearbuy-backend/internal/cart"
	checkoutsvc "github.com/nearbuy-labs/nearbuy-backend/internal/checkout"
	deliverysvc "github.com/nearbuy-labs/nearbuy-backend/internal/delivery"
	ordersvc "github.com/nearbuy-labs/nearbuy-backend/internal/orders"
	settlementsvc "github.com/nearbuy-labs/nearbuy-backend/internal/settlement"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/config"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/db"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/gateway"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/logger"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Gateway     *gateway.Client
	Registry    *prometheus.Registry
	Cart        cartsvc.Service
	Checkout    checkoutsvc.Service
	Orders      ordersvc.Service
	Deliveries  deliverysvc.Service
	Settlements settlementsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Gateway callbacks authenticate by signature, not bearer token.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payments", controllers.PaymentWebhook(deps.Checkout, deps.Gateway, logg))
	})

	apiPolicy := middleware.RateLimitPolicy{
		Name:   "api",
		Limit:  cfg.RateLimit.Limit,
		Window: cfg.RateLimit.Window,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(apiPolicy, deps.Redis, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Put("/items/{productID}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/me", controllers.OrdersForBuyer(deps.Orders, logg))
			r.Get("/seller", controllers.OrdersForSeller(deps.Orders, logg))
			r.With(middleware.RequireRole(enums.RoleDeliveryPartner.String(), logg)).
				Get("/delivery/mine", controllers.OrdersForPartner(deps.Orders, logg))
			r.Get("/{orderID}", controllers.OrderGet(deps.Orders, logg))
			r.Patch("/{orderID}/status", controllers.OrderTransition(deps.Orders, logg))
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleDeliveryPartner.String(), logg))
			r.Get("/available", controllers.DeliveriesAvailable(deps.Deliveries, logg))
			r.Post("/{orderID}/claim", controllers.DeliveryClaim(deps.Deliveries, logg))
		})

		r.Route("/settlements", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAdmin.String(), logg))
			r.Get("/pending", controllers.SettlementsPending(deps.Settlements, logg))
			r.Get("/", controllers.SettlementList(deps.Settlements, logg))
			r.Post("/", controllers.SettlementCreate(deps.Settlements, logg))
			r.Get("/{settlementID}", controllers.SettlementGet(deps.Settlements, logg))
			r.Post("/{settlementID}/complete", controllers.SettlementComplete(deps.Settlements, logg))
		})
	})

	return r
}
