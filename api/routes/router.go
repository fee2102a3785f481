package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/stockroom-backend/api/controllers"
	"github.com/angelmondragon/stockroom-backend/api/middleware"
	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/internal/auth"
	"github.com/angelmondragon/stockroom-backend/internal/dashboard"
	"github.com/angelmondragon/stockroom-backend/internal/items"
	"github.com/angelmondragon/stockroom-backend/internal/transfers"
	"github.com/angelmondragon/stockroom-backend/internal/users"
	"github.com/angelmondragon/stockroom-backend/internal/warehouses"
	"github.com/angelmondragon/stockroom-backend/pkg/access"
	"github.com/angelmondragon/stockroom-backend/pkg/auth/session"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/redis"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth       auth.Service
	Users      users.Service
	Warehouses warehouses.Service
	Items      items.Service
	Transfers  transfers.Service
	Audit      audit.Service
	Dashboard  dashboard.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager session.AccessSessionChecker,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	// A typed nil client must not reach the middlewares as a non-nil interface.
	var (
		limiter     redis.RateLimiter
		idempotency redis.IdempotencyStore
	)
	deps := []controllers.NamedPinger{{Name: "db", Pinger: dbP}}
	if redisClient != nil {
		limiter = redisClient
		idempotency = redisClient
		deps = append(deps, controllers.NamedPinger{Name: "redis", Pinger: redisClient})
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginAccountLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterAccountLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps...))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	authenticate := middleware.Auth(cfg.JWT, sessionManager, logg)
	canEdit := middleware.RequireCapability(access.CapabilityEdit, logg)
	canDelete := middleware.RequireCapability(access.CapabilityDelete, logg)
	canManageUsers := middleware.RequireCapability(access.CapabilityManageUsers, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(svc.Auth, logg))
			r.With(authenticate).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/users", func(r chi.Router) {
				r.Use(canManageUsers)
				r.Get("/", controllers.UsersList(svc.Users, logg))
				r.Post("/", controllers.UsersCreate(svc.Users, logg))
				r.Delete("/{userId}", controllers.UsersDelete(svc.Users, logg))
			})

			r.Route("/warehouses", func(r chi.Router) {
				r.Get("/", controllers.WarehousesList(svc.Warehouses, logg))
				r.With(canEdit).Post("/", controllers.WarehousesCreate(svc.Warehouses, logg))

				r.Route("/{warehouseId}", func(r chi.Router) {
					r.Get("/", controllers.WarehousesGet(svc.Warehouses, logg))
					r.With(canEdit).Patch("/", controllers.WarehousesUpdate(svc.Warehouses, logg))
					r.With(canDelete).Delete("/", controllers.WarehousesDelete(svc.Warehouses, logg))

					r.Route("/items", func(r chi.Router) {
						r.Get("/", controllers.WarehouseItemsList(svc.Items, logg))
						r.With(canEdit).Post("/", controllers.ItemsCreate(svc.Items, logg))
						r.Get("/{itemId}", controllers.ItemsGet(svc.Items, logg))
						r.With(canEdit).Patch("/{itemId}", controllers.ItemsUpdate(svc.Items, logg))
						r.With(canDelete).Delete("/{itemId}", controllers.ItemsDelete(svc.Items, logg))
					})
				})
			})

			r.Get("/items", controllers.ItemsSearch(svc.Items, logg))
			// Inline so the matched route pattern is resolved before the idempotency rules run.
			r.With(canEdit, middleware.Idempotency(idempotency, cfg.Idempotency.TTL, logg)).
				Post("/transfers", controllers.TransfersCreate(svc.Transfers, logg))
			r.Get("/audit", controllers.AuditList(svc.Audit, logg))
			r.Get("/dashboard", controllers.DashboardSummary(svc.Dashboard, logg))
		})
	})

	return r
}
