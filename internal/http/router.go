package http

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/rogerio-castellano/restock-analytics/docs"
	"github.com/rogerio-castellano/restock-analytics/internal/http/handlers"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

type routerOptions struct {
	allowedOrigins []string
	trustedProxies []netip.Prefix
}

type Option func(*routerOptions)

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *routerOptions) {
		o.allowedOrigins = origins
	}
}

// WithTrustedProxies lets X-Forwarded-For and X-Real-IP name the client, but only on
// requests whose socket peer is one of proxies (addresses or CIDR ranges).
// Unparsable entries are ignored.
func WithTrustedProxies(proxies ...string) Option {
	return func(o *routerOptions) {
		o.trustedProxies = parseProxies(proxies)
	}
}

func NewRouter(opts ...Option) http.Handler {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()
	r.Use(TrustedRealIP(o.trustedProxies))
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	if len(o.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   o.allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders:   []string{requestIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", handlers.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Group(func(r chi.Router) {
		r.Use(RateLimit)
		r.Post("/login", handlers.LoginHandler)
		r.Post("/register", handlers.RegisterHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware)

		r.Get("/products", handlers.GetProductsHandler)
		r.Get("/products/search", handlers.FilterProductsHandler)
		r.Get("/products/{id}", handlers.GetProductByIDHandler)
		r.Get("/products/{id}/sales", handlers.GetSalesHandler)
		r.Post("/sales", handlers.CreateSaleHandler)

		r.Get("/alerts", handlers.GetAlertsHandler)
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/restock-recommendations", handlers.GetRestockRecommendationsHandler)
			r.Get("/trends", handlers.GetTrendsHandler)
			r.Get("/low-stock-frequency", handlers.GetLowStockFrequencyHandler)
			r.Get("/low-stock", handlers.GetLowStockHandler)
			r.Get("/deadstock", handlers.GetDeadStockHandler)
			r.Get("/sales-heatmap", handlers.GetSalesHeatmapHandler)
			r.Get("/sales-over-time", handlers.GetSalesOverTimeHandler)
			r.Get("/top-categories", handlers.GetTopCategoriesHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(models.RoleAdmin))

			r.Post("/products", handlers.CreateProductHandler)
			r.Put("/products/{id}", handlers.UpdateProductHandler)
			r.Delete("/products/{id}", handlers.DeleteProductHandler)
			r.Patch("/products/{id}/blacklist", handlers.BlacklistProductHandler)
			r.Put("/stock/batch", handlers.BatchUpdateStockHandler)
			r.Put("/stock/{id}", handlers.UpdateStockHandler)
			r.Get("/audit-logs", handlers.GetAuditLogsHandler)
			r.Post("/admin/users", handlers.RegisterAsAdminHandler)
			r.Get("/metrics/dashboard", handlers.GetDashboardMetricsHandler)
		})
	})

	return r
}
