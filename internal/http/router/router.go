package router

import (
	"net/http"

	"github.com/buildmart/marketplace-api/internal/auth"
	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/http/handler"
	"github.com/buildmart/marketplace-api/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/buildmart/marketplace-api/docs" // Import generated swagger docs
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	QuoteRequest  *handler.QuoteRequestHandler
	QuoteResponse *handler.QuoteResponseHandler
	Order         *handler.OrderHandler
	Notification  *handler.NotificationHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	r.Get("/health", rt.handlers.Health.Live)
	r.Get("/health/db", rt.handlers.Health.Database)
	r.Get("/health/ready", rt.handlers.Health.Ready)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	customer := rt.authMiddleware.RequireRole(domain.RoleCustomer)
	supplier := rt.authMiddleware.RequireRole(domain.RoleSupplier)

	r.Route("/api", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.LimitByUser)

		r.Get("/auth/me", rt.handlers.Auth.Me)

		r.Route("/quotes/request", func(r chi.Router) {
			r.Use(customer)
			r.Post("/", rt.handlers.QuoteRequest.Create)
			r.Get("/", rt.handlers.QuoteRequest.List)
			r.Get("/{id}", rt.handlers.QuoteRequest.GetByID)
			r.Put("/{id}/cancel", rt.handlers.QuoteRequest.Cancel)
			r.Put("/{id}/accept/{responseId}", rt.handlers.QuoteRequest.Accept)
		})

		r.Route("/quotes/response", func(r chi.Router) {
			r.Use(supplier)
			r.Get("/requests", rt.handlers.QuoteResponse.ListRequests)
			r.Post("/", rt.handlers.QuoteResponse.Submit)
			r.Get("/", rt.handlers.QuoteResponse.List)
			r.Get("/{id}", rt.handlers.QuoteResponse.GetByID)
			r.Put("/{id}/withdraw", rt.handlers.QuoteResponse.Withdraw)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(rt.authMiddleware.RequireRole(domain.RoleCustomer, domain.RoleSupplier)).Get("/", rt.handlers.Order.List)
			r.Get("/{id}", rt.handlers.Order.GetByID)
			r.With(supplier).Put("/{id}/status", rt.handlers.Order.UpdateStatus)
			r.With(customer).Put("/{id}/cancel", rt.handlers.Order.Cancel)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", rt.handlers.Notification.List)
			r.Get("/count", rt.handlers.Notification.GetUnreadCount)
			r.Put("/read-all", rt.handlers.Notification.MarkAllAsRead)
			r.Put("/{id}/read", rt.handlers.Notification.MarkAsRead)
		})
	})

	return r
}
