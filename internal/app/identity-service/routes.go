// Package identityservice собирает HTTP- и gRPC-серверы сервиса идентификации.
package identityservice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/identity-service/internal/docs"
	"github.com/magabrotheeeer/identity-service/internal/http/handlers/auth/available"
	"github.com/magabrotheeeer/identity-service/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/identity-service/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/identity-service/internal/http/handlers/health"
	"github.com/magabrotheeeer/identity-service/internal/http/handlers/profile/me"
	"github.com/magabrotheeeer/identity-service/internal/http/handlers/profile/update"
	"github.com/magabrotheeeer/identity-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/identity-service/internal/services/identity"
	"github.com/magabrotheeeer/identity-service/internal/storage"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	facade *identity.Facade,
	tokens middlewarectx.TokenParser,
	issuer login.TokenIssuer,
	repo storage.Repository,
	limiter *middlewarectx.IPLimiter,
	gatherer prometheus.Gatherer,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
			r.Post("/register", register.New(logger, facade).ServeHTTP)
			r.Post("/login", login.New(logger, facade, issuer).ServeHTTP)
		})
		r.Get("/register/available", available.New(facade).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokens, logger))
			r.Get("/me", me.New(logger, facade).ServeHTTP)
			r.Put("/profile", update.New(logger, facade).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, repo).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
