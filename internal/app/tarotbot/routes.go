// Package tarotbot предоставляет маршруты административного API.
package tarotbot

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/DoRRet/TarotBot/internal/api/handlers/login"
	"github.com/DoRRet/TarotBot/internal/api/handlers/stats"
	"github.com/DoRRet/TarotBot/internal/api/handlers/subscription/cancel"
	"github.com/DoRRet/TarotBot/internal/api/handlers/subscription/grant"
	"github.com/DoRRet/TarotBot/internal/api/handlers/users/attempts"
	"github.com/DoRRet/TarotBot/internal/api/handlers/users/list"
	"github.com/DoRRet/TarotBot/internal/api/middlewarectx"
	"github.com/DoRRet/TarotBot/internal/api/response"
	"github.com/DoRRet/TarotBot/internal/config"
	"github.com/DoRRet/TarotBot/internal/lib/jwt"
	entitlementservice "github.com/DoRRet/TarotBot/internal/services/entitlement"
	"github.com/DoRRet/TarotBot/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты административного API.
func RegisterRoutes(r chi.Router, logger *slog.Logger, entitlements *entitlementservice.Service, jwtMaker jwt.Maker, admin config.Admin, db *repository.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, admin, jwtMaker).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/stats", stats.New(logger, entitlements).ServeHTTP)
			r.Get("/users", list.New(logger, entitlements).ServeHTTP)
			r.Post("/users/{id}/attempts", attempts.New(logger, entitlements).ServeHTTP)
			r.Post("/users/{id}/subscription", grant.New(logger, entitlements).ServeHTTP)
			r.Delete("/users/{id}/subscription", cancel.New(logger, entitlements).ServeHTTP)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := repository.CheckDatabaseReady(db); err != nil {
			logger.Error("health check failed", slog.Any("err", err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, req, response.Error("database is not ready"))
			return
		}
		render.JSON(w, req, response.StatusOKWithData(map[string]any{"healthy": true}))
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
