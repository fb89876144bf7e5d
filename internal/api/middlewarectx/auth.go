// Package middlewarectx содержит HTTP middleware административного API:
// проверку JWT-токена с извлечением данных пользователя в контекст запроса
// и ограничение частоты запросов.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/DoRRet/TarotBot/internal/api/response"
	"github.com/DoRRet/TarotBot/internal/lib/jwt"
	"github.com/DoRRet/TarotBot/internal/lib/sl"
)

// Key тип ключа для значений, сохраняемых в контексте запроса.
type Key string

const (
	// User ключ контекста с именем аутентифицированного пользователя.
	User Key = "user"
	// Role ключ контекста с ролью аутентифицированного пользователя.
	Role Key = "role"
)

// JWTMiddleware проверяет заголовок Authorization с Bearer-токеном,
// валидирует токен через jwt.Maker и требует роль admin. Имя пользователя
// и роль кладутся в контекст запроса под ключами User и Role.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or malformed authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing authorization token"))
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Warn("invalid token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			if claims.Role != "admin" {
				log.Warn("forbidden role", slog.String("role", claims.Role))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("access denied"))
				return
			}

			ctx := context.WithValue(r.Context(), User, claims.Username)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
