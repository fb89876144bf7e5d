// Package list реализует HTTP-обработчик списка пользователей бота.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/DoRRet/TarotBot/internal/api/response"
	"github.com/DoRRet/TarotBot/internal/lib/sl"
	"github.com/DoRRet/TarotBot/internal/models"
)

const defaultLimit = 50

// Service описывает интерфейс бизнес-логики получения списка пользователей.
type Service interface {
	ListUsers(ctx context.Context, limit int) ([]models.UserSummary, error)
}

// Handler управляет HTTP-запросами списка пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description Возвращает последних зарегистрированных пользователей с остатком попыток и статусом подписки.
// @Tags Admin
// @Produce  json
// @Param limit query int false "Максимум записей (по умолчанию 50)"
// @Success 200 {object} map[string]any "Список пользователей"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			log.Error("invalid limit query param", slog.String("limit", raw))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid limit"))
			return
		}
		limit = n
	}

	users, err := h.service.ListUsers(r.Context(), limit)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list users"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"users": users,
		"count": len(users),
	}))
}
