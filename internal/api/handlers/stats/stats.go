// Package stats реализует HTTP-обработчик сводной аналитики бота.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/DoRRet/TarotBot/internal/api/response"
	"github.com/DoRRet/TarotBot/internal/lib/sl"
	"github.com/DoRRet/TarotBot/internal/models"
)

// Service описывает интерфейс бизнес-логики получения аналитики.
type Service interface {
	Stats(ctx context.Context) (*models.Stats, error)
}

// Handler управляет HTTP-запросами аналитики.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Аналитика бота
// @Description Возвращает сводную статистику: пользователи, расклады, подписки.
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "Сводная статистика"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		log.Error("failed to collect stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not collect stats"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(stats))
}
