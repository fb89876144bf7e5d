// Package cancel реализует HTTP-обработчик отмены активных подписок пользователя.
package cancel

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/DoRRet/TarotBot/internal/api/response"
	"github.com/DoRRet/TarotBot/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики отмены подписок.
type Service interface {
	Cancel(ctx context.Context, telegramID int64) (int, error)
}

// Handler управляет HTTP-запросами отмены подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отменить подписки
// @Description Отменяет все активные подписки пользователя. Возвращает число отмененных записей.
// @Tags Admin
// @Produce  json
// @Param id path int true "Telegram ID пользователя"
// @Success 200 {object} map[string]any "Число отмененных подписок"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /users/{id}/subscription [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	telegramID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid user id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	cancelled, err := h.service.Cancel(r.Context(), telegramID)
	if err != nil {
		log.Error("failed to cancel subscriptions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not cancel subscriptions"))
		return
	}
	log.Info("subscriptions cancelled",
		slog.Int64("telegram_id", telegramID),
		slog.Int("cancelled", cancelled))

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"telegram_id": telegramID,
		"cancelled":   cancelled,
	}))
}
