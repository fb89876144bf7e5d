// Package grant реализует HTTP-обработчик выдачи подписки пользователю.
package grant

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/DoRRet/TarotBot/internal/api/response"
	"github.com/DoRRet/TarotBot/internal/lib/sl"
)

// Request тело запроса выдачи подписки.
type Request struct {
	SubType      string `json:"sub_type" validate:"required"`
	DurationDays int    `json:"duration_days" validate:"required,min=1"`
}

// Service описывает интерфейс бизнес-логики выдачи подписки.
type Service interface {
	Grant(ctx context.Context, telegramID int64, subType string, durationDays int) error
}

// Handler управляет HTTP-запросами выдачи подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выдать подписку
// @Description Выдает пользователю подписку указанного типа на заданное число дней.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "Telegram ID пользователя"
// @Param request body Request true "Тип и срок подписки"
// @Success 200 {object} map[string]any "Подписка выдана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /users/{id}/subscription [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.grant"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.Grant(r.Context(), telegramID, req.SubType, req.DurationDays); err != nil {
		log.Error("failed to grant subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not grant subscription"))
		return
	}
	log.Info("subscription granted",
		slog.Int64("telegram_id", telegramID),
		slog.String("sub_type", req.SubType),
		slog.Int("duration_days", req.DurationDays))

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"telegram_id":   telegramID,
		"sub_type":      req.SubType,
		"duration_days": req.DurationDays,
	}))
}
