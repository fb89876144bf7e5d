// Package attempts реализует HTTP-обработчик корректировки числа
// бесплатных попыток пользователя. Положительная дельта начисляет
// попытки, отрицательная — списывает. Списание прижимается к нулю
// только при активной подписке, без подписки остаток может уйти
// в минус.
package attempts

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

// Request тело запроса корректировки попыток.
type Request struct {
	Delta int `json:"delta" validate:"required"`
}

// Service описывает интерфейс бизнес-логики корректировки попыток.
type Service interface {
	Adjust(ctx context.Context, telegramID int64, delta int) error
	Attempts(ctx context.Context, telegramID int64) (int, error)
}

// Handler управляет HTTP-запросами корректировки попыток.
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
// @Summary Скорректировать попытки пользователя
// @Description Начисляет или списывает бесплатные попытки пользователя. Возвращает новый остаток.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "Telegram ID пользователя"
// @Param request body Request true "Дельта попыток"
// @Success 200 {object} map[string]any "Новый остаток попыток"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /users/{id}/attempts [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.attempts"
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

	if err := h.service.Adjust(r.Context(), telegramID, req.Delta); err != nil {
		log.Error("failed to adjust attempts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not adjust attempts"))
		return
	}

	remaining, err := h.service.Attempts(r.Context(), telegramID)
	if err != nil {
		log.Error("failed to read attempts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read attempts"))
		return
	}
	log.Info("attempts adjusted",
		slog.Int64("telegram_id", telegramID),
		slog.Int("delta", req.Delta),
		slog.Int("remaining", remaining))

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"telegram_id": telegramID,
		"attempts":    remaining,
	}))
}
