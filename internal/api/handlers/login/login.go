// Package login реализует HTTP-обработчик входа в административный API.
//
// Handler принимает JSON с учетными данными, сверяет их с данными
// администратора из конфигурации (пароль проверяется по bcrypt-хэшу)
// и возвращает подписанный JWT-токен с ролью admin.
package login

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/DoRRet/TarotBot/internal/api/response"
	"github.com/DoRRet/TarotBot/internal/config"
	"github.com/DoRRet/TarotBot/internal/lib/jwt"
	"github.com/DoRRet/TarotBot/internal/lib/password"
	"github.com/DoRRet/TarotBot/internal/lib/sl"
)

// Request тело запроса входа.
type Request struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Handler управляет HTTP-запросами входа администратора.
type Handler struct {
	log      *slog.Logger
	admin    config.Admin
	jwtMaker jwt.Maker
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером, учетными данными и jwt.Maker.
func New(log *slog.Logger, admin config.Admin, jwtMaker jwt.Maker) *Handler {
	return &Handler{
		log:      log,
		admin:    admin,
		jwtMaker: jwtMaker,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход администратора
// @Description Проверяет учетные данные администратора и возвращает JWT-токен.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные"
// @Success 200 {object} map[string]any "Токен доступа"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	if req.Username != h.admin.APIUser {
		log.Warn("incorrect user or password", slog.String("username", req.Username))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("incorrect user or password"))
		return
	}

	if err := password.CompareHash(h.admin.APIPasswordHash, req.Password); err != nil {
		log.Warn("incorrect user or password", slog.String("username", req.Username))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("incorrect user or password"))
		return
	}

	token, err := h.jwtMaker.GenerateToken(req.Username, "admin")
	if err != nil {
		log.Error("could not generate token", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not generate token"))
		return
	}
	log.Info("admin logged in", slog.String("username", req.Username))

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": token,
	}))
}
