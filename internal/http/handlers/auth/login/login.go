// Package login реализует вход по email и паролю для пользователей,
// которым оператор задал пароль через portalctl set-password.
//
// При успешной аутентификации токен сессии записывается в HttpOnly cookie
// и возвращается в теле ответа вместе с данными пользователя.
package login

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/http/sessioncookie"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// Request: структура входных данных для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Handler обрабатывает HTTP-запросы для входа.
type Handler struct {
	log      *slog.Logger // Логгер для записи операций и ошибок
	service  Service      // Сервис аутентификации
	cookie   sessioncookie.Options
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookie sessioncookie.Options) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookie:   cookie,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход по паролю
// @Description Аутентифицирует пользователя по email и паролю, выставляет cookie сессии.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 403 {object} response.ErrorResponse "Учетная запись заблокирована"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
	log := sl.ForRequest(h.log, op, r)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Info("login failed", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}

	sessioncookie.Set(w, h.cookie, token)
	log.Info("login success", slog.String("user_id", user.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user":  user,
		"token": token,
	}))
}
