// Package submit реализует финальную отправку заявки на регистрацию проекта.
//
// Тело принимается как {"projectData": {...}} или плоским набором полей.
package submit

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

const maxBodyBytes = 1 << 20

// Handler обрабатывает отправку заявки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс отправки заявки.
type Service interface {
	Submit(ctx context.Context, email string, data models.ProjectData) (*models.Registration, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отправить заявку
// @Description Создает заявку в статусе pending и удаляет черновик пользователя.
// @Tags Registration
// @Accept  json
// @Produce  json
// @Param request body models.ProjectData true "Данные проекта"
// @Success 201 {object} response.Response "Заявка"
// @Failure 400 {object} response.ErrorResponse "Отсутствует обязательное поле или неверная ссылка YouTube"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /register-project [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registration.submit"
	log := sl.ForRequest(h.log, op, r)

	user, ok := middlewarectx.CurrentUser(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}
	data, err := models.DecodeProjectData(body)
	if err != nil {
		log.Info("failed to decode request", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}
	if err := h.validate.Struct(data.Required()); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	reg, err := h.service.Submit(r.Context(), user.Email, data)
	if err != nil {
		log.Info("failed to submit registration", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}

	log.Info("registration submitted", slog.Int("id", reg.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(reg))
}
