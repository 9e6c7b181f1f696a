// Package list возвращает наблюдения, видимые текущему пользователю, с ответами.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// Handler обрабатывает запросы списка наблюдений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка наблюдений.
type Service interface {
	List(ctx context.Context, viewer *models.User, targetUserID *string) ([]*models.Observation, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список наблюдений
// @Description Администратор видит все наблюдения, пользователь только адресованные ему и общие.
// @Tags Observations
// @Produce json
// @Param targetUserId query string false "Фильтр по адресату (только admin)"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /observations [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.observations.list"
	log := sl.ForRequest(h.log, op, r)

	user, ok := middlewarectx.CurrentUser(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	var target *string
	if v := r.URL.Query().Get("targetUserId"); v != "" {
		if _, err := uuid.Parse(v); err != nil {
			log.Info("malformed target user id", slog.String("target_user_id", v))
			response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
			return
		}
		target = &v
	}

	list, err := h.service.List(r.Context(), user, target)
	if err != nil {
		log.Error("failed to list observations", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Observation{}
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}
