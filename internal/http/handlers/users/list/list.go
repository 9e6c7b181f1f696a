// Package list возвращает пользователей для панели администратора.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// Handler обрабатывает запросы списка пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения пользователей.
type Service interface {
	List(ctx context.Context) ([]*models.UserSummary, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Пользователи
// @Description Пользователи без роли admin с количеством наблюдений и метрик.
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.list"
	log := sl.ForRequest(h.log, op, r)

	users, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}
	if users == nil {
		users = []*models.UserSummary{}
	}
	render.JSON(w, r, response.StatusOKWithData(users))
}
