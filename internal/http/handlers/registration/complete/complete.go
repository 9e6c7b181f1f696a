// Package complete возвращает отправленные заявки и их количество по статусам.
package complete

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// Handler обрабатывает запросы списка заявок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения заявок.
type Service interface {
	ListComplete(ctx context.Context, status string) (*models.RegistrationList, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отправленные заявки
// @Tags Admin
// @Produce json
// @Param status query string false "pending, approved или rejected"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неизвестный статус"
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Router /admin/complete-registrations [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registration.complete"
	log := sl.ForRequest(h.log, op, r)

	list, err := h.service.ListComplete(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		log.Info("failed to list registrations", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}
	if list.Registrations == nil {
		list.Registrations = []*models.Registration{}
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}
