// Package incomplete возвращает черновики регистрации для администратора.
package incomplete

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// Handler обрабатывает запросы списка черновиков.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения черновиков.
type Service interface {
	ListIncomplete(ctx context.Context) ([]*models.IncompleteRegistration, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Незавершённые регистрации
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Router /admin/incomplete-registrations [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registration.incomplete"
	log := sl.ForRequest(h.log, op, r)

	list, err := h.service.ListIncomplete(r.Context())
	if err != nil {
		log.Error("failed to list drafts", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.IncompleteRegistration{}
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}
