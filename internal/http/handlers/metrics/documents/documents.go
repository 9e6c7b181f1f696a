// Package documents возвращает список загруженных файлов для панели администратора.
package documents

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// Handler обрабатывает запросы списка документов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения документов.
type Service interface {
	Documents(ctx context.Context) ([]*models.Document, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Документы метрик
// @Description Изображения и документы всех метрик с типом, размером и автором.
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/metrics-documents [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.metrics.documents"
	log := sl.ForRequest(h.log, op, r)

	docs, err := h.service.Documents(r.Context())
	if err != nil {
		log.Error("failed to list documents", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	render.JSON(w, r, response.StatusOKWithData(docs))
}
