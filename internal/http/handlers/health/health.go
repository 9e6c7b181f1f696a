// Package health отдаёт состояние портала для балансировщика.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
)

const pingTimeout = 2 * time.Second

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler проверяет базу данных.
type Handler struct {
	log *slog.Logger
	db  Pinger
}

// New создает Handler.
func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{
		log: log,
		db:  db,
	}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response "Сервис доступен"
// @Failure 503 {object} response.ErrorResponse "База данных недоступна"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		sl.ForRequest(h.log, op, r).Error("database is unavailable", sl.Err(err))
		response.Fail(w, r, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status":   "ok",
		"database": "ok",
	}))
}
