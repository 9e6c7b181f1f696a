// Package session возвращает пользователя текущей сессии.
package session

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
)

// Handler отдаёт данные пользователя, загруженные AccountMiddleware.
type Handler struct {
	log *slog.Logger
}

// New создает Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Текущая сессия
// @Description Возвращает пользователя сессии с ролью и статусом из базы данных.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response "Пользователь"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Router /auth/session [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewarectx.CurrentUser(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"user": user}))
}
