// Package logout завершает сессию, удаляя cookie.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/http/sessioncookie"
)

// Handler удаляет cookie сессии. Токен в заголовке Authorization клиент забывает сам.
type Handler struct {
	log    *slog.Logger
	cookie sessioncookie.Options
}

// New создает Handler.
func New(log *slog.Logger, cookie sessioncookie.Options) *Handler {
	return &Handler{log: log, cookie: cookie}
}

// ServeHTTP godoc
// @Summary Выход
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessioncookie.Clear(w, h.cookie)
	render.JSON(w, r, response.StatusOKWithData(nil))
}
