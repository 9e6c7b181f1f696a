// Package oauth реализует вход через Google: перенаправление к провайдеру
// и обработку callback с обменом кода на данные пользователя.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/magabrotheeeer/incubator-portal/internal/config"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// GoogleUserInfoURL адрес профиля пользователя OpenID Connect.
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Google получает данные пользователя у Google по коду авторизации.
type Google struct {
	cfg         *oauth2.Config
	userInfoURL string
}

// NewGoogle создает провайдера по настройкам OAuth.
func NewGoogle(cfg config.OAuth) *Google {
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: GoogleUserInfoURL,
	}
}

// NewGoogleWithEndpoint используется в тестах с подменой адресов провайдера.
func NewGoogleWithEndpoint(cfg *oauth2.Config, userInfoURL string) *Google {
	return &Google{cfg: cfg, userInfoURL: userInfoURL}
}

// AuthCodeURL возвращает адрес страницы согласия провайдера.
func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type userInfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Identity обменивает код на токен и читает профиль пользователя.
func (g *Google) Identity(ctx context.Context, code string) (models.Identity, error) {
	const op = "oauth.Google.Identity"

	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: exchange: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := g.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: userinfo: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return models.Identity{}, fmt.Errorf("%s: userinfo status %d", op, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return models.Identity{}, fmt.Errorf("%s: decode userinfo: %w", op, err)
	}
	if info.Email == "" || !info.EmailVerified {
		return models.Identity{}, fmt.Errorf("%s: email missing or not verified", op)
	}
	return models.Identity{Email: info.Email, Name: info.Name, Image: info.Picture}, nil
}
