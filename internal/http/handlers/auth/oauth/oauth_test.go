package oauth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/magabrotheeeer/incubator-portal/internal/http/sessioncookie"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
)

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (m *ProviderMock) Identity(ctx context.Context, code string) (models.Identity, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(models.Identity), args.Error(1)
}

type StateStoreMock struct{ mock.Mock }

func (m *StateStoreMock) SaveState(ctx context.Context, state string, ttl time.Duration) error {
	return m.Called(ctx, state, ttl).Error(0)
}

func (m *StateStoreMock) ConsumeState(ctx context.Context, state string) (bool, error) {
	args := m.Called(ctx, state)
	return args.Bool(0), args.Error(1)
}

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) SignIn(ctx context.Context, identity models.Identity) (*models.User, string, error) {
	args := m.Called(ctx, identity)
	user, _ := args.Get(0).(*models.User)
	return user, args.String(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var cookieOpts = sessioncookie.Options{Name: "portal_session", TTL: time.Hour}

func TestRedirectHandler(t *testing.T) {
	states := new(StateStoreMock)
	states.On("SaveState", mock.Anything, mock.AnythingOfType("string"), StateTTL).Return(nil).Once()
	h := NewRedirect(newNoopLogger(), new(ProviderMock), states)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	saved := states.Calls[0].Arguments.String(1)
	assert.Equal(t, saved, loc.Query().Get("state"))
}

func TestRedirectHandler_StoreDown(t *testing.T) {
	states := new(StateStoreMock)
	states.On("SaveState", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()
	h := NewRedirect(newNoopLogger(), new(ProviderMock), states)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCallbackHandler(t *testing.T) {
	identity := models.Identity{Email: "ana@example.com", Name: "Ana"}

	tests := []struct {
		name           string
		query          string
		setup          func(p *ProviderMock, s *StateStoreMock, svc *ServiceMock)
		wantStatusCode int
		wantCookie     bool
	}{
		{
			name:  "success",
			query: "?state=st&code=c1",
			setup: func(p *ProviderMock, s *StateStoreMock, svc *ServiceMock) {
				s.On("ConsumeState", mock.Anything, "st").Return(true, nil).Once()
				p.On("Identity", mock.Anything, "c1").Return(identity, nil).Once()
				svc.On("SignIn", mock.Anything, identity).Return(&models.User{ID: "u1"}, "tok", nil).Once()
			},
			wantStatusCode: http.StatusFound,
			wantCookie:     true,
		},
		{
			name:           "missing code",
			query:          "?state=st",
			setup:          func(*ProviderMock, *StateStoreMock, *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "provider error",
			query:          "?error=access_denied",
			setup:          func(*ProviderMock, *StateStoreMock, *ServiceMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:  "replayed state",
			query: "?state=st&code=c1",
			setup: func(_ *ProviderMock, s *StateStoreMock, _ *ServiceMock) {
				s.On("ConsumeState", mock.Anything, "st").Return(false, nil).Once()
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:  "exchange failure",
			query: "?state=st&code=c1",
			setup: func(p *ProviderMock, s *StateStoreMock, _ *ServiceMock) {
				s.On("ConsumeState", mock.Anything, "st").Return(true, nil).Once()
				p.On("Identity", mock.Anything, "c1").Return(models.Identity{}, errors.New("bad code")).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:  "blocked user",
			query: "?state=st&code=c1",
			setup: func(p *ProviderMock, s *StateStoreMock, svc *ServiceMock) {
				s.On("ConsumeState", mock.Anything, "st").Return(true, nil).Once()
				p.On("Identity", mock.Anything, "c1").Return(identity, nil).Once()
				svc.On("SignIn", mock.Anything, identity).Return(nil, "", services.ErrBlocked).Once()
			},
			wantStatusCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, s, svc := new(ProviderMock), new(StateStoreMock), new(ServiceMock)
			tt.setup(p, s, svc)
			h := NewCallback(newNoopLogger(), p, s, svc, cookieOpts, "/dashboard")

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/callback"+tt.query, nil))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantCookie {
				assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
				require.Len(t, rec.Result().Cookies(), 1)
			}
			p.AssertExpectations(t)
			s.AssertExpectations(t)
			svc.AssertExpectations(t)
		})
	}
}

func TestGoogle_Identity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"ana@example.com","email_verified":true,"name":"Ana","picture":"https://img/ana.png"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := NewGoogleWithEndpoint(&oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, srv.URL+"/userinfo")

	assert.Contains(t, g.AuthCodeURL("xyz"), "state=xyz")

	got, err := g.Identity(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, models.Identity{Email: "ana@example.com", Name: "Ana", Image: "https://img/ana.png"}, got)

	_, err = g.Identity(context.Background(), "bad")
	require.Error(t, err)
}
