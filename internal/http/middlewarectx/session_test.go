package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
)

const cookieName = "portal_session"

type AccountLoaderMock struct {
	mock.Mock
}

func (m *AccountLoaderMock) CurrentUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSessionMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	valid, err := maker.GenerateToken("u1", "ana@example.com", models.RoleUser)
	require.NoError(t, err)
	foreign, err := jwt.NewJWTMaker("other-secret", time.Hour).GenerateToken("u1", "ana@example.com", models.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name           string
		cookie         string
		authHeader     string
		wantStatusCode int
		wantCalled     bool
	}{
		{name: "no token", wantStatusCode: http.StatusUnauthorized},
		{name: "basic auth header", authHeader: "Basic abc", wantStatusCode: http.StatusUnauthorized},
		{name: "foreign signature", cookie: foreign, wantStatusCode: http.StatusUnauthorized},
		{name: "cookie", cookie: valid, wantStatusCode: http.StatusOK, wantCalled: true},
		{name: "bearer", authHeader: "Bearer " + valid, wantStatusCode: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				assert.Equal(t, "u1", r.Context().Value(middlewarectx.UserID))
				w.WriteHeader(http.StatusOK)
			})
			h := middlewarectx.SessionMiddleware(maker, cookieName, newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: cookieName, Value: tt.cookie})
			}
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestAccountMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		user           *models.User
		err            error
		wantStatusCode int
	}{
		{name: "active user", user: &models.User{ID: "u1", Status: models.StatusActive}, wantStatusCode: http.StatusOK},
		{name: "blocked user", user: &models.User{ID: "u1", Status: models.StatusBlocked}, wantStatusCode: http.StatusForbidden},
		{name: "deleted user", err: services.ErrNotFound, wantStatusCode: http.StatusUnauthorized},
		{name: "storage failure", err: errors.New("db down"), wantStatusCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := new(AccountLoaderMock)
			loader.On("CurrentUser", mock.Anything, "u1").Return(tt.user, tt.err).Once()

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user, ok := middlewarectx.CurrentUser(r.Context())
				require.True(t, ok)
				assert.Equal(t, "u1", user.ID)
				w.WriteHeader(http.StatusOK)
			})
			h := middlewarectx.AccountMiddleware(loader, newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, "u1"))
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			loader.AssertExpectations(t)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	tests := []struct {
		name           string
		user           *models.User
		wantStatusCode int
	}{
		{name: "no account", wantStatusCode: http.StatusUnauthorized},
		{name: "regular user", user: &models.User{ID: "u1", Role: models.RoleUser}, wantStatusCode: http.StatusForbidden},
		{name: "admin", user: &models.User{ID: "a1", Role: models.RoleAdmin}, wantStatusCode: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
			h := middlewarectx.AdminOnly(newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tt.user != nil {
				req = req.WithContext(middlewarectx.WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatusCode, rec.Code)
		})
	}
}
