package togglestatus

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) ToggleStatus(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

const userID = "7b0f4c2e-1d3a-4b5c-9e8f-0a1b2c3d4e5f"

func TestToggleStatusHandler(t *testing.T) {
	tests := []struct {
		name           string
		status         string
		mockErr        error
		wantStatusCode int
		wantBody       string
	}{
		{name: "blocked", status: models.StatusBlocked, wantStatusCode: http.StatusOK,
			wantBody: `{"status":"OK","data":{"id":"7b0f4c2e-1d3a-4b5c-9e8f-0a1b2c3d4e5f","status":"blocked"}}`},
		{name: "admin target", mockErr: services.ErrForbidden, wantStatusCode: http.StatusForbidden,
			wantBody: `{"status":"Error","error":"Acceso denegado"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("ToggleStatus", mock.Anything, userID).Return(tt.status, tt.mockErr).Once()
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", userID)
			req := httptest.NewRequest(http.MethodPatch, "/api/admin/users/"+userID+"/toggle-status", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestToggleStatusHandler_MalformedID(t *testing.T) {
	svc := new(ServiceMock)
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "abc")
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/users/abc/toggle-status", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	svc.AssertNotCalled(t, "ToggleStatus", mock.Anything, mock.Anything)
}
