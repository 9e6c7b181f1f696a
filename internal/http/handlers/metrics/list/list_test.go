package list

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) ListMine(ctx context.Context, authorID string) ([]*models.Metric, error) {
	args := m.Called(ctx, authorID)
	list, _ := args.Get(0).([]*models.Metric)
	return list, args.Error(1)
}

func serve(t *testing.T, svc *ServiceMock, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	if user != nil {
		req = req.WithContext(middlewarectx.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListHandler(t *testing.T) {
	sales := 1000.0
	svc := new(ServiceMock)
	svc.On("ListMine", mock.Anything, "u1").
		Return([]*models.Metric{{ID: 1, Title: "Marzo", Sales: &sales, AuthorID: "u1"}}, nil).Once()

	rec := serve(t, svc, &models.User{ID: "u1"})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []models.Metric `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "u1", body.Data[0].AuthorID)
	assert.Equal(t, 1000.0, *body.Data[0].Sales)
	assert.Nil(t, body.Data[0].Expenses)
}

func TestListHandler_EmptyIsArray(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("ListMine", mock.Anything, "u1").Return(nil, nil).Once()

	rec := serve(t, svc, &models.User{ID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","data":[]}`, rec.Body.String())
}

func TestListHandler_Errors(t *testing.T) {
	rec := serve(t, new(ServiceMock), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	svc := new(ServiceMock)
	svc.On("ListMine", mock.Anything, "u1").Return(nil, errors.New("db down")).Once()
	rec = serve(t, svc, &models.User{ID: "u1"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":"Error","error":"Error interno del servidor"}`, rec.Body.String())
}
