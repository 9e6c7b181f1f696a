package list

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) List(ctx context.Context) ([]*models.UserSummary, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*models.UserSummary)
	return list, args.Error(1)
}

func TestListHandler(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("List", mock.Anything).Return([]*models.UserSummary{{
		User:              models.User{ID: "u1", Email: "ana@example.com", Status: models.StatusBlocked},
		ObservationsCount: 2,
		MetricsCount:      5,
	}}, nil).Once()
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "blocked", body.Data[0]["status"])
	assert.Equal(t, float64(2), body.Data[0]["observationsCount"])
	assert.Equal(t, float64(5), body.Data[0]["metricsCount"])
	assert.NotContains(t, body.Data[0], "PasswordHash")
}
