package incomplete

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

func (m *ServiceMock) ListIncomplete(ctx context.Context) ([]*models.IncompleteRegistration, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*models.IncompleteRegistration)
	return list, args.Error(1)
}

func TestIncompleteHandler(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("ListIncomplete", mock.Anything).Return([]*models.IncompleteRegistration{{
		ID: 1, UserEmail: "ana@example.com", CurrentStep: 2,
		ProjectData: models.ProjectData{ProjectName: "Acme"}, Status: models.RegistrationInProgress,
	}}, nil).Once()
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/incomplete-registrations", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []models.IncompleteRegistration `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, 2, body.Data[0].CurrentStep)
	assert.Equal(t, "Acme", body.Data[0].ProjectData.ProjectName)
}
