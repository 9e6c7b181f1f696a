package submit

import (
	"bytes"
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

	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Submit(ctx context.Context, email string, data models.ProjectData) (*models.Registration, error) {
	args := m.Called(ctx, email, data)
	reg, _ := args.Get(0).(*models.Registration)
	return reg, args.Error(1)
}

var project = models.ProjectData{
	ProgramID:   "p1",
	ProjectName: "Acme",
	Category:    "tech",
	Industry:    "retail",
	Description: "Tienda",
	YouTubeURL:  "https://youtu.be/dQw4w9WgXcQ",
}

func TestSubmitHandler(t *testing.T) {
	user := &models.User{ID: "u1", Email: "ana@example.com"}
	nested, err := json.Marshal(map[string]any{"projectData": project})
	require.NoError(t, err)
	flat, err := json.Marshal(project)
	require.NoError(t, err)

	tests := []struct {
		name           string
		body           []byte
		callService    bool
		mockErr        error
		wantStatusCode int
		wantError      string
	}{
		{name: "nested body", body: nested, callService: true, wantStatusCode: http.StatusCreated},
		{name: "flat body", body: flat, callService: true, wantStatusCode: http.StatusCreated},
		{name: "invalid video", body: flat, callService: true, mockErr: services.ErrInvalidVideoURL,
			wantStatusCode: http.StatusBadRequest, wantError: "La URL de YouTube no es válida"},
		{name: "missing industry", body: []byte(`{"programId":"p1","projectName":"Acme","category":"tech","description":"x"}`),
			wantStatusCode: http.StatusBadRequest, wantError: "El campo Industry es obligatorio"},
		{name: "not json", body: []byte(`nope`), wantStatusCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callService {
				var reg *models.Registration
				if tt.mockErr == nil {
					reg = &models.Registration{ID: 4, ProjectData: project, Status: models.RegistrationPending, YouTubeVideoID: "dQw4w9WgXcQ"}
				}
				svc.On("Submit", mock.Anything, "ana@example.com", project).Return(reg, tt.mockErr).Once()
			}
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			req := httptest.NewRequest(http.MethodPost, "/api/register-project", bytes.NewReader(tt.body))
			req = req.WithContext(middlewarectx.WithUser(req.Context(), user))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
			if tt.wantStatusCode == http.StatusCreated {
				data := body["data"].(map[string]any)
				assert.Equal(t, "pending", data["status"])
				assert.Equal(t, "dQw4w9WgXcQ", data["youtubeVideoId"])
			}
			svc.AssertExpectations(t)
		})
	}
}
