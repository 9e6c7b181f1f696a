package summary

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

	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Summary(ctx context.Context) ([]models.UserMetricsSummary, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.UserMetricsSummary)
	return list, args.Error(1)
}

func TestSummaryHandler(t *testing.T) {
	tests := []struct {
		name           string
		resp           []models.UserMetricsSummary
		err            error
		wantStatusCode int
	}{
		{
			name: "summary",
			resp: []models.UserMetricsSummary{{
				User: models.UserRef{ID: "u1"}, TotalMetrics: 2, TotalSales: 1500,
				ChartData: make([]models.ChartPoint, 7),
			}},
			wantStatusCode: http.StatusOK,
		},
		{name: "failure", err: errors.New("db down"), wantStatusCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("Summary", mock.Anything).Return(tt.resp, tt.err).Once()
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/metrics", nil))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.err == nil {
				var body struct {
					Data []models.UserMetricsSummary `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				require.Len(t, body.Data, 1)
				assert.Len(t, body.Data[0].ChartData, 7)
				assert.Equal(t, 1500.0, body.Data[0].TotalSales)
			}
		})
	}
}
