package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		wantCode int
		wantBody string
	}{
		{name: "database ok", wantCode: http.StatusOK,
			wantBody: `{"status":"OK","data":{"status":"ok","database":"ok"}}`},
		{name: "database down", pingErr: errors.New("dial tcp: refused"), wantCode: http.StatusServiceUnavailable,
			wantBody: `{"status":"Error","error":"database unavailable"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), pingerFunc(func(ctx context.Context) error {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return tt.pingErr
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
