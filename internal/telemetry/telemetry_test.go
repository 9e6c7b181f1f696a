package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/api/observations/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/observations/{id}", "418"))
	for _, id := range []string{"1", "2", "3"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/observations/"+id, nil))
		require.Equal(t, http.StatusTeapot, rr.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/observations/{id}", "418"))
	assert.Equal(t, 3.0, after-before)
}

func TestHandler_ExposesPortalMetrics(t *testing.T) {
	MetricsUploaded.Inc()
	RegistrationsReviewed.WithLabelValues("approve").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, "portal_metrics_uploaded_total"))
	assert.True(t, strings.Contains(body, `portal_registrations_reviewed_total{action="approve"}`))
}
