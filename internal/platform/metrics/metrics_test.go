package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersAndHandler(t *testing.T) {
	m := New()

	m.IncPetsRegistered()
	m.IncRegistrationRejected("duplicate_hash")
	m.ObserveVerify(time.Now(), "identity", "match")
	m.IncReportsResolved("found")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PetsRegistered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationRejected.WithLabelValues("duplicate_hash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("identity", "match")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "petid_pets_registered_total 1")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.IncPetsRegistered()
	m.ObserveRegister(time.Now())
	m.IncCache("hit")
}

func TestMetrics_Middleware_UsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/pets/{petID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/pets/abc")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/pets/{petID}", "404")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), `route="/pets/{petID}"`))
}
