package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics agrupa los contadores del registry.
// Cada instancia usa su propio prometheus.Registry (varios routers en tests no colisionan).
type Metrics struct {
	registry *prometheus.Registry

	PetsRegistered       prometheus.Counter
	RegistrationRejected *prometheus.CounterVec
	RegisterDuration     prometheus.Histogram

	Verifications      *prometheus.CounterVec
	VerifyDuration     prometheus.Histogram
	FingerprintCache   *prometheus.CounterVec
	ReportsFiled       prometheus.Counter
	ReportsResolved    *prometheus.CounterVec
	NotificationErrors prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PetsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "petid_pets_registered_total",
			Help: "Total number of pets registered with a nose print",
		}),
		RegistrationRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petid_registrations_rejected_total",
			Help: "Registrations rejected by reason",
		}, []string{"reason"}),
		RegisterDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "petid_register_duration_seconds",
			Help:    "Duration of pet registration transactions",
			Buckets: durationBuckets,
		}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petid_verifications_total",
			Help: "Nose print verifications by mode and outcome",
		}, []string{"mode", "outcome"}),
		VerifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "petid_verify_duration_seconds",
			Help:    "Duration of verification lookups",
			Buckets: durationBuckets,
		}),
		FingerprintCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petid_fingerprint_cache_total",
			Help: "Fingerprint cache lookups by result",
		}, []string{"result"}),
		ReportsFiled: f.NewCounter(prometheus.CounterOpts{
			Name: "petid_missing_reports_filed_total",
			Help: "Total number of missing reports filed",
		}),
		ReportsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petid_missing_reports_resolved_total",
			Help: "Missing reports resolved by outcome",
		}, []string{"outcome"}),
		NotificationErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "petid_notification_errors_total",
			Help: "Report notifications that could not be published",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petid_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "petid_http_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: durationBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler expone /metrics para este registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry se expone para tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRegister registra la duración de un register. Llamar con time.Now() al inicio.
func (m *Metrics) ObserveRegister(start time.Time) {
	if m == nil {
		return
	}
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncPetsRegistered() {
	if m == nil {
		return
	}
	m.PetsRegistered.Inc()
}

func (m *Metrics) IncRegistrationRejected(reason string) {
	if m == nil {
		return
	}
	m.RegistrationRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveVerify(start time.Time, mode, outcome string) {
	if m == nil {
		return
	}
	m.VerifyDuration.Observe(time.Since(start).Seconds())
	m.Verifications.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) IncCache(result string) {
	if m == nil {
		return
	}
	m.FingerprintCache.WithLabelValues(result).Inc()
}

func (m *Metrics) IncReportsFiled() {
	if m == nil {
		return
	}
	m.ReportsFiled.Inc()
}

func (m *Metrics) IncReportsResolved(outcome string) {
	if m == nil {
		return
	}
	m.ReportsResolved.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncNotificationErrors() {
	if m == nil {
		return
	}
	m.NotificationErrors.Inc()
}

// Middleware mide requests usando el route pattern de chi (no el path crudo).
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
