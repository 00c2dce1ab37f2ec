package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	ScoringRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Total number of scoring calls by outcome",
		},
		[]string{"outcome"},
	)
	ScoringRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_request_duration_seconds",
			Help:    "Scoring call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	ResumesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resumes_processed_total",
			Help: "Total number of resumes stored per collection",
		},
		[]string{"collection"},
	)
	ResumesFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resumes_failed_total",
			Help: "Total number of resumes that failed a pipeline step",
		},
		[]string{"collection"},
	)
	ResumesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resumes_skipped_total",
			Help: "Total number of resumes skipped by idempotency or duplicate checks",
		},
		[]string{"collection", "reason"},
	)

	// ScoreHistogram records the distribution of model scores ([0,10]).
	ScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "screening_score",
			Help:    "Distribution of resume screening scores ([0,10])",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(ScoringRequestsTotal)
	prometheus.MustRegister(ScoringRequestDuration)
	prometheus.MustRegister(ResumesProcessedTotal)
	prometheus.MustRegister(ResumesFailedTotal)
	prometheus.MustRegister(ResumesSkippedTotal)
	prometheus.MustRegister(ScoreHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// ObserveScore records the score of a stored record.
func ObserveScore(score float64) {
	if score >= 0 && score <= 10 {
		ScoreHistogram.Observe(score)
	}
}
