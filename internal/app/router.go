// Package app wires middleware, routes, and readiness checks.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/ai-resume-screener/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/ai-resume-screener/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	// Security & instrumentation middleware
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Group(func(pr chi.Router) {
		pr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		pr.Post("/admin/login", srv.LoginHandler())
		pr.Post("/admin/logout", srv.LogoutHandler())

		// Everything that touches the pipeline or stored data sits behind
		// the session guard when admin auth is configured.
		pr.Group(func(ar chi.Router) {
			if cfg.AdminEnabled() {
				ar.Use(srv.Sessions.AuthRequired)
			}
			// Pipeline routes run synchronously and may take minutes; only
			// the read side gets a hard timeout.
			ar.Post("/v1/mail/fetch", srv.MailFetchHandler())
			ar.Post("/v1/process", srv.ProcessHandler())
			ar.Post("/v1/quick", srv.QuickHandler())

			ar.Group(func(rr chi.Router) {
				rr.Use(httpserver.TimeoutMiddleware(30 * time.Second))
				rr.Post("/admin/password", srv.ChangePasswordHandler())
				rr.Get("/v1/results", srv.ResultsHandler())
				rr.Get("/v1/results/export", srv.ExportHandler())
				rr.Get("/v1/resume", srv.ResumeHandler())
			})
		})
	})

	// Health and metrics
	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	return httpserver.SecurityHeaders(r)
}
