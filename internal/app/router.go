package app

import (
	"database/sql"
	"net/http"
	"time"

	"aitestlms/internal/app/observability"
	"aitestlms/internal/report"
	"aitestlms/internal/session"
	"aitestlms/internal/testdef"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterDeps carries the wired services. Handlers receive them explicitly;
// nothing here reaches for process-wide singletons.
type RouterDeps struct {
	DB          *sql.DB // optional, pool gauges only
	Definitions *testdef.Service
	Coordinator *session.Coordinator
	Reports     *report.Service
}

func NewRouter(cfg Config, deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	collector := observability.NewCollector(deps.DB)
	r.Use(collector.Middleware)

	limiter := NewIPRateLimiter(cfg.RateLimitPerMin, time.Minute)
	r.Use(RateLimitMiddleware(limiter))
	r.Use(CSRFMiddleware(cfg.CSRFEnforced))

	defHandler := testdef.NewHandler(deps.Definitions)
	sessHandler := session.NewHandler(deps.Coordinator)
	reportHandler := report.NewHandler(deps.Reports)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/definitions", defHandler.Create)
		api.Get("/definitions", defHandler.List)
		api.Get("/definitions/{id}", defHandler.Get)

		api.Post("/sessions/start", sessHandler.Start)
		api.Get("/sessions/{id}", sessHandler.Get)
		api.Post("/sessions/{id}/join", sessHandler.Join)
		api.Get("/sessions/{id}/question", sessHandler.CurrentQuestion)
		api.Post("/sessions/{id}/advance", sessHandler.Advance)
		api.Post("/sessions/{id}/answers", sessHandler.SubmitAnswer)
		api.Post("/sessions/{id}/end", sessHandler.End)
		api.Get("/sessions/{id}/leaderboard", sessHandler.Leaderboard)

		api.Get("/reports/sessions/{id}/summary", reportHandler.Summary)
		api.Get("/reports/sessions/{id}/export", reportHandler.Export)
	})

	return r
}
