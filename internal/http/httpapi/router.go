package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/middleware"
)

// NewRouter assembles the chi router with the shared middleware chain.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORSOrigins),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		middleware.I18N(cfg.DefaultLocale, lookup),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/ads", func(r chi.Router) {
		r.Post("/", app.AdsGenerate)
		r.Get("/", app.AdsList)
		r.Get("/download", app.AdsDownloadAll)
		r.Post("/{index}/regenerate", app.AdRegenerate)
		r.Get("/{index}/download", app.AdDownload)
		r.Post("/{index}/session", app.SessionOpen)
	})

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/{id}/edits", app.SessionApply)
		r.Post("/{id}/undo", app.SessionUndo)
		r.Post("/{id}/revert", app.SessionRevert)
		r.Delete("/{id}", app.SessionClose)
	})

	return r
}
