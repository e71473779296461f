package httpapi

import (
	"net/http"

	"imageeditor/internal/http/handlers"
	"imageeditor/internal/infra"
	"imageeditor/internal/metrics"
	mw "imageeditor/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options carries the cross-cutting pieces the router wires around the
// handlers. Metrics may be nil, in which case /metrics is not mounted.
type Options struct {
	CORSAllowedOrigins []string
	Logger             *infra.Logger
	Metrics            *metrics.Collector
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	var rec mw.HTTPRecorder
	if opts.Metrics != nil {
		rec = opts.Metrics
	}

	r.Use(
		middleware.RealIP,
		mw.RequestID,
		mw.Logger(*infra.OrDiscard(opts.Logger), rec),
		middleware.Recoverer,
		mw.CORS(opts.CORSAllowedOrigins),
	)

	r.Get("/health", app.Health)

	r.Post("/edit-image", app.EditImage)
	r.Post("/edit-multiple-images", app.EditMultipleImages)
	r.Post("/design/generate", app.DesignGenerate)

	r.Post("/debug", app.Debug)
	r.Post("/test-json", app.TestJSON)

	r.Get("/openapi.json", app.APISchema)
	r.Get("/docs", app.APIDocs)

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	return r
}
