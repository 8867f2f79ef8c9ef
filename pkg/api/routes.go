package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// buildRouter constructs the chi router with all routes and middleware.
func (s *server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(s.corsMiddleware())

	if s.cfg.Server.RateLimit.Enabled {
		r.Use(s.rateLimitMiddleware(s.cfg.Server.RateLimit.Public, byClient))
	}

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Get("/tests.json", s.handleListTests)
	r.Get("/test/{slug}.json", s.handleFindTest)
	r.Get("/test/{slug}/revisions.json", s.handleListRevisions)
	r.Get("/test/{slug}/{revision:[0-9]+}.json", s.handleFindTest)
	r.Get("/test/{slug}/totals/by-browser.json", s.handleReportByBrowser)
	r.Get("/test/{slug}/{revision:[0-9]+}/totals/by-browser.json", s.handleReportByBrowser)
	r.Get("/log.json", s.handleListErrorLog)

	// Write endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.Server.RateLimit.Enabled {
			r.Use(s.rateLimitMiddleware(s.cfg.Server.RateLimit.Submit, byClientAndSlug))
		}

		r.Use(s.limitBody)

		r.Post("/tests.json", s.handleSubmit)
		r.Post("/test/{slug}.json", s.handleSubmit)
		r.Post("/log.json", s.handleAddErrorLog)
	})

	return r
}

// corsMiddleware returns a CORS handler configured from the API config.
func (s *server) corsMiddleware() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}

	origins := s.cfg.Server.CORSOrigins

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = origins
	}

	return cors.Handler(opts)
}
