package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter creates and configures the Chi router
func NewRouter(h *Handler, logger logrus.FieldLogger, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(Recoverer(logger))
	r.Use(Logger(logger))
	r.Use(CORS(allowedOrigins))

	r.Get("/", h.Index)

	// Health check endpoint
	r.Get("/health", h.HealthCheck)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(JSONContentType)

		r.Route("/study", func(r chi.Router) {
			r.Get("/session", h.GetStudySession)
			r.Post("/result", h.SubmitResults)
		})

		r.Get("/stats", h.GetStats)

		r.Route("/words", func(r chi.Router) {
			r.Get("/", h.ListWords)
			r.Post("/", h.CreateWord)

			// Special routes before /{id} to avoid conflicts
			r.Post("/upload", h.UploadWords)
			r.Get("/export", h.ExportWords)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetWord)
				r.Get("/definition", h.GetWordDefinition)
			})
		})
	})

	return r
}
