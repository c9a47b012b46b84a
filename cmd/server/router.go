package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/recall-api/internal/api"
	apiMiddleware "github.com/phrazzld/recall-api/internal/api/middleware"
)

// setupRouter configures all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	validate := validator.New()
	studyHandler := api.NewStudyHandler(app.studyService, validate, app.logger)
	generateHandler := api.NewGenerateHandler(app.genService, app.quotaService, validate, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokenValidator)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Study endpoints
			r.Get("/study/session", studyHandler.GetSession)
			r.Post("/cards/{id}/review", studyHandler.SubmitReview)
			r.Post("/cards/{id}/important", studyHandler.MarkImportant)
			r.Get("/cards/{id}/history", studyHandler.GetHistory)
			r.Get("/stats/daily", studyHandler.GetDailyStats)

			// Generation endpoints
			r.Post("/generate", generateHandler.Generate)
			r.Get("/quota", generateHandler.GetQuota)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
