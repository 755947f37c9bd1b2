package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes registers the probes and every authenticated workflow route
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.NotFound(handlers.systemHandler.notFound())
	r.MethodNotAllowed(handlers.systemHandler.methodNotAllowed())

	r.Get("/healthz", handlers.systemHandler.health())
	r.Method("GET", "/metrics", handlers.systemHandler.metrics())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.authenticate)
		r.Use(ColoredHTTPLoggingMiddleware)

		// Hackathon endpoints
		r.Get("/hackathons", handlers.hackathonHandler.getAllHackathons())
		r.Post("/hackathons", handlers.hackathonHandler.createHackathon())
		r.Get("/hackathons/{hackathonID}", handlers.hackathonHandler.getHackathon())
		r.Get("/hackathons/{hackathonID}/eligibility", handlers.hackathonHandler.getEligibility())
		r.Post("/hackathons/{hackathonID}/results", handlers.hackathonHandler.finalizeResults())
		r.Get("/hackathons/{hackathonID}/results", handlers.hackathonHandler.getResults())

		// Application endpoints
		r.Post("/hackathons/{hackathonID}/applications", handlers.applicationHandler.createApplication())
		r.Get("/hackathons/{hackathonID}/applications", handlers.applicationHandler.getHackathonApplications())
		r.Get("/hackathons/{hackathonID}/applications/search", handlers.applicationHandler.searchApplications())
		r.Get("/applications/mine", handlers.applicationHandler.getMyApplications())
		r.Get("/applications/{applicationID}", handlers.applicationHandler.getApplication())
		r.Delete("/applications/{applicationID}", handlers.applicationHandler.deleteApplication())
		r.Post("/applications/{applicationID}/reject", handlers.applicationHandler.rejectApplication())
		r.Post("/applications/{applicationID}/showcase", handlers.applicationHandler.publishShowcase())

		// Phase review endpoints
		r.Put("/applications/{applicationID}/phases/{phaseID}/submission", handlers.phaseHandler.submit())
		r.Post("/applications/{applicationID}/phases/{phaseID}/upload-url", handlers.phaseHandler.uploadURL())
		r.Post("/applications/{applicationID}/phases/{phaseID}/review", handlers.phaseHandler.review())
		r.Post("/applications/{applicationID}/phases/{phaseID}/reupload", handlers.phaseHandler.requestReupload())
	})
}
