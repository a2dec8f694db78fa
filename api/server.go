// Package api assembles the HTTP router.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"splitpot/backend/config"
	"splitpot/backend/handlers"
	"splitpot/backend/middleware"
	"splitpot/backend/models"
)

// NewRouter builds the API router. Every route is served both at the root
// and under /api.
func NewRouter(cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.CORS(cfg.CORSOrigins, !cfg.IsProduction()))

	registerRoutes(r)
	apiRouter := r.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter)

	return r
}

// project guards a project-scoped handler with a minimum member role
func project(role string, h http.HandlerFunc) http.Handler {
	return middleware.RequireProjectRole(role)(h)
}

func registerRoutes(r *mux.Router) {
	// Public routes
	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET", "OPTIONS")

	protected := r.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/users/me", handlers.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/users/sync", handlers.SyncUser).Methods("POST")

	protected.HandleFunc("/preferences", handlers.GetPreferences).Methods("GET")
	protected.HandleFunc("/preferences", handlers.UpdatePreferences).Methods("PUT")

	protected.HandleFunc("/projects", handlers.GetProjects).Methods("GET")
	protected.HandleFunc("/projects", handlers.CreateProject).Methods("POST")
	protected.Handle("/projects/{projectId}", project(models.RoleViewer, handlers.GetProject)).Methods("GET")
	protected.Handle("/projects/{projectId}", project(models.RoleEditor, handlers.UpdateProject)).Methods("PUT")
	protected.Handle("/projects/{projectId}", project(models.RoleOwner, handlers.DeleteProject)).Methods("DELETE")

	// Members
	protected.Handle("/projects/{projectId}/members", project(models.RoleViewer, handlers.GetMembers)).Methods("GET")
	protected.Handle("/projects/{projectId}/members", project(models.RoleEditor, handlers.AddMember)).Methods("POST")

	// Participants
	protected.Handle("/projects/{projectId}/participants", project(models.RoleViewer, handlers.GetParticipants)).Methods("GET")
	protected.Handle("/projects/{projectId}/participants", project(models.RoleEditor, handlers.CreateParticipant)).Methods("POST")
	protected.Handle("/projects/{projectId}/participants/{id}", project(models.RoleEditor, handlers.UpdateParticipant)).Methods("PUT")
	protected.Handle("/projects/{projectId}/participants/{id}", project(models.RoleEditor, handlers.DeleteParticipant)).Methods("DELETE")

	// Payments
	protected.Handle("/projects/{projectId}/payments", project(models.RoleViewer, handlers.GetPayments)).Methods("GET")
	protected.Handle("/projects/{projectId}/payments", project(models.RoleEditor, handlers.CreatePayment)).Methods("POST")
	protected.Handle("/projects/{projectId}/payments/{id}", project(models.RoleViewer, handlers.GetPayment)).Methods("GET")
	protected.Handle("/projects/{projectId}/payments/{id}", project(models.RoleEditor, handlers.UpdatePayment)).Methods("PUT")
	protected.Handle("/projects/{projectId}/payments/{id}", project(models.RoleEditor, handlers.DeletePayment)).Methods("DELETE")
	protected.Handle("/projects/{projectId}/payments/{id}/next", project(models.RoleViewer, handlers.GetNextOccurrence)).Methods("GET")
	protected.Handle("/projects/{projectId}/payments/{id}/previous", project(models.RoleViewer, handlers.GetPreviousOccurrence)).Methods("GET")

	// Balances
	protected.Handle("/projects/{projectId}/debts", project(models.RoleViewer, handlers.GetDebts)).Methods("GET")
	protected.Handle("/projects/{projectId}/overview", project(models.RoleViewer, handlers.GetOverview)).Methods("GET")
	protected.Handle("/projects/{projectId}/projection", project(models.RoleViewer, handlers.GetProjection)).Methods("GET")
	protected.Handle("/projects/{projectId}/projection/export", project(models.RoleViewer, handlers.ExportProjection)).Methods("GET")
	protected.Handle("/projects/{projectId}/warnings", project(models.RoleViewer, handlers.GetWarnings)).Methods("GET")

	// Upstream mirror
	protected.Handle("/projects/{projectId}/upstream", project(models.RoleViewer, handlers.GetUpstreamConfig)).Methods("GET")
	protected.Handle("/projects/{projectId}/upstream", project(models.RoleOwner, handlers.UpdateUpstreamConfig)).Methods("PUT")
	protected.Handle("/projects/{projectId}/upstream/sync", project(models.RoleEditor, handlers.SyncUpstream)).Methods("POST")
}
