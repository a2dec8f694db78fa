package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"splitpot/backend/services"
)

const ProjectRoleKey contextKey = "project_role"

// RequireProjectRole ensures the caller holds at least requiredRole in the
// project named by the {projectId} route variable
func RequireProjectRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserIDFromContext(r)
			if userID == "" {
				http.Error(w, "Unauthorized: No user ID found", http.StatusUnauthorized)
				return
			}

			projectID := mux.Vars(r)["projectId"]
			role, err := services.GetMemberRole(projectID, userID)
			if errors.Is(err, services.ErrNotFound) {
				// Non-members can't tell a hidden project from a missing one
				http.Error(w, "Project not found", http.StatusNotFound)
				return
			}
			if err != nil {
				log.Printf("Error getting role of %s in project %s: %v", userID, projectID, err)
				http.Error(w, "Failed to get project role", http.StatusInternalServerError)
				return
			}

			if !services.IsRoleAtLeast(role, requiredRole) {
				http.Error(w, "Forbidden: Insufficient role privileges", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ProjectRoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetProjectRoleFromContext returns the role RequireProjectRole resolved
func GetProjectRoleFromContext(r *http.Request) string {
	role, _ := r.Context().Value(ProjectRoleKey).(string)
	return role
}
