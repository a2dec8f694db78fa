package handlers

import (
	"net/http"

	"splitpot/backend/middleware"
	"splitpot/backend/services"
)

// SyncUser records the signed-in user so they can be added to projects
func SyncUser(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &request) {
		return
	}

	user, err := services.SyncUser(middleware.GetUserIDFromContext(r), request.Name, request.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := services.GetUser(middleware.GetUserIDFromContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
