package handlers

import (
	"net/http"

	"splitpot/backend/middleware"
	"splitpot/backend/models"
	"splitpot/backend/services"
)

func GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := services.GetPreferences(middleware.GetUserIDFromContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var prefs models.Preferences
	if !decodeJSON(w, r, &prefs) {
		return
	}

	saved, err := services.SavePreferences(userID, prefs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
