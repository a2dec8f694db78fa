package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"splitpot/backend/database"
	"splitpot/backend/models"
	"splitpot/backend/services"
)

// GetUpstreamConfig returns the project's upstream settings without the token
func GetUpstreamConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := models.GetUpstreamConfig(database.DB, mux.Vars(r)["projectId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func UpdateUpstreamConfig(w http.ResponseWriter, r *http.Request) {
	var req models.UpstreamConfigUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.BaseURL = strings.TrimSpace(req.BaseURL)
	if req.BaseURL == "" || req.RemoteProjectID == "" {
		http.Error(w, "base_url and remote_project_id are required", http.StatusBadRequest)
		return
	}

	projectID := mux.Vars(r)["projectId"]
	if err := models.UpsertUpstreamConfig(database.DB, &req, projectID); err != nil {
		writeError(w, err)
		return
	}
	log.Printf("Updated upstream config for project %s", projectID)

	cfg, err := models.GetUpstreamConfig(database.DB, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func SyncUpstream(w http.ResponseWriter, r *http.Request) {
	result, err := services.SyncProject(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
