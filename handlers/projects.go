package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"splitpot/backend/middleware"
	"splitpot/backend/services"
)

func GetProjects(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	projects, err := services.ListProjects(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func CreateProject(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in services.ProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}

	project, err := services.CreateProject(userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := services.GetProject(mux.Vars(r)["projectId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func UpdateProject(w http.ResponseWriter, r *http.Request) {
	var in services.ProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}

	project, err := services.UpdateProject(mux.Vars(r)["projectId"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	if err := services.DeleteProject(projectID); err != nil {
		writeError(w, err)
		return
	}
	log.Printf("User %s deleted project %s", middleware.GetUserIDFromContext(r), projectID)
	w.WriteHeader(http.StatusNoContent)
}

func GetMembers(w http.ResponseWriter, r *http.Request) {
	members, err := services.ListMembers(mux.Vars(r)["projectId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// memberRequest is the body of POST /projects/{projectId}/members
type memberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func AddMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	member, err := services.SetMember(middleware.GetUserIDFromContext(r), mux.Vars(r)["projectId"], req.UserID, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}
