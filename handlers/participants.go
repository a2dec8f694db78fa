package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"splitpot/backend/models"
	"splitpot/backend/services"
)

func GetParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := services.ListParticipants(mux.Vars(r)["projectId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, participants)
}

func CreateParticipant(w http.ResponseWriter, r *http.Request) {
	var p models.Participant
	if !decodeJSON(w, r, &p) {
		return
	}

	created, err := services.CreateParticipant(mux.Vars(r)["projectId"], p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	var p models.Participant
	if !decodeJSON(w, r, &p) {
		return
	}

	vars := mux.Vars(r)
	updated, err := services.UpdateParticipant(vars["projectId"], vars["id"], p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func DeleteParticipant(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := services.DeleteParticipant(vars["projectId"], vars["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
