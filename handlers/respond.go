package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"splitpot/backend/dates"
	"splitpot/backend/projection"
	"splitpot/backend/services"
	"splitpot/backend/upstream"
)

// ProjectionWorkers bounds parallel projection folds; zero runs the
// sequential sweep
var ProjectionWorkers int

// Now is the clock used for "today"
var Now = time.Now

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps service errors onto HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	var statusErr *upstream.StatusError
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrInvalidPayment),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, projection.ErrInvalidRange),
		errors.Is(err, projection.ErrUnknownFocus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrParticipantInUse),
		errors.Is(err, services.ErrStaleResponse):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrUpstream), errors.As(err, &statusErr):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		log.Printf("Internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// dateParam reads a YYYY-MM-DD query parameter, defaulting to today
func dateParam(r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return dates.LocalDateString(Now()), true
	}
	d, err := dates.ParseLocalDate(v)
	if err != nil {
		return "", false
	}
	return dates.LocalDateString(d), true
}

func boolParam(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}
