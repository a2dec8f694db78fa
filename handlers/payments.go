package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"splitpot/backend/dates"
	"splitpot/backend/models"
	"splitpot/backend/recurrence"
	"splitpot/backend/services"
)

// newPayment is the decode target for payment bodies; flags the client
// leaves out keep their committed defaults
func newPayment() models.Payment {
	return models.Payment{IsFinal: true, AffectsBalance: true}
}

func GetPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := services.ListPayments(mux.Vars(r)["projectId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func GetPayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	payment, err := services.GetPayment(vars["projectId"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func CreatePayment(w http.ResponseWriter, r *http.Request) {
	p := newPayment()
	if !decodeJSON(w, r, &p) {
		return
	}

	created, err := services.CreatePayment(mux.Vars(r)["projectId"], p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func UpdatePayment(w http.ResponseWriter, r *http.Request) {
	p := newPayment()
	if !decodeJSON(w, r, &p) {
		return
	}

	vars := mux.Vars(r)
	updated, err := services.UpdatePayment(vars["projectId"], vars["id"], p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func DeletePayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := services.DeletePayment(vars["projectId"], vars["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// occurrenceResponse is the body of the next/previous occurrence endpoints;
// Date is empty when the payment has no such occurrence
type occurrenceResponse struct {
	PaymentID string `json:"payment_id"`
	Date      string `json:"date,omitempty"`
	Found     bool   `json:"found"`
}

func GetNextOccurrence(w http.ResponseWriter, r *http.Request) {
	stepOccurrence(w, r, "after", recurrence.Next)
}

func GetPreviousOccurrence(w http.ResponseWriter, r *http.Request) {
	stepOccurrence(w, r, "before", recurrence.Previous)
}

func stepOccurrence(w http.ResponseWriter, r *http.Request, param string, step func(models.Payment, time.Time) (time.Time, bool)) {
	day, ok := dateParam(r, param)
	if !ok {
		http.Error(w, "Invalid "+param+" date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	pivot, _ := dates.ParseLocalDate(day)

	vars := mux.Vars(r)
	payment, err := services.GetPayment(vars["projectId"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	resp := occurrenceResponse{PaymentID: payment.ID}
	if d, found := step(*payment, pivot); found {
		resp.Date = dates.LocalDateString(d)
		resp.Found = true
	}
	writeJSON(w, http.StatusOK, resp)
}
