package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"splitpot/backend/middleware"
	"splitpot/backend/models"
	"splitpot/backend/services"
)

// TestUserID is the caller of every request built by these helpers
const TestUserID = "test-user-id"

// MockAuthContext adds a user ID to the request context
func MockAuthContext(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

// NewAuthenticatedRequest builds a request for TestUserID with a JSON body
// and the given path variables
func NewAuthenticatedRequest(method, url string, body any, vars map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		buf, _ := json.Marshal(body)
		req = httptest.NewRequest(method, url, bytes.NewBuffer(buf))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return MockAuthContext(req, TestUserID)
}

// serve runs one handler against a request and returns the recorder
func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("Error decoding response %q: %v", rr.Body.String(), err)
	}
}

// testProject is a project owned by TestUserID with two users and a pool
type testProject struct {
	id         string
	alice, bob string
	pool       string
}

func setupTestProject(t *testing.T) testProject {
	t.Helper()
	project, err := services.CreateProject(TestUserID, services.ProjectInput{Name: "Household"})
	if err != nil {
		t.Fatalf("Error creating project: %v", err)
	}

	tp := testProject{id: project.ID}
	for _, p := range []struct {
		participant models.Participant
		id          *string
	}{
		{models.Participant{Name: "Alice", AccountType: models.AccountTypeUser}, &tp.alice},
		{models.Participant{Name: "Bob", AccountType: models.AccountTypeUser}, &tp.bob},
		{models.Participant{Name: "Savings", AccountType: models.AccountTypePool, WarningHorizonAccount: models.HorizonEndOfMonth}, &tp.pool},
	} {
		created, err := services.CreateParticipant(project.ID, p.participant)
		if err != nil {
			t.Fatalf("Error creating participant %s: %v", p.participant.Name, err)
		}
		*p.id = created.ID
	}
	return tp
}

func (tp testProject) vars() map[string]string {
	return map[string]string{"projectId": tp.id}
}
