package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"splitpot/backend/database"
	"splitpot/backend/models"
	"splitpot/backend/projection"
	"splitpot/backend/security"
	"splitpot/backend/services"
	"splitpot/backend/upstream"
)

func TestMain(m *testing.M) {
	if err := database.InitMemoryDB(); err != nil {
		panic(err)
	}
	security.InitializeEncryption("test-encryption-key")
	Now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local) }

	code := m.Run()

	database.Close()
	os.Exit(code)
}

func TestWriteErrorStatuses(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"Not found", fmt.Errorf("payment x: %w", services.ErrNotFound), http.StatusNotFound},
		{"Invalid payment", fmt.Errorf("%w: amount", services.ErrInvalidPayment), http.StatusBadRequest},
		{"Invalid range", projection.ErrInvalidRange, http.StatusBadRequest},
		{"Unknown focus", projection.ErrUnknownFocus, http.StatusBadRequest},
		{"Forbidden", services.ErrForbidden, http.StatusForbidden},
		{"In use", services.ErrParticipantInUse, http.StatusConflict},
		{"Stale", services.ErrStaleResponse, http.StatusConflict},
		{"Upstream", fmt.Errorf("%w: timeout", services.ErrUpstream), http.StatusBadGateway},
		{"Upstream status", &upstream.StatusError{Code: http.StatusUnauthorized}, http.StatusBadGateway},
		{"Anything else", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tc.err)
			if rr.Code != tc.expected {
				t.Errorf("Expected status %d, got %d", tc.expected, rr.Code)
			}
		})
	}
}

func TestProjectHandlers(t *testing.T) {
	rr := serve(CreateProject, NewAuthenticatedRequest("POST", "/projects", map[string]string{"name": "Trip"}, nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	var project models.Project
	decodeBody(t, rr, &project)
	if project.CreatedBy != TestUserID || project.CurrencySymbol != "$" {
		t.Errorf("Unexpected project %+v", project)
	}
	vars := map[string]string{"projectId": project.ID}

	rr = serve(GetProjects, NewAuthenticatedRequest("GET", "/projects", nil, nil))
	var projects []models.Project
	decodeBody(t, rr, &projects)
	found := false
	for _, p := range projects {
		found = found || p.ID == project.ID
	}
	if !found {
		t.Errorf("Expected the new project in %+v", projects)
	}

	rr = serve(AddMember, NewAuthenticatedRequest("POST", "/members", map[string]string{"user_id": "friend", "role": models.RoleEditor}, vars))
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d adding a member, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	rr = serve(AddMember, NewAuthenticatedRequest("POST", "/members", map[string]string{"user_id": "friend", "role": "admin"}, vars))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for an unknown role, got %d", http.StatusBadRequest, rr.Code)
	}

	rr = serve(GetMembers, NewAuthenticatedRequest("GET", "/members", nil, vars))
	var members []models.Member
	decodeBody(t, rr, &members)
	if len(members) != 2 {
		t.Errorf("Expected 2 members, got %+v", members)
	}

	rr = serve(DeleteProject, NewAuthenticatedRequest("DELETE", "/projects/"+project.ID, nil, vars))
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status %d, got %d", http.StatusNoContent, rr.Code)
	}
	rr = serve(GetProject, NewAuthenticatedRequest("GET", "/projects/"+project.ID, nil, vars))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status %d after delete, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestCreatePaymentKeepsCommittedDefaults(t *testing.T) {
	tp := setupTestProject(t)

	body := map[string]any{
		"description":  "Groceries",
		"payer_id":     tp.alice,
		"amount":       40,
		"payment_date": "2024-03-01",
		"contributions": []map[string]any{
			{"participant_id": tp.alice, "amount": 20},
			{"participant_id": tp.bob, "amount": 20},
		},
	}
	rr := serve(CreatePayment, NewAuthenticatedRequest("POST", "/payments", body, tp.vars()))
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	var created models.Payment
	decodeBody(t, rr, &created)
	if !created.IsFinal || !created.AffectsBalance {
		t.Errorf("Expected omitted flags to default to true, got %+v", created)
	}

	body["is_final"] = false
	body["amount"] = 50
	rr = serve(CreatePayment, NewAuthenticatedRequest("POST", "/payments", body, tp.vars()))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for unbalanced contributions, got %d", http.StatusBadRequest, rr.Code)
	}

	rr = serve(DeleteParticipant, NewAuthenticatedRequest("DELETE", "/participants", nil,
		map[string]string{"projectId": tp.id, "id": tp.bob}))
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status %d deleting a referenced participant, got %d", http.StatusConflict, rr.Code)
	}
}

func TestDebtHandlers(t *testing.T) {
	tp := setupTestProject(t)
	_, err := services.CreatePayment(tp.id, models.Payment{
		Description:    "Groceries",
		PayerID:        &tp.alice,
		Amount:         40,
		PaymentDate:    "2024-03-01",
		IsFinal:        true,
		AffectsBalance: true,
		Contributions:  []models.Contribution{{ParticipantID: tp.alice, Amount: 20}, {ParticipantID: tp.bob, Amount: 20}},
	})
	if err != nil {
		t.Fatalf("Error creating payment: %v", err)
	}

	t.Run("Debts default to today", func(t *testing.T) {
		rr := serve(GetDebts, NewAuthenticatedRequest("GET", "/debts", nil, tp.vars()))
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
		}
		var summary models.DebtSummary
		decodeBody(t, rr, &summary)
		if summary.Date != "2024-03-10" {
			t.Errorf("Expected today's date, got %s", summary.Date)
		}
		for _, b := range summary.Balances {
			if b.ParticipantID == tp.alice && b.Net != 20 {
				t.Errorf("Expected Alice to be owed 20, got %.2f", b.Net)
			}
		}
	})

	t.Run("Bad date", func(t *testing.T) {
		rr := serve(GetDebts, NewAuthenticatedRequest("GET", "/debts?date=10-03-2024", nil, tp.vars()))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("Unknown project", func(t *testing.T) {
		rr := serve(GetDebts, NewAuthenticatedRequest("GET", "/debts", nil, map[string]string{"projectId": "missing"}))
		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected status %d, got %d", http.StatusNotFound, rr.Code)
		}
	})

	t.Run("Overview", func(t *testing.T) {
		rr := serve(GetOverview, NewAuthenticatedRequest("GET", "/overview?date=2024-03-31&mode=direct", nil, tp.vars()))
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
		}
		var overview services.Overview
		decodeBody(t, rr, &overview)
		if len(overview.Payments) != 1 || len(overview.Settlements) != 1 {
			t.Fatalf("Unexpected overview %+v", overview)
		}
		s := overview.Settlements[0]
		if s.From != tp.bob || s.To != tp.alice || s.Amount != 20 {
			t.Errorf("Expected Bob to settle 20 with Alice, got %+v", s)
		}

		rr = serve(GetOverview, NewAuthenticatedRequest("GET", "/overview?mode=fastest", nil, tp.vars()))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d for an unknown mode, got %d", http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("Projection", func(t *testing.T) {
		rr := serve(GetProjection, NewAuthenticatedRequest("GET", "/projection?start=2024-02-01&end=2024-03-31&focus="+tp.alice, nil, tp.vars()))
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
		}
		var resp projectionResponse
		decodeBody(t, rr, &resp)
		if len(resp.Participants) != 3 || len(resp.Snapshots) == 0 {
			t.Fatalf("Unexpected projection %+v", resp)
		}
		last := resp.Snapshots[len(resp.Snapshots)-1]
		if last.Date != "2024-03-31" || last.Focus[tp.bob] != 20 {
			t.Errorf("Unexpected final snapshot %+v", last)
		}

		for _, query := range []string{
			"?start=2024-03-31&end=2024-03-01",
			"?start=2024-03-01",
			"?start=2024-03-01&end=2024-03-31&focus=nobody",
		} {
			rr := serve(GetProjection, NewAuthenticatedRequest("GET", "/projection"+query, nil, tp.vars()))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected status %d for %s, got %d", http.StatusBadRequest, query, rr.Code)
			}
		}
	})

	t.Run("Export", func(t *testing.T) {
		rr := serve(ExportProjection, NewAuthenticatedRequest("GET", "/projection/export?start=2024-03-01&end=2024-03-31", nil, tp.vars()))
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
		}
		if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
			t.Errorf("Unexpected content type %q", ct)
		}
		if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "projection-2024-03-01-2024-03-31.xlsx") {
			t.Errorf("Unexpected content disposition %q", cd)
		}
		if !strings.HasPrefix(rr.Body.String(), "PK") {
			t.Error("Expected a zip container")
		}
	})

	t.Run("Warnings", func(t *testing.T) {
		rr := serve(GetWarnings, NewAuthenticatedRequest("GET", "/warnings", nil, tp.vars()))
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
		}
		var warnings []models.Warning
		decodeBody(t, rr, &warnings)
		if warnings == nil || len(warnings) != 0 {
			t.Errorf("Expected an empty warning list, got %v", warnings)
		}
	})
}

func TestOccurrenceHandlers(t *testing.T) {
	tp := setupTestProject(t)
	rent, err := services.CreatePayment(tp.id, models.Payment{
		Description:        "Rent share",
		PayerID:            &tp.alice,
		ReceiverAccountID:  &tp.bob,
		Amount:             10,
		PaymentDate:        "2024-01-15",
		IsRecurring:        true,
		RecurrenceType:     models.RecurrenceMonthly,
		RecurrenceInterval: 1,
		IsFinal:            true,
		AffectsBalance:     true,
	})
	if err != nil {
		t.Fatalf("Error creating payment: %v", err)
	}
	vars := map[string]string{"projectId": tp.id, "id": rent.ID}

	// Monthly interval rules step 30 days from the start date rather than
	// by calendar month: 2024-02-14, 2024-03-15, 2024-04-14
	testCases := []struct {
		name    string
		handler http.HandlerFunc
		query   string
		want    string
	}{
		{"Next", GetNextOccurrence, "?after=2024-03-01", "2024-03-15"},
		{"Next on an occurrence", GetNextOccurrence, "?after=2024-03-15", "2024-04-14"},
		{"Previous", GetPreviousOccurrence, "?before=2024-03-01", "2024-02-14"},
		{"Previous before start", GetPreviousOccurrence, "?before=2024-01-15", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(tc.handler, NewAuthenticatedRequest("GET", "/occurrence"+tc.query, nil, vars))
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
			}
			var resp occurrenceResponse
			decodeBody(t, rr, &resp)
			if resp.Date != tc.want || resp.Found != (tc.want != "") {
				t.Errorf("Expected %q, got %+v", tc.want, resp)
			}
		})
	}

	rr := serve(GetNextOccurrence, NewAuthenticatedRequest("GET", "/occurrence?after=soon", nil, vars))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for a bad date, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestPreferenceHandlers(t *testing.T) {
	rr := serve(UpdatePreferences, NewAuthenticatedRequest("PUT", "/preferences",
		models.Preferences{DateFormat: "iso", CurrencySymbol: "€", CurrencyPosition: models.CurrencyAfter}, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	rr = serve(GetPreferences, NewAuthenticatedRequest("GET", "/preferences", nil, nil))
	var prefs models.Preferences
	decodeBody(t, rr, &prefs)
	if prefs.DateFormat != "iso" || prefs.CurrencySymbol != "€" || prefs.UserID != TestUserID {
		t.Errorf("Unexpected preferences %+v", prefs)
	}

	rr = serve(UpdatePreferences, NewAuthenticatedRequest("PUT", "/preferences", models.Preferences{DecimalSeparator: ";"}, nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for an unknown separator, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestUpstreamHandlers(t *testing.T) {
	tp := setupTestProject(t)

	rr := serve(SyncUpstream, NewAuthenticatedRequest("POST", "/upstream/sync", nil, tp.vars()))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d syncing an unconfigured project, got %d", http.StatusBadRequest, rr.Code)
	}

	rr = serve(UpdateUpstreamConfig, NewAuthenticatedRequest("PUT", "/upstream", map[string]any{"api_token": "x"}, tp.vars()))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d without a base URL, got %d", http.StatusBadRequest, rr.Code)
	}

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer remote.Close()

	rr = serve(UpdateUpstreamConfig, NewAuthenticatedRequest("PUT", "/upstream", models.UpstreamConfigUpdateRequest{
		BaseURL:         remote.URL,
		RemoteProjectID: "remote-1",
		APIToken:        "super-secret-token",
		SyncEnabled:     true,
	}, tp.vars()))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "super-secret-token") {
		t.Error("Expected the token to stay out of responses")
	}

	rr = serve(GetUpstreamConfig, NewAuthenticatedRequest("GET", "/upstream", nil, tp.vars()))
	var cfg models.UpstreamConfig
	decodeBody(t, rr, &cfg)
	if !cfg.HasCredentials || cfg.RemoteProjectID != "remote-1" || !cfg.SyncEnabled {
		t.Errorf("Unexpected upstream config %+v", cfg)
	}

	rr = serve(SyncUpstream, NewAuthenticatedRequest("POST", "/upstream/sync", nil, tp.vars()))
	if rr.Code != http.StatusBadGateway {
		t.Errorf("Expected status %d when the remote fails, got %d", http.StatusBadGateway, rr.Code)
	}

	rr = serve(GetOverview, NewAuthenticatedRequest("GET", "/overview?source=upstream", nil, tp.vars()))
	if rr.Code != http.StatusBadGateway {
		t.Errorf("Expected status %d for an upstream overview, got %d", http.StatusBadGateway, rr.Code)
	}
}

func TestUpstreamOverviewUnreachable(t *testing.T) {
	tp := setupTestProject(t)

	remote := httptest.NewServer(http.NotFoundHandler())
	baseURL := remote.URL
	remote.Close()

	err := models.UpsertUpstreamConfig(database.DB, &models.UpstreamConfigUpdateRequest{
		BaseURL:         baseURL,
		RemoteProjectID: "remote-1",
		APIToken:        "token",
	}, tp.id)
	if err != nil {
		t.Fatalf("Error saving upstream config: %v", err)
	}

	rr := serve(GetOverview, NewAuthenticatedRequest("GET", "/overview?source=upstream", nil, tp.vars()))
	if rr.Code != http.StatusBadGateway {
		t.Errorf("Expected status %d when the remote is unreachable, got %d", http.StatusBadGateway, rr.Code)
	}
}
