package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"splitpot/backend/database"
	"splitpot/backend/models"
	"splitpot/backend/upstream"
)

func newUpstreamServer(t *testing.T, payments []models.Payment) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects/remote/participants", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Participant{
			{ID: "r-alice", Name: "Alice", AccountType: models.AccountTypeUser},
			{ID: "r-bob", Name: "Bob", AccountType: models.AccountTypeUser},
		})
	})
	mux.HandleFunc("/api/projects/remote/payments", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(payments)
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer remote-token" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSyncProjectMirrorsRemoteLedger(t *testing.T) {
	remotePayments := []models.Payment{{
		ID:             "r-dinner",
		Description:    "Dinner",
		PayerID:        strPtr("r-alice"),
		Amount:         40,
		PaymentDate:    "2024-01-10",
		IsFinal:        true,
		AffectsBalance: true,
		Contributions: []models.Contribution{
			{ParticipantID: "r-alice", Amount: 20},
			{ParticipantID: "r-bob", Amount: 20},
		},
	}}
	srv := newUpstreamServer(t, remotePayments)

	project, err := CreateProject(testUserID, ProjectInput{Name: "Mirror"})
	if err != nil {
		t.Fatalf("Error creating project: %v", err)
	}
	ctx := context.Background()

	if _, err := SyncProject(ctx, project.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected an unconfigured project to be rejected, got %v", err)
	}

	err = models.UpsertUpstreamConfig(database.DB, &models.UpstreamConfigUpdateRequest{
		BaseURL:         srv.URL + "/api",
		RemoteProjectID: "remote",
		APIToken:        "remote-token",
		SyncEnabled:     true,
	}, project.ID)
	if err != nil {
		t.Fatalf("Error saving upstream config: %v", err)
	}

	local, err := CreateParticipant(project.ID, models.Participant{Name: "Local"})
	if err != nil {
		t.Fatalf("Error creating local participant: %v", err)
	}
	if _, err := CreatePayment(project.ID, models.Payment{
		PayerID: strPtr(local.ID), Amount: 5, PaymentDate: "2024-01-01", IsFinal: true, AffectsBalance: true,
		Contributions: []models.Contribution{{ParticipantID: local.ID, Amount: 5}},
	}); err != nil {
		t.Fatalf("Error creating local payment: %v", err)
	}

	for round := 1; round <= 2; round++ {
		result, err := SyncProject(ctx, project.ID)
		if err != nil {
			t.Fatalf("Sync round %d failed: %v", round, err)
		}
		if result.Participants != 2 || result.Payments != 1 {
			t.Errorf("Round %d: unexpected result %+v", round, result)
		}
	}

	payments, err := ListPayments(project.ID)
	if err != nil {
		t.Fatalf("Error listing payments: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("Expected the local payment plus one mirrored payment, got %d", len(payments))
	}
	mirrored := payments[1]
	if mirrored.Source != models.SourceUpstream || *mirrored.PayerID != mirroredID(project.ID, "r-alice") {
		t.Errorf("Unexpected mirrored payment %+v", mirrored)
	}

	summary, err := LocalSource{}.GetDebts(ctx, project.ID, "2024-01-31", false)
	if err != nil {
		t.Fatalf("GetDebts failed: %v", err)
	}
	nets := netsOf(summary)
	if !near(nets[mirroredID(project.ID, "r-alice")], 20) || !near(nets[mirroredID(project.ID, "r-bob")], -20) {
		t.Errorf("Unexpected nets after sync %v", nets)
	}

	cfg, err := models.GetUpstreamConfig(database.DB, project.ID)
	if err != nil {
		t.Fatalf("Error reading upstream config: %v", err)
	}
	if cfg.LastSyncTime.IsZero() {
		t.Error("Expected the last sync time to be stamped")
	}
}

func TestSyncProjectReportsUpstreamFailures(t *testing.T) {
	srv := newUpstreamServer(t, nil)
	project, err := CreateProject(testUserID, ProjectInput{Name: "Broken mirror"})
	if err != nil {
		t.Fatalf("Error creating project: %v", err)
	}
	err = models.UpsertUpstreamConfig(database.DB, &models.UpstreamConfigUpdateRequest{
		BaseURL:         srv.URL + "/api",
		RemoteProjectID: "remote",
		APIToken:        "wrong-token",
	}, project.ID)
	if err != nil {
		t.Fatalf("Error saving upstream config: %v", err)
	}

	if _, err := SyncProject(context.Background(), project.ID); !errors.Is(err, ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
}

func TestUpstreamSourceReportsConnectionFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	loader := NewOverviewLoader(NewUpstreamSource(upstream.NewClient(baseURL, "token")))
	_, err := loader.Load(context.Background(), "u/p", OverviewRequest{ProjectID: "remote", Date: "2024-01-31"})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Expected a refused connection to be ErrUpstream, got %v", err)
	}

	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("Expected no status for a refused connection, got %v", statusErr)
	}
}
