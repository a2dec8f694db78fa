package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"splitpot/backend/database"
	"splitpot/backend/models"
	"splitpot/backend/upstream"
)

// syncNamespace seeds the ids of mirrored rows so repeated syncs of the same
// remote row land on the same local id
var syncNamespace = uuid.MustParse("6f1c7a52-3c4e-4d0a-9a55-0d7f4f1f2b61")

func mirroredID(projectID, remoteID string) string {
	return uuid.NewSHA1(syncNamespace, []byte(projectID+"/"+remoteID)).String()
}

// SyncResult counts what one sync wrote
type SyncResult struct {
	Participants int       `json:"participants"`
	Payments     int       `json:"payments"`
	SyncedAt     time.Time `json:"synced_at"`
}

// UpstreamClient returns a client for the project's remote ledger together
// with the remote project id
func UpstreamClient(projectID string) (*upstream.Client, string, error) {
	cfg, err := models.GetUpstreamConfig(database.DB, projectID)
	if err != nil {
		return nil, "", err
	}
	if !cfg.HasCredentials || cfg.RemoteProjectID == "" {
		return nil, "", fmt.Errorf("%w: upstream is not configured for project %s", ErrInvalidInput, projectID)
	}
	token, err := cfg.Token()
	if err != nil {
		return nil, "", err
	}
	return upstream.NewClient(cfg.BaseURL, token), cfg.RemoteProjectID, nil
}

// upstreamSource serves a remote ledger as a Source. Every failure, whether
// a bad status or a broken connection, is reported as ErrUpstream.
type upstreamSource struct {
	client *upstream.Client
}

// NewUpstreamSource wraps a client for the overview loader
func NewUpstreamSource(client *upstream.Client) Source {
	return upstreamSource{client: client}
}

func (s upstreamSource) GetDebts(ctx context.Context, projectID, date string, includeDrafts bool) (*models.DebtSummary, error) {
	summary, err := s.client.GetDebts(ctx, projectID, date, includeDrafts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return summary, nil
}

func (s upstreamSource) GetPayments(ctx context.Context, projectID string) ([]models.Payment, error) {
	payments, err := s.client.GetPayments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return payments, nil
}

// SyncProject mirrors the remote project's participants and payments into the
// local project. Local payments are left alone; previously mirrored payments
// are replaced.
func SyncProject(ctx context.Context, projectID string) (*SyncResult, error) {
	log.Printf("Syncing project %s from upstream", projectID)

	client, remoteID, err := UpstreamClient(projectID)
	if err != nil {
		return nil, err
	}

	var participants []models.Participant
	var payments []models.Payment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		participants, err = client.GetParticipants(gctx, remoteID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = client.GetPayments(gctx, remoteID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	now := time.Now()
	err = withTx(func(tx *sql.Tx) error {
		for _, p := range participants {
			if err := upsertMirroredParticipant(tx, projectID, p); err != nil {
				return err
			}
		}

		_, err := tx.Exec(database.Rebind(`DELETE FROM payments WHERE project_id = ? AND source = ?`),
			projectID, models.SourceUpstream)
		if err != nil {
			return fmt.Errorf("error clearing mirrored payments: %w", err)
		}

		for _, p := range payments {
			if err := insertPayment(tx, mirrorPayment(projectID, p, now)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := models.UpdateLastSyncTime(database.DB, projectID); err != nil {
		return nil, err
	}

	log.Printf("Synced %d participants and %d payments into project %s", len(participants), len(payments), projectID)
	return &SyncResult{Participants: len(participants), Payments: len(payments), SyncedAt: now}, nil
}

func upsertMirroredParticipant(tx *sql.Tx, projectID string, p models.Participant) error {
	if p.AccountType == "" {
		p.AccountType = models.AccountTypeUser
	}
	if p.DefaultWeight == 0 {
		p.DefaultWeight = 1
	}
	_, err := tx.Exec(database.Rebind(`
		INSERT INTO participants (`+participantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			default_weight = excluded.default_weight,
			account_type = excluded.account_type,
			warning_horizon_account = excluded.warning_horizon_account,
			warning_horizon_users = excluded.warning_horizon_users
	`), mirroredID(projectID, p.ID), projectID, p.Name, p.DefaultWeight, p.AccountType, nil,
		p.WarningHorizonAccount, p.WarningHorizonUsers)
	if err != nil {
		return fmt.Errorf("error mirroring participant %s: %w", p.ID, err)
	}
	return nil
}

func mirrorPayment(projectID string, p models.Payment, now time.Time) models.Payment {
	mapID := func(id *string) *string {
		if id == nil || *id == "" {
			return nil
		}
		local := mirroredID(projectID, *id)
		return &local
	}

	p.ID = mirroredID(projectID, p.ID)
	p.ProjectID = projectID
	p.PayerID = mapID(p.PayerID)
	p.ReceiverAccountID = mapID(p.ReceiverAccountID)
	p.Source = models.SourceUpstream
	p.CreatedAt, p.UpdatedAt = now, now

	contributions := make([]models.Contribution, 0, len(p.Contributions))
	for _, c := range p.Contributions {
		contributions = append(contributions, models.Contribution{
			ParticipantID: mirroredID(projectID, c.ParticipantID),
			Amount:        c.Amount,
		})
	}
	p.Contributions = contributions
	return p
}

// SyncAllProjects syncs every project with sync enabled, logging failures
func SyncAllProjects(ctx context.Context) {
	projectIDs, err := models.ListSyncEnabledProjects(database.DB)
	if err != nil {
		log.Printf("Error listing projects to sync: %v", err)
		return
	}

	for _, projectID := range projectIDs {
		if ctx.Err() != nil {
			return
		}
		if _, err := SyncProject(ctx, projectID); err != nil {
			log.Printf("Error syncing project %s: %v", projectID, err)
		}
	}
}
