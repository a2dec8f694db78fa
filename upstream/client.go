// Package upstream talks to a remote splitpot backend that owns a project's
// ledger. It exposes the same debts and payments fetches as the local store.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"splitpot/backend/models"
)

const defaultTimeout = 30 * time.Second

// StatusError is returned when the remote answers with a non-200 status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Body)
}

// Client calls a remote backend with a bearer token
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// GetDebts fetches the remote project's debt summary as of date
func (c *Client) GetDebts(ctx context.Context, projectID, date string, includeDrafts bool) (*models.DebtSummary, error) {
	query := url.Values{}
	query.Set("date", date)
	query.Set("include_drafts", strconv.FormatBool(includeDrafts))

	var summary models.DebtSummary
	if err := c.get(ctx, "/projects/"+url.PathEscape(projectID)+"/debts", query, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetPayments fetches the remote project's payment definitions
func (c *Client) GetPayments(ctx context.Context, projectID string) ([]models.Payment, error) {
	var payments []models.Payment
	if err := c.get(ctx, "/projects/"+url.PathEscape(projectID)+"/payments", nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// GetParticipants fetches the remote project's participants
func (c *Client) GetParticipants(ctx context.Context, projectID string) ([]models.Participant, error) {
	var participants []models.Participant
	if err := c.get(ctx, "/projects/"+url.PathEscape(projectID)+"/participants", nil, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request to upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("Upstream error for %s: %d %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding upstream response: %w", err)
	}
	return nil
}
