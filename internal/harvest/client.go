// Package harvest pushes ledger records to the Harvest time tracking API.
package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Harvest v2 API root.
const DefaultBaseURL = "https://api.harvestapp.com/api/v2"

const (
	EnvToken     = "HARVEST_PERSONAL_ACCESS_TOKEN"
	EnvAccountID = "HARVEST_ACCOUNT_ID"
)

const userAgent = "litt sync to Harvest"

// Credentials authenticate against one Harvest account.
type Credentials struct {
	Token     string
	AccountID string
}

// Complete reports whether both the token and the account id are set.
func (c Credentials) Complete() bool {
	return c.Token != "" && c.AccountID != ""
}

// LoadCredentials reads the credentials from the environment after loading
// envFile, if it exists. Variables already set in the environment win.
func LoadCredentials(envFile string) (Credentials, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return Credentials{
		Token:     strings.TrimSpace(os.Getenv(EnvToken)),
		AccountID: strings.TrimSpace(os.Getenv(EnvAccountID)),
	}, nil
}

// TimeEntry is the body of a create request. ProjectID and TaskID are
// numbers when the tag value parses as one, strings otherwise.
type TimeEntry struct {
	ProjectID any     `json:"project_id"`
	TaskID    any     `json:"task_id"`
	SpentDate string  `json:"spent_date"`
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
}

type timeEntryResponse struct {
	ID int64 `json:"id"`
}

// Client is an authenticated Harvest API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	limiter    *rate.Limiter
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLimiter replaces the default limit of four requests per second.
func WithLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a client that sends creds.Token as a bearer token.
func NewClient(ctx context.Context, creds Credentials, opts ...ClientOption) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token, TokenType: "Bearer"})
	c := &Client{
		httpClient: oauth2.NewClient(ctx, ts),
		baseURL:    DefaultBaseURL,
		accountID:  creds.AccountID,
		// Harvest allows 100 requests per 15 seconds.
		limiter: rate.NewLimiter(4, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateTimeEntry posts entry and returns the id Harvest assigned to it.
func (c *Client) CreateTimeEntry(ctx context.Context, entry TimeEntry) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return 0, fmt.Errorf("encoding time entry: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/time_entries", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Harvest-Account-Id", c.accountID)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("harvest API request failed: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return 0, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("harvest API error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var created timeEntryResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return 0, fmt.Errorf("decoding harvest response: %w", err)
	}
	if created.ID == 0 {
		return 0, errors.New("harvest response carries no entry id")
	}
	return created.ID, nil
}
