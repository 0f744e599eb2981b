// Package walletgate provides a Go client for the walletgate API.
//
// The client covers the whole verification flow: issue a challenge for a
// claimed address, surface the one-time code and deposit address to the
// user, poll the status endpoint until the proof transfer is observed, and
// use the resulting session token against session-protected endpoints.
package walletgate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openaxm/walletgate/core"
)

// Client represents a walletgate API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new walletgate API client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(u.String(), "/"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Challenge is the server's response to an issue request: everything the
// claimant needs to broadcast the proof transfer and poll for the result.
type Challenge struct {
	CorrelationToken string `json:"correlation_token"`
	Code             string `json:"code"`
	DepositAddress   string `json:"deposit_address"`
	RequiredAmount   string `json:"required_amount"`
	ExpiresAt        string `json:"expires_at"`
}

// Status is the result of a status poll.
type Status struct {
	Verified      bool   `json:"verified"`
	SessionToken  string `json:"session_token"`
	WalletAddress string `json:"wallet_address"`
}

// Session describes the verified session behind a session token.
type Session struct {
	WalletAddress string `json:"wallet_address"`
	UserID        string `json:"user_id"`
	Verified      bool   `json:"verified"`
}

// IssueChallenge requests a new challenge for the claimed address,
// superseding any pending one. userID is optional.
func (c *Client) IssueChallenge(ctx context.Context, address, userID string) (*Challenge, error) {
	payload, err := json.Marshal(map[string]string{
		"address": address,
		"user_id": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/challenges", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("issue request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, core.ErrInvalidAddress
	default:
		return nil, fmt.Errorf("issue returned status %d", resp.StatusCode)
	}

	var challenge Challenge
	if err := json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &challenge, nil
}

// CheckStatus polls the verification status of a challenge. It is safe to
// call repeatedly; core.ErrLedgerUnavailable signals a transient condition
// worth retrying with backoff, while core.ErrChallengeExpired means the
// flow must restart with a fresh challenge.
func (c *Client) CheckStatus(ctx context.Context, address, correlationToken string) (*Status, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("token", correlationToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/challenges/status?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, core.ErrTokenInvalid
	case http.StatusGone:
		return nil, core.ErrChallengeExpired
	case http.StatusServiceUnavailable:
		return nil, core.ErrLedgerUnavailable
	default:
		return nil, fmt.Errorf("status returned %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &status, nil
}

// Me fetches the session behind a session token, verifying it server-side.
func (c *Client) Me(ctx context.Context, sessionToken string) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/session/me", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, core.ErrSessionInvalid
	default:
		return nil, fmt.Errorf("session returned %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &session, nil
}
