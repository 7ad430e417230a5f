// Package pluggy is a client for the Pluggy open-banking REST API.
package pluggy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "https://api.pluggy.ai"
	defaultTimeout = 60 * time.Second

	authPath         = "/auth"
	accountsPath     = "/accounts"
	transactionsPath = "/transactions"
	connectTokenPath = "/connect_token"
	itemsPath        = "/items/"

	// transactionPageSize is the largest page the API serves.
	transactionPageSize = 500
	// maxTransactionPages bounds pagination against a misbehaving upstream.
	maxTransactionPages = 200
	maxErrorBody        = 4 << 10
)

// Client handles communication with the Pluggy API. It holds credentials
// only; API keys are obtained per pass with Authenticate.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
}

// Config contains the parameters for NewClient
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// NewClient creates a new Pluggy API client with a traced transport
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
}

// Authenticate exchanges the client credentials for a short-lived API key.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", fmt.Errorf("%w: client credentials are not configured", ErrAuthentication)
	}

	var resp authResponse
	err := c.do(ctx, http.MethodPost, authPath, "", authRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.auth = true
		}
		return "", err
	}
	if resp.APIKey == "" {
		return "", fmt.Errorf("%w: empty api key in response", ErrAuthentication)
	}
	return resp.APIKey, nil
}

// ListAccounts returns every account under the item.
func (c *Client) ListAccounts(ctx context.Context, apiKey, itemID string) ([]Account, error) {
	q := url.Values{"itemId": {itemID}}

	var p page
	if err := c.do(ctx, http.MethodGet, accountsPath+"?"+q.Encode(), apiKey, nil, &p); err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(p.Results))
	for _, raw := range p.Results {
		var a Account
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("%w: failed to decode account: %v", ErrUpstream, err)
		}
		a.Raw = raw
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// ListTransactions returns the account's transactions dated on or after
// since, following pagination to the end. A nil since fetches the full
// history the aggregator holds.
func (c *Client) ListTransactions(ctx context.Context, apiKey, accountID string, since *time.Time) ([]Transaction, error) {
	var all []Transaction

	for pageNum := 1; pageNum <= maxTransactionPages; pageNum++ {
		q := url.Values{
			"accountId": {accountID},
			"pageSize":  {strconv.Itoa(transactionPageSize)},
			"page":      {strconv.Itoa(pageNum)},
		}
		if since != nil {
			q.Set("from", since.Format("2006-01-02"))
		}

		var p page
		if err := c.do(ctx, http.MethodGet, transactionsPath+"?"+q.Encode(), apiKey, nil, &p); err != nil {
			return nil, err
		}

		for _, raw := range p.Results {
			var t Transaction
			if err := json.Unmarshal(raw, &t); err != nil {
				return nil, fmt.Errorf("%w: failed to decode transaction: %v", ErrUpstream, err)
			}
			t.Raw = raw
			all = append(all, t)
		}

		if pageNum >= p.TotalPages || len(p.Results) == 0 {
			return all, nil
		}
	}

	return nil, fmt.Errorf("%w: transaction pagination exceeded %d pages", ErrUpstream, maxTransactionPages)
}

// CreateConnectToken issues a token for the client-side linking widget.
// An empty itemID creates a token for linking a new institution.
func (c *Client) CreateConnectToken(ctx context.Context, apiKey, itemID string) (string, error) {
	var resp connectTokenResponse
	if err := c.do(ctx, http.MethodPost, connectTokenPath, apiKey, connectTokenRequest{ItemID: itemID}, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty connect token in response", ErrUpstream)
	}
	return resp.AccessToken, nil
}

// GetItem fetches the item's status and institution.
func (c *Client) GetItem(ctx context.Context, apiKey, itemID string) (*Item, error) {
	var item Item
	if err := c.do(ctx, http.MethodGet, itemsPath+url.PathEscape(itemID), apiKey, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) do(ctx context.Context, method, path, apiKey string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-KEY", apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUpstream, method, stripQuery(path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode, Path: stripQuery(path)}
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Message != "" {
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", ErrUpstream, stripQuery(path), err)
	}
	return nil
}

func stripQuery(path string) string {
	p, _, _ := strings.Cut(path, "?")
	return p
}
