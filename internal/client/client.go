package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client is an HTTP client for the goendpoint API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ruleset is one service's ruleset as returned by the API.
type Ruleset struct {
	Service   string          `json:"service"`
	Env       string          `json:"env"`
	Document  json.RawMessage `json:"document"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Snapshot is the full set of rulesets served by the API.
type Snapshot struct {
	ETag      string             `json:"etag"`
	Rulesets  map[string]Ruleset `json:"rulesets"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ResolveResult is a successfully resolved endpoint.
type ResolveResult struct {
	Service    string              `json:"service"`
	URL        string              `json:"url"`
	Properties map[string]any      `json:"properties,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

// GetSnapshot retrieves the full ruleset snapshot
func (c *Client) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	if err := c.do(ctx, "GET", "/v1/rulesets/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListRulesets retrieves all rulesets known to the server
func (c *Client) ListRulesets(ctx context.Context) ([]Ruleset, error) {
	snap, err := c.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	rulesets := make([]Ruleset, 0, len(snap.Rulesets))
	for _, rs := range snap.Rulesets {
		rulesets = append(rulesets, rs)
	}
	return rulesets, nil
}

// GetRuleset retrieves a single service's ruleset
func (c *Client) GetRuleset(ctx context.Context, service string) (*Ruleset, error) {
	var rs Ruleset
	if err := c.do(ctx, "GET", "/v1/rulesets/"+service, nil, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

// UpsertRuleset creates or replaces a service's ruleset document
func (c *Client) UpsertRuleset(ctx context.Context, service string, document []byte) error {
	return c.do(ctx, "PUT", "/v1/rulesets/"+service, document, nil)
}

// DeleteRuleset removes a service's ruleset
func (c *Client) DeleteRuleset(ctx context.Context, service string) error {
	return c.do(ctx, "DELETE", "/v1/rulesets/"+service, nil, nil)
}

// Resolve asks the server to resolve an endpoint for a service
func (c *Client) Resolve(ctx context.Context, service string, params map[string]any) (*ResolveResult, error) {
	body, err := json.Marshal(map[string]any{
		"service": service,
		"params":  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var result ResolveResult
	if err := c.do(ctx, "POST", "/v1/resolve", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do performs one API request, decoding a JSON response into out when it
// is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(data)
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
