package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the per-request timeout for the signals API.
const DefaultTimeout = 30 * time.Second

// RemoteSignal is the upstream signal record
type RemoteSignal struct {
	ID         string   `json:"id"`
	EntityIDs  []string `json:"entity_ids"`
	Summary    string   `json:"summary"`
	SignalType string   `json:"signal_type"`
	Strength   string   `json:"strength"`
	CreatedAt  string   `json:"created_at"`
	ICPID      string   `json:"icp_id,omitempty"`
	References []string `json:"references,omitempty"`
}

// RemoteEntity is the upstream entity record
type RemoteEntity struct {
	ID         string         `json:"id,omitempty"`
	EntityType string         `json:"entity_type"`
	Data       map[string]any `json:"data"`
}

// Source retrieves signals and entities from the upstream API.
// Both methods return (nil, nil) when the record does not exist.
type Source interface {
	RetrieveSignal(ctx context.Context, id string) (*RemoteSignal, error)
	RetrieveEntity(ctx context.Context, id string) (*RemoteEntity, error)
}

// APIError is returned for non-2xx responses from the signals API
type APIError struct {
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("signals API %s returned %d: %s", e.Path, e.Status, e.Message)
}

// APIClient implements Source over the signals HTTP API
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAPIClient creates a client for the API rooted at baseURL
func NewAPIClient(baseURL, apiKey string, timeout time.Duration) (*APIClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid signals API URL %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// RetrieveSignal fetches GET /signals/{id}
func (c *APIClient) RetrieveSignal(ctx context.Context, id string) (*RemoteSignal, error) {
	var sig RemoteSignal
	found, err := c.get(ctx, "/signals/"+url.PathEscape(id), &sig)
	if err != nil || !found {
		return nil, err
	}
	if sig.ID == "" {
		sig.ID = id
	}
	return &sig, nil
}

// RetrieveEntity fetches GET /entities/{id}
func (c *APIClient) RetrieveEntity(ctx context.Context, id string) (*RemoteEntity, error) {
	var ent RemoteEntity
	found, err := c.get(ctx, "/entities/"+url.PathEscape(id), &ent)
	if err != nil || !found {
		return nil, err
	}
	if ent.ID == "" {
		ent.ID = id
	}
	return &ent, nil
}

func (c *APIClient) get(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &APIError{Path: path, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return true, nil
}
