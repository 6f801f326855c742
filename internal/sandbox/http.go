package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is returned for non-2xx responses from the control plane
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sandbox %s failed with status %d: %s", e.Op, e.Status, e.Message)
}

// HTTPProvider talks to a remote sandbox control plane over REST
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPProvider creates a provider for the control plane at baseURL
func NewHTTPProvider(baseURL, apiKey string) (*HTTPProvider, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid sandbox API URL %q", baseURL)
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// individual calls are bounded by their contexts
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

type createRequest struct {
	Spec
	TimeoutSeconds     int `json:"timeout_seconds"`
	IdleTimeoutSeconds int `json:"idle_timeout_seconds"`
}

type createResponse struct {
	ID string `json:"id"`
}

type execRequest struct {
	Command
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

type execResponse struct {
	ExitCode int    `json:"exit_code"`
	Stderr   string `json:"stderr,omitempty"`
}

// Create provisions a sandbox
func (p *HTTPProvider) Create(ctx context.Context, spec Spec) (Sandbox, error) {
	body := createRequest{
		Spec:               spec,
		TimeoutSeconds:     int(spec.Timeout / time.Second),
		IdleTimeoutSeconds: int(spec.IdleTimeout / time.Second),
	}

	var resp createResponse
	status, err := p.do(ctx, "create", http.MethodPost, "/sandboxes", body, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, &APIError{Op: "create", Status: status, Message: "response has no sandbox id"}
	}
	return &httpSandbox{provider: p, id: resp.ID}, nil
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
// A 404 is returned as an *APIError like any other failure status.
func (p *HTTPProvider) do(ctx context.Context, op, method, path string, in, out any) (int, error) {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	resp, body, err := p.send(ctx, method, path, reader)
	if err != nil {
		return 0, fmt.Errorf("sandbox %s request failed: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &APIError{Op: op, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", op, err)
		}
	}
	return resp.StatusCode, nil
}

func (p *HTTPProvider) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, data, nil
}

type httpSandbox struct {
	provider *HTTPProvider
	id       string
}

func (s *httpSandbox) ID() string { return s.id }

func (s *httpSandbox) path(suffix string) string {
	return "/sandboxes/" + url.PathEscape(s.id) + suffix
}

func (s *httpSandbox) Execute(ctx context.Context, cmd Command) error {
	body := execRequest{Command: cmd, TimeoutSeconds: int(cmd.Timeout / time.Second)}

	var resp execResponse
	status, err := s.provider.do(ctx, "exec", http.MethodPost, s.path("/exec"), body, &resp)
	if err != nil {
		return err
	}
	if !cmd.Detached && resp.ExitCode != 0 {
		return &APIError{Op: "exec", Status: status, Message: fmt.Sprintf("exit code %d: %s", resp.ExitCode, resp.Stderr)}
	}
	return nil
}

func (s *httpSandbox) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	resp, body, err := s.provider.send(ctx, http.MethodGet, s.path("/files?path="+url.QueryEscape(filePath)), nil)
	if err != nil {
		return nil, fmt.Errorf("sandbox read request failed: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrFileNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &APIError{Op: "read", Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (s *httpSandbox) Destroy(ctx context.Context) error {
	_, err := s.provider.do(ctx, "destroy", http.MethodDelete, s.path(""), nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}
