// Package client talks to the notes API and keeps a local mirror of the
// signed-in user's notes.
package client

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
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"notes-server/internal/domain"
	"notes-server/pkg/response"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not an
// *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type Client struct {
	httpClient *http.Client
	baseURL    string

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken sets the access token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResponse, error) {
	var resp domain.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/register", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login authenticates and stores the returned access token on the client.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

func (c *Client) Profile(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.doRequest(ctx, http.MethodGet, "/api/profile", nil, &user); err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	return &user, nil
}

func (c *Client) ListNotes(ctx context.Context) ([]*domain.Note, error) {
	notes := []*domain.Note{}
	if err := c.doRequest(ctx, http.MethodGet, "/api/notes", nil, &notes); err != nil {
		return nil, fmt.Errorf("list notes request failed: %w", err)
	}
	return notes, nil
}

func (c *Client) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	var note domain.Note
	if err := c.doRequest(ctx, http.MethodGet, "/api/notes/"+url.PathEscape(id), nil, &note); err != nil {
		return nil, fmt.Errorf("get note request failed: %w", err)
	}
	return &note, nil
}

func (c *Client) CreateNote(ctx context.Context, req domain.CreateNoteRequest) (*domain.Note, error) {
	var note domain.Note
	if err := c.doRequest(ctx, http.MethodPost, "/api/notes", req, &note); err != nil {
		return nil, fmt.Errorf("create note request failed: %w", err)
	}
	return &note, nil
}

func (c *Client) UpdateNote(ctx context.Context, id string, req domain.UpdateNoteRequest) (*domain.Note, error) {
	var note domain.Note
	if err := c.doRequest(ctx, http.MethodPut, "/api/notes/"+url.PathEscape(id), req, &note); err != nil {
		return nil, fmt.Errorf("update note request failed: %w", err)
	}
	return &note, nil
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/notes/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete note request failed: %w", err)
	}
	return nil
}

func (c *Client) Search(ctx context.Context, query string) ([]*domain.Note, error) {
	notes := []*domain.Note{}
	if err := c.doRequest(ctx, http.MethodGet, "/api/notes/search/"+url.PathEscape(query), nil, &notes); err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	return notes, nil
}

func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	if err := c.doRequest(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return nil, fmt.Errorf("stats request failed: %w", err)
	}
	return &stats, nil
}

// Subscribe opens the change feed. The caller reads messages from the
// returned connection and closes it when done.
func (c *Client) Subscribe(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {c.Token()}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "change feed rejected"}
		}
		return nil, fmt.Errorf("failed to dial change feed: %w", err)
	}

	return conn, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope struct {
		response.Response
		Data json.RawMessage `json:"data,omitempty"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Error, Fields: envelope.Fields}
	}

	if result != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
