package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/shared"
)

const defaultServerURL = "http://localhost:8080"

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// Client talks to an ndx server. It implements tasks.Searcher.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultServerURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) post(ctx context.Context, path string, body any, accept string) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	return c.httpClient.Do(req)
}

// Search posts queries to /api/search and returns the NDJSON event stream.
//
// The caller must close the returned body. Canceling ctx aborts the read in progress.
// Connection failures and non-2xx statuses are errors wrapping [shared.ErrTransport].
func (c *Client) Search(ctx context.Context, queries []string) (io.ReadCloser, error) {
	if len(queries) == 0 {
		return nil, shared.ErrEmptyInput
	}

	resp, err := c.post(ctx, "/api/search", SearchRequest{Items: queries}, "application/x-ndjson")
	if err != nil {
		return nil, fmt.Errorf("%w: search request failed: %v", shared.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: search returned status %d: %s", shared.ErrTransport, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return resp.Body, nil
}

// Generate submits songs as a new playlist called name.
//
// The name is trimmed and must not be empty, and songs must not be empty; violations return
// [shared.ErrValidation] without any request. Server failures wrap [shared.ErrSubmit] with the server's message.
func (c *Client) Generate(ctx context.Context, name string, songs []models.Song) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	}
	if len(songs) == 0 {
		return "", fmt.Errorf("%w: no matched songs to submit", shared.ErrValidation)
	}

	resp, err := c.post(ctx, "/api/generate", GenerateRequest{PlaylistName: name, Songs: songs}, "application/json")
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrSubmit, err)
	}
	defer resp.Body.Close()

	var result GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: unreadable response (status %d): %v", shared.ErrSubmit, resp.StatusCode, err)
	}

	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %s", shared.ErrSubmit, msg)
	}

	if result.Message == "" {
		result.Message = fmt.Sprintf("playlist %q created with %d songs", name, len(songs))
	}
	return result.Message, nil
}

// Ping asks the server to check its catalog connection.
func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/ping", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	var result PingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: unreadable ping response (status %d): %v", shared.ErrAPIRequest, resp.StatusCode, err)
	}
	return &result, nil
}
