// Package notebook talks to the external notebook's local REST API.
// The API serves notes under /vault/{path} over HTTPS with a self-signed
// certificate and bearer-token auth, so the client skips TLS verification
// and carries the token on every request.
package notebook

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/studyops/brain/internal/llm"
)

// ErrNoteNotFound is returned when the vault has no note at the given path.
var ErrNoteNotFound = errors.New("note not found")

// Config holds vault API connection settings.
type Config struct {
	// BaseURL is the vault API base URL (default: https://127.0.0.1:27124)
	BaseURL string

	// Token is the bearer token for the vault API.
	Token string

	// ReadTimeout bounds GET requests (default: 30s).
	ReadTimeout time.Duration

	// WriteTimeout bounds PUT requests (default: 45s).
	WriteTimeout time.Duration
}

// Client is an HTTP client for the vault API. All calls are wrapped with
// circuit breaker protection so a dead notebook fails fast instead of
// stalling the pipeline.
type Client struct {
	cfg            Config
	client         *http.Client
	circuitBreaker *llm.CircuitBreaker
}

// NewClient creates a vault API client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://127.0.0.1:27124"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 45 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// The vault API ships a self-signed certificate for 127.0.0.1.
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &Client{
		cfg:            cfg,
		client:         &http.Client{Transport: transport, Timeout: 0},
		circuitBreaker: llm.NewCircuitBreaker("vault"),
	}
}

// noteResult carries a fetched note through the circuit breaker. A missing
// note is a normal outcome and must not count as a breaker failure.
type noteResult struct {
	content string
	found   bool
}

// GetNote fetches the raw Markdown content of the note at path.
// Returns ErrNoteNotFound when the vault has no such note.
func (c *Client) GetNote(ctx context.Context, path string) (string, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.getNote(ctx, path)
	})
	if err != nil {
		return "", err
	}
	res := result.(noteResult)
	if !res.found {
		return "", fmt.Errorf("%w: %s", ErrNoteNotFound, path)
	}
	return res.content, nil
}

func (c *Client) getNote(ctx context.Context, path string) (noteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.noteURL(path), nil)
	if err != nil {
		return noteResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/markdown")
	c.authorize(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return noteResult{}, fmt.Errorf("failed to reach vault: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return noteResult{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return noteResult{}, fmt.Errorf("vault returned status %d: %s", resp.StatusCode, string(respBody))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return noteResult{}, fmt.Errorf("failed to read note body: %w", err)
	}
	return noteResult{content: string(body), found: true}, nil
}

// PutNote replaces the content of the note at path, creating it if absent.
func (c *Client) PutNote(ctx context.Context, path, content string) error {
	_, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, c.putNote(ctx, path, content)
	})
	return err
}

func (c *Client) putNote(ctx context.Context, path, content string) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.WriteTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "PUT", c.noteURL(path), strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/markdown")
	c.authorize(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach vault: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent &&
		resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vault returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// listResponse is the body returned by directory listings. Entries may be
// plain strings or objects depending on the API version.
type listResponse struct {
	Files []json.RawMessage `json:"files"`
}

type listEntry struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// ListDir returns the entries under dir. Folder entries keep their trailing
// slash so callers can recurse. Pass "" for the vault root.
func (c *Client) ListDir(ctx context.Context, dir string) ([]string, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.listDir(ctx, dir)
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *Client) listDir(ctx context.Context, dir string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()

	target := c.cfg.BaseURL + "/vault/"
	if dir != "" {
		target = c.noteURL(strings.TrimRight(dir, "/")) + "/"
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach vault: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, dir)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vault returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var listing listResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}

	entries := make([]string, 0, len(listing.Files))
	for _, raw := range listing.Files {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			entries = append(entries, s)
			continue
		}
		var obj listEntry
		if err := json.Unmarshal(raw, &obj); err == nil {
			if obj.Path != "" {
				entries = append(entries, obj.Path)
			} else if obj.Name != "" {
				entries = append(entries, obj.Name)
			}
		}
	}
	return entries, nil
}

// noteURL builds the escaped /vault/ URL for a note path, preserving slashes.
func (c *Client) noteURL(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return c.cfg.BaseURL + "/vault/" + strings.Join(segments, "/")
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
}
