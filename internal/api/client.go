// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/nabi-tui/internal/logging"
	"github.com/jeranaias/nabi-tui/internal/validate"
)

// Configuration constants for the backend API.
const (
	// DefaultTimeout bounds non-streaming requests.
	DefaultTimeout = 30 * time.Second

	// basePath prefixes every backend route.
	basePath = "/api/v1"

	// MaxResponseSize caps response bodies.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024

	// defaultUserAgent identifies the client to the backend.
	defaultUserAgent = "nabi/0.3.0"
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared transport for both request clients.
	sharedTransport = &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	// sharedHTTPClient serves bounded REST requests.
	sharedHTTPClient = &http.Client{
		Transport: sharedTransport,
		Timeout:   DefaultTimeout,
	}

	// sharedStreamClient serves streaming requests. No client timeout:
	// the stream lives as long as its context.
	sharedStreamClient = &http.Client{
		Transport: sharedTransport,
	}
)

// TokenSource supplies the bearer token for authenticated requests and
// refreshes it when the backend rejects one. A nil TokenSource makes
// all requests anonymous.
type TokenSource interface {
	// Token returns the current access token, or "" when signed out.
	Token(ctx context.Context) (string, error)

	// Refresh exchanges the refresh token for a new access token and
	// returns it. Called once after an HTTP 401.
	Refresh(ctx context.Context) (string, error)
}

// Client talks to the nabi backend.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	tokens       TokenSource
	limiter      *rate.Limiter
	idleTimeout  time.Duration
	log          *logging.Logger
	userAgent    string
}

// NewClient creates a backend client for the given base URL, for
// example "http://localhost:8000". The URL carries no path; routes are
// appended internally.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamClient,
		limiter:      rate.NewLimiter(rate.Limit(5), 10),
		idleTimeout:  60 * time.Second,
		log:          logging.NewNop(),
		userAgent:    defaultUserAgent,
	}
}

// WithTokenSource attaches an auth token provider.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	c.tokens = ts
	return c
}

// WithTimeout sets the timeout for non-streaming requests.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	client := *c.httpClient
	client.Timeout = timeout
	c.httpClient = &client
	return c
}

// WithIdleTimeout sets how long a stream may go without a chunk before
// it is abandoned as timed out.
func (c *Client) WithIdleTimeout(d time.Duration) *Client {
	c.idleTimeout = d
	return c
}

// WithRateLimit caps outgoing request rate. Burst allows short spikes,
// such as a session switch triggering a sync plus a document listing.
func (c *Client) WithRateLimit(perSec float64, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	return c
}

// WithLogger routes request logging to the given logger.
func (c *Client) WithLogger(log *logging.Logger) *Client {
	c.log = log
	return c
}

// WithHTTPClient replaces both underlying HTTP clients. Intended for
// tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamClient = hc
	return c
}

// IsConfigured reports whether a base URL is set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// newRequest builds a request with standard headers and the bearer
// token, when one is available.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+basePath+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if err := c.attachToken(ctx, req, false); err != nil {
		return nil, err
	}
	return req, nil
}

// attachToken sets the Authorization header. With refresh true it forces
// a token refresh first, for the single post-401 retry.
func (c *Client) attachToken(ctx context.Context, req *http.Request, refresh bool) error {
	if c.tokens == nil {
		return nil
	}
	var (
		token string
		err   error
	)
	if refresh {
		token, err = c.tokens.Refresh(ctx)
	} else {
		token, err = c.tokens.Token(ctx)
	}
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// do sends a request, retrying exactly once with a refreshed token on
// 401. The retry needs a replayable body, so callers pass raw bytes.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	send := func(refresh bool) (*http.Response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+basePath+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if err := c.attachToken(ctx, req, refresh); err != nil {
			return nil, err
		}
		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Warn("request failed", logging.String("method", method), logging.String("path", path), logging.Err(err))
			return nil, err
		}
		c.log.Debug("request",
			logging.String("method", method),
			logging.String("path", path),
			logging.Int("status", resp.StatusCode),
			logging.Duration("elapsed", time.Since(start)))
		return resp, nil
	}

	resp, err := send(false)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		// One refresh-and-retry, then give up.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		retry, err := send(true)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
		if retry.StatusCode == http.StatusUnauthorized {
			body := drainError(retry)
			return nil, &ChatError{Kind: KindUnknown, Status: http.StatusUnauthorized, Message: body, Retryable: false}
		}
		return retry, nil
	}
	return resp, nil
}

// doJSON sends a request and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out any) error {
	var (
		payload     []byte
		contentType string
		err         error
	)
	if reqBody != nil {
		payload, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, payload, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return ClassifyStatus(resp.StatusCode, errorText(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readResponse reads a body under the size cap.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) == MaxResponseSize {
		return nil, ErrResponseTooLarge
	}
	return data, nil
}

// errorText extracts a human-readable message from an error body,
// accepting both backend shapes and falling back to the raw text.
func errorText(data []byte) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if s, ok := eb.Detail.(string); ok && s != "" {
			return s
		}
	}
	return strings.TrimSpace(string(data))
}

// drainError reads an error body for reporting, tolerating failures.
func drainError(resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return ""
	}
	return errorText(data)
}

// =============================================================================
// CHAT
// =============================================================================

// Chat performs a non-streaming completion.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Stream = false
	var out ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// CreateSession registers a session server-side. A non-empty sessionID
// asks the server to adopt the locally generated id; the response
// carries the id the server actually uses. Sessions also come into
// being implicitly on first chat, so callers treat failures here as
// non-fatal sync problems.
func (c *Client) CreateSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	body := map[string]string{}
	if sessionID != "" {
		if !validate.SessionID(sessionID) {
			return nil, fmt.Errorf("invalid session id %q", sessionID)
		}
		body["session_id"] = sessionID
	}
	var out SessionInfo
	if err := c.doJSON(ctx, http.MethodPost, "/sessions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions returns the server-side session summaries.
func (c *Client) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	var out sessionListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// ClearSession deletes the backend-side conversation memory for a
// session. Local session data is unaffected.
func (c *Client) ClearSession(ctx context.Context, sessionID string) error {
	if !validate.SessionID(sessionID) {
		return fmt.Errorf("invalid session id %q", sessionID)
	}
	var out ClearSessionResponse
	return c.doJSON(ctx, http.MethodDelete, "/sessions/"+sessionID, nil, &out)
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// UploadDocument sends a file for indexing as a multipart form. The
// metadata map is serialized to a JSON string form field, matching the
// backend's Form(...) parameter.
func (c *Client) UploadDocument(ctx context.Context, filename string, content []byte, metadata map[string]any) (*UploadResponse, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(validate.SanitizeMetadata(metadata))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := writer.WriteField("metadata", string(metaJSON)); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/documents/upload", form.Bytes(), writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyStatus(resp.StatusCode, errorText(data))
	}
	var out UploadResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out, nil
}

// ListDocuments returns all indexed documents.
func (c *Client) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	var out documentListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/documents", nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// DeleteDocument removes a document from the index.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	var out DeleteDocumentResponse
	return c.doJSON(ctx, http.MethodDelete, "/documents/"+documentID, nil, &out)
}

// =============================================================================
// STATUS
// =============================================================================

// Health checks backend availability and configuration.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAgents returns the backend's available agents.
func (c *Client) ListAgents(ctx context.Context) ([]AgentInfo, error) {
	var out agentListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/agents", nil, &out); err != nil {
		return nil, err
	}
	return out.Agents, nil
}
