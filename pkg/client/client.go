// Package client talks to the chat server over HTTP: login, chat requests
// (plain and streaming), model listing and the per-user history.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/papercomputeco/streamchat/pkg/llm"
	"github.com/papercomputeco/streamchat/pkg/logger"
	"github.com/papercomputeco/streamchat/pkg/utils"
)

const (
	tokenPath   = "/user/token"
	logoutPath  = "/user/logout"
	chatPath    = "/chat/chat"
	modelsPath  = "/chat/models"
	historyPath = "/chat/history"

	// maxErrorBody caps how much of an error response is read for the
	// TransportError detail.
	maxErrorBody = 4096
)

// Client is a chat server client. It is safe for concurrent use once
// configured; SetToken must not race with requests.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client created with New.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client. The default has no
// timeout: streams may legitimately run for minutes, and callers bound
// requests with their context instead.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client for the server at baseURL (scheme + host + port).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("component", "client")

	return c
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	return c.token
}

// Login exchanges a username and password for a bearer token. On success
// the client starts using the token.
func (c *Client) Login(ctx context.Context, username, password string) (*llm.Token, error) {
	tok := &llm.Token{}
	err := c.doJSON(ctx, http.MethodPost, tokenPath, &llm.LoginRequest{
		Username: username,
		Password: password,
	}, tok)
	if err != nil {
		return nil, err
	}

	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%s %s: server returned an empty access token", http.MethodPost, tokenPath)
	}

	c.token = tok.AccessToken

	return tok, nil
}

// Logout tells the server the session ends. Tokens are stateless on the
// server, so this is informational; callers drop the token either way.
func (c *Client) Logout(ctx context.Context) error {
	if c.token == "" {
		return ErrNotLoggedIn
	}

	return c.doJSON(ctx, http.MethodPost, logoutPath, nil, nil)
}

// Chat sends a non-streaming chat request and returns the complete reply.
// req.Stream is ignored and sent as false.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp := &llm.ChatResponse{}
	if err := c.doJSON(ctx, http.MethodPost, chatPath, req.WithStream(false), resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// OpenStream sends a streaming chat request and returns the response body
// once the server has accepted it. The caller owns the body and must close
// it. req.Stream is ignored and sent as true.
//
// Cancelling ctx aborts any pending read on the returned body.
func (c *Client) OpenStream(ctx context.Context, req *llm.ChatRequest) (io.ReadCloser, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, chatPath, req.WithStream(true))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.send(httpReq)
	if err != nil {
		return nil, err
	}

	// The server marks streams as text/event-stream (sometimes text/plain).
	// A JSON document means it ignored stream=true and answered in one go.
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "application/json" {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: got %s", ErrStreamUnsupported, mediaType)
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrStreamUnsupported
	}

	return resp.Body, nil
}

// Models lists the models the server can use.
func (c *Client) Models(ctx context.Context) (*llm.ModelList, error) {
	list := &llm.ModelList{}
	if err := c.doJSON(ctx, http.MethodGet, modelsPath, nil, list); err != nil {
		return nil, err
	}

	return list, nil
}

// History returns the messages the server keeps for the logged in user,
// oldest first.
func (c *Client) History(ctx context.Context) ([]llm.Message, error) {
	var msgs []llm.Message
	if err := c.doJSON(ctx, http.MethodGet, historyPath, nil, &msgs); err != nil {
		return nil, err
	}

	return msgs, nil
}

// ClearHistory deletes the server-side history of the logged in user.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, historyPath, nil, nil)
}

// doJSON sends body (if any) as JSON and decodes a 2xx reply into out (if
// non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", utils.UserAgent())
	req.Header.Set("X-Request-ID", uuid.NewString())

	return req, nil
}

// send performs req and converts transport failures and non-2xx statuses
// into *TransportError. On success the caller owns resp.Body.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	path := req.URL.Path

	c.logger.Debug("sending request",
		"method", req.Method,
		"path", path,
		"request_id", req.Header.Get("X-Request-ID"),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		c.logger.Debug("request failed",
			"method", req.Method,
			"path", path,
			"status", resp.StatusCode,
		)

		return nil, &TransportError{
			Method:     req.Method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(data),
		}
	}

	return resp, nil
}

// errorDetail extracts the message of an error body.
func errorDetail(data []byte) string {
	var er llm.ErrorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Detail != "" {
		return er.Detail
	}

	return utils.Truncate(strings.TrimSpace(string(data)), 200)
}
