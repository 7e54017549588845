// Package apiclient implements the request pipeline for the notes backend:
// authenticated JSON requests with uniform success/error translation.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
)

// TokenSource supplies the current session token. An empty string means the
// session is anonymous and no credential header is attached.
type TokenSource interface {
	Token() string
}

// Client sends requests to the backend and normalizes responses. It holds no
// state beyond connection plumbing; all failures surface as *apperr.Failure.
type Client struct {
	baseURL     string
	tokens      TokenSource
	http        *http.Client
	onAuthError func()
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// OnAuthError registers a callback invoked whenever a request reports an
// authentication failure. The session layer uses it to tear down state bound
// to a token the backend no longer honors.
func (c *Client) OnAuthError(fn func()) {
	c.onAuthError = fn
}

// do sends one JSON request. A non-nil body is serialized to JSON; a non-nil
// out receives the decoded 2xx response body. Responses without a body pass
// out through untouched.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return apperr.New(apperr.ErrTransport, "encode request: "+err.Error())
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperr.New(apperr.ErrTransport, "build request: "+err.Error())
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.New(apperr.ErrTransport, "network error: "+err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		failure := decodeFailure(resp)
		if c.onAuthError != nil && errors.Is(failure, apperr.ErrAuthentication) {
			c.onAuthError()
		}
		return failure
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.New(apperr.ErrTransport, "decode response: "+err.Error())
	}
	return nil
}

// decodeFailure turns a non-2xx response into a classified Failure. The
// message comes from the body's "error" or "message" field, falling back to
// a generic one when the body is absent or malformed.
func decodeFailure(resp *http.Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	msg := payload.Error
	if msg == "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = "request failed"
	}

	kind := apperr.ErrBackend
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = apperr.ErrAuthentication
	case http.StatusNotFound:
		kind = apperr.ErrNotFound
	}
	return apperr.New(kind, msg)
}
