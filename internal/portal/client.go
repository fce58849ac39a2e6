// Package portal is the HTTP client for the upstream portal API. It owns the
// machine-user authentication header and normalizes unexpected statuses into
// coded errors so callers never inspect raw responses.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	derrors "portal-mailer/pkg/domain-errors"
)

// machineUserID identifies the mailer to the portal API. The portal grants
// the machine user read access to users, templates, and globals.
const machineUserID = "1"

// Client talks to the portal API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger used for outbound request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a portal API client rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("portal API base URL is required")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetUser fetches a user record. A portal 404 surfaces as CodeNotFound so
// the composer can treat deleted users as a recoverable no-op.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	body, err := c.get(ctx, "users/"+userID)
	if err != nil {
		return nil, err
	}
	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUpstreamUnavailable, "portal returned an unparseable user record")
	}
	return &user, nil
}

// GetEmailTemplate fetches the raw text of a named email template.
func (c *Client) GetEmailTemplate(ctx context.Context, name string) (string, error) {
	body, err := c.get(ctx, "templates/email/"+name)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetGlobals fetches the portal-wide configuration.
func (c *Client) GetGlobals(ctx context.Context) (*Globals, error) {
	body, err := c.get(ctx, "globals")
	if err != nil {
		return nil, err
	}
	var globals Globals
	if err := json.Unmarshal(body, &globals); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUpstreamUnavailable, "portal returned unparseable globals")
	}
	return &globals, nil
}

// RegisterListener subscribes this service to webhook deliveries.
func (c *Client) RegisterListener(ctx context.Context, listenerID, url string) error {
	payload, err := json.Marshal(ListenerRegistration{ID: listenerID, URL: url})
	if err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "marshal listener registration")
	}
	return c.action(ctx, http.MethodPut, "webhooks/listeners/"+listenerID, payload, http.StatusOK)
}

// DeleteListener unsubscribes this service from webhook deliveries.
func (c *Client) DeleteListener(ctx context.Context, listenerID string) error {
	return c.action(ctx, http.MethodDelete, "webhooks/listeners/"+listenerID, nil, http.StatusNoContent)
}

// AckEvent deletes a processed event upstream so it is not redelivered.
func (c *Client) AckEvent(ctx context.Context, listenerID, eventID string) error {
	return c.action(ctx, http.MethodDelete, "webhooks/events/"+listenerID+"/"+eventID, nil, http.StatusNoContent)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "build portal request")
	}
	req.Header.Set("X-UserId", machineUserID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUpstreamUnavailable, fmt.Sprintf("GET %s failed", path))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUpstreamUnavailable, fmt.Sprintf("GET %s: read body", path))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, derrors.New(derrors.CodeNotFound, fmt.Sprintf("GET %s returned 404", path))
	default:
		return nil, derrors.New(derrors.CodeUpstreamUnavailable,
			fmt.Sprintf("GET %s returned unexpected status %d", path, resp.StatusCode))
	}
}

func (c *Client) action(ctx context.Context, method, path string, payload []byte, expected int) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "build portal request")
	}
	req.Header.Set("X-UserId", machineUserID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.logger != nil {
		c.logger.DebugContext(ctx, "portal api call", "method", method, "path", path)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeUpstreamUnavailable, fmt.Sprintf("%s %s failed", method, path))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != expected {
		return derrors.New(derrors.CodeUpstreamUnavailable,
			fmt.Sprintf("%s %s returned status %d, expected %d", method, path, resp.StatusCode, expected))
	}
	return nil
}
