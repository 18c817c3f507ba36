// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openreview is a small client for the OpenReview API v2. It covers
// the calls the corpus builder needs: login, the note history of a forum,
// and discovery of forums by invitation.
package openreview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/openreview-corpus/internal/httputil"
)

// DefaultPageSize is the limit sent with paged /notes queries.
const DefaultPageSize = 1000

// ErrUnauthorized is returned when the API rejects the credentials or the
// request needs a login that was not configured.
var ErrUnauthorized = errors.New("openreview: unauthorized")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status int
	URL    string
	Body   string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("openreview: HTTP %d from %s", e.Status, e.URL)
	if b := strings.TrimSpace(e.Body); b != "" {
		msg += ": " + b
	}
	return msg
}

// Unwrap maps 401 and 403 onto ErrUnauthorized.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// Client talks to one API base URL. Credentials are optional; without them
// every request is anonymous.
type Client struct {
	BaseURL  string
	HTTP     *httputil.Client
	Username string
	Password string
	PageSize int
	Log      logrus.FieldLogger

	token string
}

// notesPage is one page of GET /notes.
type notesPage struct {
	Notes []json.RawMessage `json:"notes"`
	Count int               `json:"count"`
}

// HasCredentials reports whether a username and password are configured.
func (c *Client) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// Login exchanges the configured credentials for a bearer token. It is a
// no-op when no credentials are set.
func (c *Client) Login(ctx context.Context) error {
	if !c.HasCredentials() {
		return nil
	}
	body, err := json.Marshal(map[string]string{"id": c.Username, "password": c.Password})
	if err != nil {
		return fmt.Errorf("encoding login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/login", nil), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("openreview login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, URL: req.URL.String(), Body: string(snippet)}
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("parsing login response: %w", err)
	}
	if out.Token == "" {
		return fmt.Errorf("openreview login: empty token: %w", ErrUnauthorized)
	}
	c.token = out.Token
	c.logger().Debug("logged in to OpenReview")
	return nil
}

// GetAllNotes returns every note in a forum with details=all, following
// limit/offset pages until a short page or the reported count is reached.
// Notes are returned undecoded so they can be persisted byte for byte.
func (c *Client) GetAllNotes(ctx context.Context, forumID string) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("forum", forumID)
	q.Set("details", "all")
	return c.pagedNotes(ctx, q)
}

// ListForums returns the forum ids of every note posted to invitation, in
// API order with duplicates removed.
func (c *Client) ListForums(ctx context.Context, invitation string) ([]string, error) {
	q := url.Values{}
	q.Set("invitation", invitation)
	raw, err := c.pagedNotes(ctx, q)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(raw))
	var ids []string
	for _, r := range raw {
		var n Note
		if err := json.Unmarshal(r, &n); err != nil {
			continue
		}
		id := n.Forum
		if id == "" {
			id = n.ID
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Client) pagedNotes(ctx context.Context, q url.Values) ([]json.RawMessage, error) {
	limit := c.PageSize
	if limit <= 0 {
		limit = DefaultPageSize
	}

	var all []json.RawMessage
	for offset := 0; ; {
		q.Set("limit", strconv.Itoa(limit))
		q.Set("offset", strconv.Itoa(offset))

		var page notesPage
		if err := c.getJSON(ctx, "/notes", q, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Notes...)
		offset += len(page.Notes)

		if len(page.Notes) < limit || (page.Count > 0 && len(all) >= page.Count) {
			return all, nil
		}
	}
}

// getJSON issues a GET with retries and decodes the body into v. An
// unauthorized answer with credentials configured triggers one fresh login
// and a single repeat of the request.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	err := c.tryGetJSON(ctx, path, q, v)
	if errors.Is(err, ErrUnauthorized) && c.HasCredentials() {
		c.logger().Debug("OpenReview token rejected, logging in again")
		if lerr := c.Login(ctx); lerr != nil {
			return lerr
		}
		err = c.tryGetJSON(ctx, path, q, v)
	}
	return err
}

func (c *Client) tryGetJSON(ctx context.Context, path string, q url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, q), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTP.DoWithRetry(ctx, req)
	if err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) {
			return &APIError{Status: se.Code, URL: se.URL, Body: se.Body}
		}
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	return nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := strings.TrimRight(c.BaseURL, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Log != nil {
		return c.Log
	}
	return logrus.StandardLogger()
}
