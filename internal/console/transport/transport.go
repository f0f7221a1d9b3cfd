// Package transport is the admin console's HTTP layer. It attaches bearer
// credentials to every request, recovers transparently from a single
// expired-token event (401, refresh once, retry once), and is the only
// component allowed to tear the session down when recovery fails.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zafiri/cms-core/internal/console/session"
	"github.com/zafiri/cms-core/internal/infrastructure/config"
	"github.com/zafiri/cms-core/internal/infrastructure/logging"
)

// ErrSessionExpired is returned when a 401 could not be recovered by a
// token refresh. The session store has been cleared by the time callers
// see this error.
var ErrSessionExpired = errors.New("session expired")

// defaultRequestTimeout bounds every outbound call when the config does
// not specify one.
const defaultRequestTimeout = 15 * time.Second

// Client performs authenticated HTTP calls against the CMS API.
//
// Safe for concurrent use. Concurrent token refreshes are de-duplicated:
// callers overlapping an in-flight refresh share its result rather than
// racing a second exchange against a single-use refresh token.
type Client struct {
	baseURL string
	http    *http.Client
	store   *session.Store
	logger  *logging.Logger

	refreshGroup singleflight.Group

	// OnSessionExpired, when set, fires after an unrecoverable 401 has
	// cleared the session. The route guard uses it to leave the
	// authenticated state mid-session.
	OnSessionExpired func()
}

// New creates a transport client from console configuration.
func New(cfg config.ConsoleConfig, store *session.Store, logger *logging.Logger) *Client {
	timeout := defaultRequestTimeout
	if cfg.RequestTimeout > 0 {
		timeout = time.Duration(cfg.RequestTimeout) * time.Second
	}

	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		store:   store,
		logger:  logger,
	}
}

// Do dispatches an authenticated request.
//
// The current access token is re-read from the session store per attempt
// (a refresh may have changed it since the caller's last request). The
// body's content type is applied unless the caller's headers override it.
// On a 401 the client refreshes once and retries once, returning the
// retried response whatever its status. If the refresh fails the session
// is cleared and ErrSessionExpired is returned.
func (c *Client) Do(ctx context.Context, method, path string, body Body, header http.Header) (*http.Response, error) {
	resp, err := c.dispatch(ctx, method, path, body, header)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close() //nolint:errcheck // response is being discarded

	if !c.Refresh(ctx) {
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("session clear failed", "error", err)
		}
		if c.OnSessionExpired != nil {
			c.OnSessionExpired()
		}
		return nil, ErrSessionExpired
	}

	// Exactly one retry; its status is the caller's to interpret.
	return c.dispatch(ctx, method, path, body, header)
}

// dispatch performs a single HTTP attempt with the current access token.
func (c *Client) dispatch(ctx context.Context, method, path string, body Body, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+strings.TrimPrefix(path, "/"), bodyReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", body.ContentType())
	}
	if token := c.store.Load().AccessToken; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	// Caller headers win on conflict.
	for k, values := range header {
		req.Header.Del(k)
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// Get issues an authenticated GET.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, nil)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// refreshResponse is the token-refresh endpoint's success body. The
// refresh field is present only when the server rotates refresh tokens.
type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Refresh exchanges the stored refresh token for a new access token.
//
// With no refresh token stored it returns false immediately, making zero
// network calls. One POST is issued per logical refresh; overlapping
// callers join the in-flight attempt. On any failure the stored session
// is left untouched and false is returned.
func (c *Client) Refresh(ctx context.Context) bool {
	ok, _, _ := c.refreshGroup.Do("refresh", func() (any, error) { //nolint:errcheck // closure never errors
		return c.refreshOnce(ctx), nil
	})
	result, _ := ok.(bool) //nolint:errcheck // closure always returns bool
	return result
}

func (c *Client) refreshOnce(ctx context.Context) bool {
	refreshToken := c.store.Load().RefreshToken
	if refreshToken == "" {
		return false
	}

	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"token/refresh/", bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("token refresh failed", "error", err)
		return false
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("token refresh rejected", "status", resp.StatusCode)
		return false
	}

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Access == "" {
		c.logger.Debug("token refresh response malformed", "error", err)
		return false
	}

	if err := c.store.UpdateTokens(body.Access, body.Refresh); err != nil {
		c.logger.Warn("persisting refreshed tokens failed", "error", err)
		return false
	}

	c.logger.Debug("access token refreshed")
	return true
}

func bodyReader(body Body) *bytes.Reader {
	if body == nil {
		return bytes.NewReader(nil)
	}
	return bytes.NewReader(body.Bytes())
}
