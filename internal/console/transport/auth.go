package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/zafiri/cms-core/internal/console/session"
)

// ErrInvalidCredentials is returned by Login when the backend rejects the
// username/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// loginPayload captures every observed login response variant: access
// under "access" or "token", profile nested under "user" or flattened
// into the top level.
type loginPayload struct {
	Access  string `json:"access"`
	Token   string `json:"token"`
	Refresh string `json:"refresh"`

	User *struct {
		ID       any    `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Picture  string `json:"picture"`
	} `json:"user"`

	UserID   any    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Login authenticates against the backend and persists the resulting
// session. Observed response variants are normalized to the consolidated
// {access, refresh, user} shape before saving.
func (c *Client) Login(ctx context.Context, username, password string) (session.Session, error) {
	body, err := JSONBody(map[string]string{"username": username, "password": password})
	if err != nil {
		return session.Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"login/", bodyReader(body))
	if err != nil {
		return session.Session{}, fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", body.ContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return session.Session{}, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return session.Session{}, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return session.Session{}, fmt.Errorf("login: server returned %d", resp.StatusCode)
	}

	var payload loginPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return session.Session{}, fmt.Errorf("login: decoding response: %w", err)
	}

	sess := normalizeLogin(payload)
	if sess.AccessToken == "" {
		return session.Session{}, fmt.Errorf("login: response carries no access token")
	}

	if err := c.store.Save(sess); err != nil {
		return session.Session{}, fmt.Errorf("login: %w", err)
	}

	c.logger.Info("logged in", "username", username)
	return sess, nil
}

func normalizeLogin(p loginPayload) session.Session {
	sess := session.Session{
		AccessToken:  p.Access,
		RefreshToken: p.Refresh,
	}
	if sess.AccessToken == "" {
		sess.AccessToken = p.Token
	}

	switch {
	case p.User != nil:
		sess.User = &session.Profile{
			ID:       stringID(p.User.ID),
			Username: p.User.Username,
			Email:    p.User.Email,
			Picture:  p.User.Picture,
		}
	case p.Username != "" || p.UserID != nil:
		sess.User = &session.Profile{
			ID:       stringID(p.UserID),
			Username: p.Username,
			Email:    p.Email,
		}
	}

	return sess
}

// stringID tolerates numeric and string ids across backend variants.
func stringID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return ""
	}
}

// Profile fetches the authenticated user's profile. Used by the route
// guard to validate a restored session (the 401-refresh-retry path runs
// underneath) and to re-fetch profile data after edits.
func (c *Client) Profile(ctx context.Context) (*session.Profile, error) {
	resp, err := c.Get(ctx, "profile/")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response

	if resp.StatusCode != http.StatusOK {
		// Bound the read: error bodies are small, hostile ones may not be.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // draining for connection reuse
		return nil, fmt.Errorf("profile: server returned %d", resp.StatusCode)
	}

	var profile struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Picture  string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("profile: decoding response: %w", err)
	}

	return &session.Profile{
		ID:       profile.ID,
		Username: profile.Username,
		Email:    profile.Email,
		Picture:  profile.Picture,
	}, nil
}
