package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/handbook/internal/handbook"
	"github.com/five82/handbook/internal/session"
)

// accessClaims is the subset of a GoTrue access token we read.
type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string         `json:"access_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	ExpiresAt    int64          `json:"expires_at"`
	RefreshToken string         `json:"refresh_token"`
	User         *handbook.User `json:"user"`
}

// SignIn exchanges email and password for a session and announces it.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	rel := &url.URL{Path: authPrefix + "token", RawQuery: url.Values{"grant_type": {"password"}}.Encode()}
	body := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	if err := c.doWithToken(ctx, http.MethodPost, rel, body, "", c.anonKey, &resp); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	s, err := c.sessionFromToken(resp)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	if err := c.saveSession(s); err != nil {
		c.log.Warn("persist session failed", "error", err)
	}
	c.bus.Publish(session.SignedIn, s)
	return nil
}

// SignOut revokes the current session. An expired session, or one the
// server no longer accepts, is cleared locally. Other failures keep it.
func (c *Client) SignOut(ctx context.Context) error {
	current := c.bus.Current()
	if current == nil {
		c.bus.Publish(session.SignedOut, nil)
		return nil
	}

	if current.Expired(c.now()) {
		c.log.Info("signing out expired session", "email", current.Email())
	} else {
		rel := &url.URL{Path: authPrefix + "logout"}
		err := c.doWithToken(ctx, http.MethodPost, rel, nil, "", current.AccessToken, nil)
		var apiErr *APIError
		switch {
		case err == nil:
		case errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden):
			c.log.Info("server rejected session on sign out, clearing locally", "status", apiErr.Status)
		default:
			return fmt.Errorf("sign out: %w", err)
		}
	}

	if err := c.removeSession(); err != nil {
		c.log.Warn("remove persisted session failed", "error", err)
	}
	c.bus.Publish(session.SignedOut, nil)
	return nil
}

// OnSessionChange subscribes to session changes, starting with the current session.
func (c *Client) OnSessionChange() *session.Subscription {
	return c.bus.Subscribe()
}

// Session returns the current session, or nil.
func (c *Client) Session() *handbook.Session {
	return c.bus.Current()
}

func (c *Client) sessionFromToken(resp tokenResponse) (*handbook.Session, error) {
	if resp.AccessToken == "" {
		return nil, errors.New("token response has no access token")
	}
	s := &handbook.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		User:         resp.User,
	}
	switch {
	case resp.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(resp.ExpiresAt, 0)
	case resp.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	// Fill gaps from the token itself. GoTrue signs with a project secret we
	// do not hold, so claims are read without verification.
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(resp.AccessToken, &claims); err != nil {
		c.log.Debug("access token not a readable jwt", "error", err)
	} else {
		if s.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
			s.ExpiresAt = claims.ExpiresAt.Time
		}
		if s.User == nil && claims.Subject != "" {
			s.User = &handbook.User{ID: claims.Subject, Email: claims.Email}
		}
	}
	if s.User == nil {
		return nil, errors.New("token response has no user")
	}
	return s, nil
}

func (c *Client) restoreSession() {
	if c.sessionFile == "" {
		return
	}
	data, err := os.ReadFile(c.sessionFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.log.Warn("read persisted session failed", "error", err)
		}
		return
	}
	var s handbook.Session
	if err := json.Unmarshal(data, &s); err != nil {
		c.log.Warn("parse persisted session failed", "error", err)
		return
	}
	if s.AccessToken == "" || s.User == nil || s.Expired(c.now()) {
		c.log.Info("persisted session expired", "email", s.Email())
		_ = c.removeSession()
		return
	}
	c.bus.Publish(session.SignedIn, &s)
}

func (c *Client) saveSession(s *handbook.Session) error {
	if c.sessionFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.sessionFile), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(c.sessionFile, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (c *Client) removeSession() error {
	if c.sessionFile == "" {
		return nil
	}
	if err := os.Remove(c.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
