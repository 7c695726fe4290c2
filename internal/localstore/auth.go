package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/handbook/internal/handbook"
	"github.com/five82/handbook/internal/session"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid login credentials")

// ErrInvalidSession is returned when the current access token does not verify.
var ErrInvalidSession = errors.New("invalid session")

// Claims are carried by locally issued access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// SignIn checks the password against the stored bcrypt hash and issues a session.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	var userID, hash string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, password_hash FROM users WHERE email = ?", email,
	).Scan(&userID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sign in: %w", ErrInvalidCredentials)
	}
	if err != nil {
		return fmt.Errorf("sign in: lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("sign in: %w", ErrInvalidCredentials)
	}

	sess, err := s.issue(ctx, &handbook.User{ID: userID, Email: email})
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	s.log.Info("session issued", "email", email, "expires_at", sess.ExpiresAt)
	s.bus.Publish(session.SignedIn, sess)
	return nil
}

// SignOut revokes the current session. A session whose token has expired
// or was already revoked is still cleared locally.
func (s *Store) SignOut(ctx context.Context) error {
	current := s.bus.Current()
	if current == nil {
		s.bus.Publish(session.SignedOut, nil)
		return nil
	}
	if _, err := s.verify(ctx, current.AccessToken); err != nil {
		s.log.Info("signing out stale session", "error", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE refresh_token = ?", current.RefreshToken,
	); err != nil {
		return fmt.Errorf("sign out: revoke session: %w", err)
	}
	s.bus.Publish(session.SignedOut, nil)
	return nil
}

// OnSessionChange subscribes to session changes, starting with the current session.
func (s *Store) OnSessionChange() *session.Subscription {
	return s.bus.Subscribe()
}

// Session returns the current session, or nil.
func (s *Store) Session() *handbook.Session {
	return s.bus.Current()
}

func (s *Store) issue(ctx context.Context, user *handbook.User) (*handbook.Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)

	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UTC()); err != nil {
		return nil, fmt.Errorf("prune sessions: %w", err)
	}

	refresh, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        refresh,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: user.Email,
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (refresh_token, user_id, expires_at) VALUES (?, ?, ?)",
		refresh, user.ID, expires.UTC(),
	); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &handbook.Session{
		AccessToken:  signed,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresAt:    expires,
		User:         user,
	}, nil
}

// verify checks the token signature and expiry, then that its session row
// has not been revoked.
func (s *Store) verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if !token.Valid {
		return nil, ErrInvalidSession
	}

	var userID string
	err = s.db.QueryRowContext(ctx,
		"SELECT user_id FROM sessions WHERE refresh_token = ?", claims.ID,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session revoked", ErrInvalidSession)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if userID != claims.Subject {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidSession)
	}
	return claims, nil
}
