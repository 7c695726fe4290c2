package handbook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EntryFields holds the editable columns of an entry. The identifier is
// assigned by the store and never part of an insert or update payload.
type EntryFields struct {
	Category    string `json:"kategorie" validate:"required"`
	Message     string `json:"fehlermeldung" validate:"required"`
	Description string `json:"beschreibung" validate:"required"`
	Resolution  string `json:"loesung" validate:"required"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (f EntryFields) Trimmed() EntryFields {
	return EntryFields{
		Category:    strings.TrimSpace(f.Category),
		Message:     strings.TrimSpace(f.Message),
		Description: strings.TrimSpace(f.Description),
		Resolution:  strings.TrimSpace(f.Resolution),
	}
}

// Entry mirrors a row of the entries table.
type Entry struct {
	ID string `json:"id"`
	EntryFields
}

// UnmarshalJSON accepts the id as a JSON string or number, so tables keyed
// by uuid and by identity column both decode.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID json.RawMessage `json:"id"`
		EntryFields
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	*e = Entry{ID: id, EntryFields: raw.EntryFields}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("entry id: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("entry id: %w", err)
	}
	return n.String(), nil
}

// Fields returns the editable part of the entry.
func (e Entry) Fields() EntryFields {
	return e.EntryFields
}

// Category mirrors a row of the categories table.
type Category struct {
	Name string `json:"name"`
}

// User is the authenticated identity carried by a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an externally issued authentication session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
}

// Expired reports whether the session's access token is past its expiry.
// Sessions without a known expiry never expire locally.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// Email returns the session user's email, or "" when there is none.
func (s *Session) Email() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Email
}
