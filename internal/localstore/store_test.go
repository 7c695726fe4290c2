package localstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/handbook/internal/handbook"
	"github.com/five82/handbook/internal/session"
)

func openTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.Path == "" {
		opts.Path = ":memory:"
	}
	s, err := Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), Options{Path: "  "})
	require.Error(t, err)
}

func TestEntries_CRUD(t *testing.T) {
	s := openTestStore(t, Options{})
	ctx := context.Background()

	fields := handbook.EntryFields{Category: "Network", Message: "Timeout", Description: "slow", Resolution: "retry"}
	created, err := s.InsertEntry(ctx, fields)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, fields, created.Fields())

	second, err := s.InsertEntry(ctx, handbook.EntryFields{Category: "Disk", Message: "ENOSPC", Description: "full", Resolution: "clean"})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, second.ID)

	entries, err := s.SelectEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, created, entries[0])

	changed := fields
	changed.Resolution = "increase timeout"
	updated, err := s.UpdateEntry(ctx, created.ID, changed)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "increase timeout", updated.Resolution)

	missing, err := s.UpdateEntry(ctx, "does-not-exist", changed)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.DeleteEntry(ctx, created.ID))
	require.NoError(t, s.DeleteEntry(ctx, "does-not-exist"))

	entries, err = s.SelectEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second.ID, entries[0].ID)
}

func TestEntries_EmptyIDRejected(t *testing.T) {
	s := openTestStore(t, Options{})
	_, err := s.UpdateEntry(context.Background(), "", handbook.EntryFields{})
	require.Error(t, err)
	require.Error(t, s.DeleteEntry(context.Background(), ""))
}

func TestCategories_NotDeduplicated(t *testing.T) {
	s := openTestStore(t, Options{})
	ctx := context.Background()

	require.NoError(t, s.InsertCategory(ctx, "Network"))
	require.NoError(t, s.InsertCategory(ctx, "Disk"))
	require.NoError(t, s.InsertCategory(ctx, "Network"))

	names, err := s.SelectCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Network", "Disk", "Network"}, names)
}

func TestOpen_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "handbook.db")
	ctx := context.Background()

	s, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	_, err = s.InsertEntry(ctx, handbook.EntryFields{Category: "A", Message: "m", Description: "d", Resolution: "r"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Options{Path: path})
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.SelectEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSignIn_SignOut(t *testing.T) {
	s := openTestStore(t, Options{
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: hashPassword(t, "secret"),
	})
	ctx := context.Background()

	sub := s.OnSessionChange()
	defer sub.Unsubscribe()
	ev := <-sub.Events()
	assert.Equal(t, session.InitialSession, ev.Kind)
	assert.Nil(t, ev.Session)

	err := s.SignIn(ctx, "admin@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	err = s.SignIn(ctx, "nobody@example.com", "secret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, s.SignIn(ctx, "admin@example.com", "secret"))
	ev = <-sub.Events()
	assert.Equal(t, session.SignedIn, ev.Kind)
	require.NotNil(t, ev.Session)
	assert.Equal(t, "admin@example.com", ev.Session.Email())
	assert.NotEmpty(t, ev.Session.RefreshToken)

	claims, err := s.verify(ctx, ev.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, ev.Session.User.ID, claims.Subject)
	assert.Equal(t, ev.Session.RefreshToken, claims.ID)

	require.NoError(t, s.SignOut(ctx))
	ev = <-sub.Events()
	assert.Equal(t, session.SignedOut, ev.Kind)
	assert.Nil(t, s.Session())

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n))
	assert.Zero(t, n)
}

func TestSignOut_ExpiredTokenClearsSession(t *testing.T) {
	s := openTestStore(t, Options{
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: hashPassword(t, "secret"),
		SessionTTL:        time.Minute,
	})
	ctx := context.Background()
	require.NoError(t, s.SignIn(ctx, "admin@example.com", "secret"))

	sub := s.OnSessionChange()
	defer sub.Unsubscribe()
	ev := <-sub.Events()
	require.Equal(t, session.InitialSession, ev.Kind)
	require.NotNil(t, ev.Session)

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err := s.verify(ctx, ev.Session.AccessToken)
	require.ErrorIs(t, err, ErrInvalidSession)

	require.NoError(t, s.SignOut(ctx))
	ev = <-sub.Events()
	assert.Equal(t, session.SignedOut, ev.Kind)
	assert.Nil(t, s.Session())

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n))
	assert.Zero(t, n)
}

func TestVerify_RevokedSessionRejected(t *testing.T) {
	s := openTestStore(t, Options{
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: hashPassword(t, "secret"),
	})
	ctx := context.Background()
	require.NoError(t, s.SignIn(ctx, "admin@example.com", "secret"))
	current := s.Session()
	require.NotNil(t, current)

	_, err := s.verify(ctx, current.AccessToken)
	require.NoError(t, err)

	_, err = s.db.Exec("DELETE FROM sessions WHERE refresh_token = ?", current.RefreshToken)
	require.NoError(t, err)
	_, err = s.verify(ctx, current.AccessToken)
	require.ErrorIs(t, err, ErrInvalidSession)

	require.NoError(t, s.SignOut(ctx))
	assert.Nil(t, s.Session())
}

func TestSignIn_PrunesExpiredSessions(t *testing.T) {
	s := openTestStore(t, Options{
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: hashPassword(t, "secret"),
		SessionTTL:        time.Minute,
	})
	ctx := context.Background()
	require.NoError(t, s.SignIn(ctx, "admin@example.com", "secret"))

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	require.NoError(t, s.SignIn(ctx, "admin@example.com", "secret"))

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSignOut_WithoutSession(t *testing.T) {
	s := openTestStore(t, Options{})
	require.NoError(t, s.SignOut(context.Background()))
	assert.Nil(t, s.Session())
}

func TestPutUser_ReplacesHash(t *testing.T) {
	s := openTestStore(t, Options{AdminEmail: "a@example.com", AdminPasswordHash: hashPassword(t, "one")})
	ctx := context.Background()

	require.NoError(t, s.PutUser(ctx, "a@example.com", hashPassword(t, "two")))
	require.ErrorIs(t, s.SignIn(ctx, "a@example.com", "one"), ErrInvalidCredentials)
	require.NoError(t, s.SignIn(ctx, "a@example.com", "two"))
}
