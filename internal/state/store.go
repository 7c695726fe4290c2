package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/handbook/internal/handbook"
	"github.com/five82/handbook/internal/session"
)

// ErrMissingID is returned when an update or delete is requested without an
// entry identifier. No remote call is made in that case.
var ErrMissingID = errors.New("entry id is required")

// ErrNoIdentifier is returned when the store accepted an insert but the
// returned row carries no identifier. Such an entry is never mirrored.
var ErrNoIdentifier = errors.New("stored entry has no id")

// Remote is the table side of the backend.
type Remote interface {
	SelectEntries(ctx context.Context) ([]handbook.Entry, error)
	SelectCategories(ctx context.Context) ([]string, error)
	InsertEntry(ctx context.Context, fields handbook.EntryFields) (handbook.Entry, error)
	// UpdateEntry returns nil without error when no row matched id.
	UpdateEntry(ctx context.Context, id string, fields handbook.EntryFields) (*handbook.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	InsertCategory(ctx context.Context, name string) error
}

// Auth is the authentication side of the backend.
type Auth interface {
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	OnSessionChange() *session.Subscription
}

// AdminCheck decides whether a user gets admin controls. The user is nil
// when nobody is signed in.
type AdminCheck func(u *handbook.User) bool

// EmailAdmin grants admin to exactly one email address (exact match).
func EmailAdmin(email string) AdminCheck {
	return func(u *handbook.User) bool {
		return u != nil && email != "" && u.Email == email
	}
}

// Options configure a Store.
type Options struct {
	Logger  *slog.Logger
	IsAdmin AdminCheck // nil denies admin to everyone
}

// Snapshot is the state visible to the UI.
type Snapshot struct {
	Entries    []handbook.Entry
	Categories []string
	User       *handbook.User
	IsAdmin    bool
	Loaded     bool // both tables were read successfully at least once
	LoadedAt   time.Time
	Version    uint64 // bumped on every local mutation
}

// Store mirrors the remote entries and categories plus the auth state.
// All mutation of the mirror happens inside Store methods.
type Store struct {
	remote  Remote
	auth    Auth
	log     *slog.Logger
	isAdmin AdminCheck

	mu       sync.RWMutex
	snapshot Snapshot
	// adminRevoked is set by Logout and cleared by Login. While set, session
	// events cannot grant the admin flag.
	adminRevoked bool

	watchMu  sync.Mutex
	watchers map[chan struct{}]struct{}

	lifeMu  sync.Mutex
	started bool
	sub     *session.Subscription
	stopped chan struct{}
}

// New builds a Store. Call Start to populate it.
func New(remote Remote, auth Auth, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	isAdmin := opts.IsAdmin
	if isAdmin == nil {
		isAdmin = func(*handbook.User) bool { return false }
	}
	return &Store{
		remote:   remote,
		auth:     auth,
		log:      logger.With("component", "state"),
		isAdmin:  isAdmin,
		watchers: make(map[chan struct{}]struct{}),
	}
}

// Start subscribes to session changes and reads both tables once. Load
// failures are logged and returned joined; the mirror keeps whatever loaded.
// The session listener runs until Stop is called or ctx is cancelled.
func (s *Store) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	if s.started {
		s.lifeMu.Unlock()
		return fmt.Errorf("store already started")
	}
	s.started = true
	var sub *session.Subscription
	if s.auth != nil {
		sub = s.auth.OnSessionChange()
		s.sub = sub
		s.stopped = make(chan struct{})
		go s.listen(ctx, sub, s.stopped)
	}
	s.lifeMu.Unlock()

	return s.Reload(ctx)
}

// Stop unsubscribes from session changes and waits for the listener to exit.
func (s *Store) Stop() {
	s.lifeMu.Lock()
	sub, stopped := s.sub, s.stopped
	s.lifeMu.Unlock()
	if sub == nil {
		return
	}
	sub.Unsubscribe()
	<-stopped
}

func (s *Store) listen(ctx context.Context, sub *session.Subscription, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
			// Drain until closed so Stop does not race a pending event.
			for range sub.Events() {
			}
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			s.applySession(ev)
		}
	}
}

func (s *Store) applySession(ev session.Event) {
	var user *handbook.User
	if ev.Session != nil && ev.Session.User != nil {
		u := *ev.Session.User
		user = &u
	}
	admin := s.isAdmin(user)
	s.mutate(func(snap *Snapshot) {
		if s.adminRevoked {
			admin = false
		}
		snap.User = user
		snap.IsAdmin = admin
	})
	s.log.Debug("session changed", "event", string(ev.Kind), "email", ev.Session.Email(), "admin", admin)
}

// Reload reads both tables and replaces the mirror with whatever succeeded.
func (s *Store) Reload(ctx context.Context) error {
	var errs []error

	entries, err := s.remote.SelectEntries(ctx)
	if err != nil {
		s.log.Error("load entries failed", "op", "load_entries", "error", err)
		errs = append(errs, fmt.Errorf("load entries: %w", err))
	}
	categories, cerr := s.remote.SelectCategories(ctx)
	if cerr != nil {
		s.log.Error("load categories failed", "op", "load_categories", "error", cerr)
		errs = append(errs, fmt.Errorf("load categories: %w", cerr))
	}

	s.mutate(func(snap *Snapshot) {
		if err == nil {
			snap.Entries = withIDs(entries)
		}
		if cerr == nil {
			snap.Categories = cloneStrings(categories)
		}
		if err == nil && cerr == nil {
			snap.Loaded = true
			snap.LoadedAt = time.Now()
		}
	})
	if len(errs) == 0 {
		s.log.Info("handbook loaded", "entries", len(entries), "categories", len(categories))
	}
	return errors.Join(errs...)
}

// Entries returns a copy of the mirrored entries.
func (s *Store) Entries() []handbook.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.snapshot.Entries)
}

// Categories returns a copy of the mirrored category names.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneStrings(s.snapshot.Categories)
}

// IsAdmin reports the current admin flag.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.IsAdmin
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Entries = cloneEntries(s.snapshot.Entries)
	snap.Categories = cloneStrings(s.snapshot.Categories)
	if s.snapshot.User != nil {
		u := *s.snapshot.User
		snap.User = &u
	}
	return snap
}

// AddEntry inserts a new entry and appends the stored row on success.
func (s *Store) AddEntry(ctx context.Context, fields handbook.EntryFields) error {
	created, err := s.remote.InsertEntry(ctx, fields)
	if err != nil {
		s.log.Error("add entry failed", "op", "add_entry", "error", err)
		return fmt.Errorf("add entry: %w", err)
	}
	if created.ID == "" {
		s.log.Error("add entry failed", "op", "add_entry", "error", ErrNoIdentifier)
		return fmt.Errorf("add entry: %w", ErrNoIdentifier)
	}
	s.mutate(func(snap *Snapshot) {
		snap.Entries = append(snap.Entries, created)
	})
	return nil
}

// UpdateEntry rewrites the entry with the given id and replaces the local copy
// with the row the store returns. An entry missing locally stays missing.
func (s *Store) UpdateEntry(ctx context.Context, id string, fields handbook.EntryFields) error {
	if id == "" {
		s.log.Error("update entry rejected", "op", "update_entry", "error", ErrMissingID)
		return ErrMissingID
	}
	updated, err := s.remote.UpdateEntry(ctx, id, fields)
	if err != nil {
		s.log.Error("update entry failed", "op", "update_entry", "id", id, "error", err)
		return fmt.Errorf("update entry %s: %w", id, err)
	}
	if updated == nil {
		s.log.Warn("update entry returned no row", "op", "update_entry", "id", id)
		return nil
	}
	row := *updated
	if row.ID == "" {
		row.ID = id
	}

	replaced := false
	s.mutate(func(snap *Snapshot) {
		for i := range snap.Entries {
			if snap.Entries[i].ID == id {
				snap.Entries[i] = row
				replaced = true
			}
		}
	})
	if !replaced {
		s.log.Debug("updated entry not mirrored locally", "op", "update_entry", "id", id)
	}
	return nil
}

// AddCategory inserts name unless it is already in the local list.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	if handbook.ContainsCategory(s.Categories(), name) {
		s.log.Debug("category already present", "op", "add_category", "name", name)
		return nil
	}
	if err := s.remote.InsertCategory(ctx, name); err != nil {
		s.log.Error("add category failed", "op", "add_category", "name", name, "error", err)
		return fmt.Errorf("add category %q: %w", name, err)
	}
	s.mutate(func(snap *Snapshot) {
		if !handbook.ContainsCategory(snap.Categories, name) {
			snap.Categories = append(snap.Categories, name)
		}
	})
	return nil
}

// DeleteEntry removes the entry remotely, then every local entry with that id.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		s.log.Error("delete entry rejected", "op", "delete_entry", "error", ErrMissingID)
		return ErrMissingID
	}
	if err := s.remote.DeleteEntry(ctx, id); err != nil {
		s.log.Error("delete entry failed", "op", "delete_entry", "id", id, "error", err)
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	s.mutate(func(snap *Snapshot) {
		kept := snap.Entries[:0]
		for _, e := range snap.Entries {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		snap.Entries = kept
	})
	return nil
}

// Login signs in. The admin flag follows later, when the session change
// notification arrives; callers must not expect it to be set on return.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	if s.auth == nil {
		s.log.Error("login failed", "op", "login", "error", "no auth backend")
		return false
	}
	s.mu.Lock()
	revoked := s.adminRevoked
	s.adminRevoked = false
	s.mu.Unlock()
	if err := s.auth.SignIn(ctx, email, password); err != nil {
		s.mu.Lock()
		s.adminRevoked = revoked
		s.mu.Unlock()
		s.log.Error("login failed", "op", "login", "email", email, "error", err)
		return false
	}
	s.log.Info("login succeeded", "op", "login", "email", email)
	return true
}

// Logout signs out and clears the local admin flag whether or not the
// backend call succeeded. Session events that arrive afterwards do not
// restore the flag until the next Login.
func (s *Store) Logout(ctx context.Context) error {
	var err error
	if s.auth != nil {
		err = s.auth.SignOut(ctx)
		if err != nil {
			s.log.Error("logout failed", "op", "logout", "error", err)
			err = fmt.Errorf("logout: %w", err)
		}
	}
	s.mutate(func(snap *Snapshot) {
		s.adminRevoked = true
		snap.IsAdmin = false
	})
	return err
}

// Subscribe returns a channel signalled after every local mutation, and a
// cancel func. Signals coalesce: a reader that falls behind sees one pending
// signal and should re-read Snapshot.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.watchMu.Lock()
	s.watchers[ch] = struct{}{}
	s.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, ch)
			s.watchMu.Unlock()
		})
	}
}

func (s *Store) mutate(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snapshot)
	s.snapshot.Version++
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// withIDs drops rows the store returned without an identifier.
func withIDs(entries []handbook.Entry) []handbook.Entry {
	out := make([]handbook.Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID != "" {
			out = append(out, e)
		}
	}
	return out
}

func cloneEntries(items []handbook.Entry) []handbook.Entry {
	if len(items) == 0 {
		return nil
	}
	dup := make([]handbook.Entry, len(items))
	copy(dup, items)
	return dup
}

func cloneStrings(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	dup := make([]string, len(items))
	copy(dup, items)
	return dup
}
