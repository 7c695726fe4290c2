// Package state provides the data-sync container for the handbook.
//
// # Overview
//
// The Store is the single in-process mirror of the remote entries and
// categories tables plus the current authentication state. UI components read
// snapshots from it and call its operations; they never mutate the mirror
// themselves.
//
// # Architecture
//
//	UI action ──> Store operation ──> Remote/Auth call
//	                                      │
//	                 success: patch mirror │ failure: log, leave mirror alone
//	                                      ▼
//	                Subscribe() signal ──> UI re-reads Snapshot()
//
//	Auth backend ──> session.Subscription ──> listener goroutine
//	                                           └─> User + IsAdmin updated
//
// # Lifecycle
//
//	store := state.New(remote, auth, state.Options{Logger: log, IsAdmin: state.EmailAdmin(email)})
//	if err := store.Start(ctx); err != nil {
//		// load failed; mirror is empty or partial, UI can still run
//	}
//	defer store.Stop()
//
// Start registers for session changes first and then reads both tables once.
// After that the mirror is only patched by successful operations; it is never
// diffed against the backend again. Two clients editing the same handbook can
// diverge silently.
//
// # Operations
//
//   - AddEntry: insert, append the stored row (with its assigned id)
//   - UpdateEntry: rejected without id; replace the local row in place
//   - DeleteEntry: rejected without id; drop every local row with that id
//   - AddCategory: skipped when the name is already mirrored (exact match)
//   - Login: returns success only; the admin flag follows the session event
//   - Logout: always clears the admin flag, even if sign-out failed
//
// Every failure is logged with an "op" attribute and returned to the caller.
// No failure mutates the mirror.
//
// # Concurrency Model
//
// Operations may be started from any goroutine and may complete in any order.
// Network calls happen without holding the lock; applying a result is a
// single critical section on sync.RWMutex, so the mirror never tears.
// Snapshot, Entries and Categories return defensive copies.
//
// No timeouts are imposed here. A call blocks for as long as the backend (or
// the caller's context) allows.
//
// # Notification
//
// Subscribe hands out a buffered channel of size one. Each mutation sends
// without blocking, so signals coalesce and a slow reader simply re-reads the
// latest snapshot once.
package state
