// Package ui is the Bubble Tea front end of the handbook.
//
// The root Model holds a copy of the state container's latest Snapshot and
// re-reads it whenever the container signals a change. Mutations never touch
// the snapshot directly: modals emit request messages, Update turns them into
// commands that call the Store, and the resulting change notification brings
// the new state back in.
//
// Views:
//
//   - Browse: distinct error messages on the left, the selected entry on the
//     right. f cycles the category filter, / searches.
//   - Diagnostics: the tail of the log file, filterable by level.
//
// Admin-only actions (n, e, d, c) are gated on Snapshot.IsAdmin. The gating is
// cosmetic; the remote enforces authorization.
package ui
