// Package app is the composition root of the handbook.
//
// Run performs, in order:
//
//  1. config.Load: TOML file plus environment overrides
//  2. logging.OpenFile / logging.New: the TUI owns the terminal, so logs go to a file
//  3. prefs.Load: theme and last category filter
//  4. Open: picks the backend (Supabase or local SQLite) and builds a state.Store
//  5. Store.Start: reads both tables once and starts following session changes
//  6. ui.Run: blocks until the user quits or the context is cancelled
//
// Load failures during Start are not fatal. The container logs them and the
// diagnostics view shows the log.
//
// Open and Runtime are also used by the one-shot CLI subcommands, which start
// the container, read it, and close it again.
package app
