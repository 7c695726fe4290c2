// Package config loads the handbook configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/handbook/config.toml
//  3. If the file doesn't exist, start from defaults
//  4. Apply HANDBOOK_SUPABASE_URL and HANDBOOK_SUPABASE_ANON_KEY when set
//
// Missing files are not an error, so the program starts against a local
// Supabase stack without any configuration.
//
// # TOML Format
//
//	backend = "supabase"            # or "local"
//	admin_email = "admin@example.com"
//
//	[supabase]
//	url = "https://abc.supabase.co"
//	anon_key = "..."
//	entries_table = "entries"
//	categories_table = "kategorien"
//	session_file = "~/.local/state/handbook/session.json"
//
//	[local]
//	db_path = "~/.local/share/handbook/handbook.db"
//	admin_password_hash = "$2a$10$..."   # see `handbook hash-password`
//
//	[log]
//	path = "~/.local/state/handbook/handbook.log"
//	level = "info"
//	format = "text"
//
// Every field is optional. Blank values fall back to defaults and every
// path goes through tilde expansion. The local backend's admin_email
// defaults to the top-level admin_email.
package config
