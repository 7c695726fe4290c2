package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Backend names accepted by the backend key.
const (
	BackendSupabase = "supabase"
	BackendLocal    = "local"
)

// Config is the resolved handbook configuration. Paths are absolute.
type Config struct {
	Backend    string
	AdminEmail string
	Supabase   Supabase
	Local      Local
	Log        Log
}

// Supabase configures the hosted backend.
type Supabase struct {
	URL             string
	AnonKey         string
	EntriesTable    string
	CategoriesTable string
	SessionFile     string
}

// Local configures the SQLite backend.
type Local struct {
	DBPath            string
	AdminEmail        string
	AdminPasswordHash string
}

// Log configures the diagnostic log.
type Log struct {
	Path   string
	Level  string
	Format string
}

const (
	defaultConfigPath      = "~/.config/handbook/config.toml"
	defaultAdminEmail      = "admin@example.com"
	defaultSupabaseURL     = "http://127.0.0.1:54321"
	defaultEntriesTable    = "entries"
	defaultCategoriesTable = "kategorien"
	defaultSessionFile     = "~/.local/state/handbook/session.json"
	defaultDBPath          = "~/.local/share/handbook/handbook.db"
	defaultLogPath         = "~/.local/state/handbook/handbook.log"
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"

	envSupabaseURL     = "HANDBOOK_SUPABASE_URL"
	envSupabaseAnonKey = "HANDBOOK_SUPABASE_ANON_KEY"
)

type rawConfig struct {
	Backend    string `toml:"backend"`
	AdminEmail string `toml:"admin_email"`
	Supabase   struct {
		URL             string `toml:"url"`
		AnonKey         string `toml:"anon_key"`
		EntriesTable    string `toml:"entries_table"`
		CategoriesTable string `toml:"categories_table"`
		SessionFile     string `toml:"session_file"`
	} `toml:"supabase"`
	Local struct {
		DBPath            string `toml:"db_path"`
		AdminEmail        string `toml:"admin_email"`
		AdminPasswordHash string `toml:"admin_password_hash"`
	} `toml:"local"`
	Log struct {
		Path   string `toml:"path"`
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// Load locates and parses the handbook config, falling back to defaults when missing.
// Environment overrides are applied last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if v, ok := os.LookupEnv(envSupabaseURL); ok {
		raw.Supabase.URL = v
	}
	if v, ok := os.LookupEnv(envSupabaseAnonKey); ok {
		raw.Supabase.AnonKey = v
	}

	return resolve(raw)
}

func resolve(raw rawConfig) (Config, error) {
	cfg := Config{
		Backend:    strings.ToLower(orDefault(raw.Backend, BackendSupabase)),
		AdminEmail: orDefault(raw.AdminEmail, defaultAdminEmail),
		Supabase: Supabase{
			URL:             orDefault(raw.Supabase.URL, defaultSupabaseURL),
			AnonKey:         strings.TrimSpace(raw.Supabase.AnonKey),
			EntriesTable:    orDefault(raw.Supabase.EntriesTable, defaultEntriesTable),
			CategoriesTable: orDefault(raw.Supabase.CategoriesTable, defaultCategoriesTable),
			SessionFile:     mustExpand(orDefault(raw.Supabase.SessionFile, defaultSessionFile)),
		},
		Local: Local{
			DBPath:            mustExpand(orDefault(raw.Local.DBPath, defaultDBPath)),
			AdminPasswordHash: strings.TrimSpace(raw.Local.AdminPasswordHash),
		},
		Log: Log{
			Path:   mustExpand(orDefault(raw.Log.Path, defaultLogPath)),
			Level:  orDefault(raw.Log.Level, defaultLogLevel),
			Format: orDefault(raw.Log.Format, defaultLogFormat),
		},
	}
	cfg.Local.AdminEmail = orDefault(raw.Local.AdminEmail, cfg.AdminEmail)

	switch cfg.Backend {
	case BackendSupabase, BackendLocal:
	default:
		return Config{}, fmt.Errorf("unknown backend %q (want %q or %q)", cfg.Backend, BackendSupabase, BackendLocal)
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if trimmed == ":memory:" {
		return trimmed, nil
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
