package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/five82/handbook/internal/config"
	"github.com/five82/handbook/internal/localstore"
	"github.com/five82/handbook/internal/logging"
	"github.com/five82/handbook/internal/prefs"
	"github.com/five82/handbook/internal/state"
	"github.com/five82/handbook/internal/supabase"
	"github.com/five82/handbook/internal/ui"
)

const userAgent = "handbook"

// Options configure the handbook application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/handbook/prefs.toml
}

// Runtime is a configured backend plus the state container mirroring it.
type Runtime struct {
	Config config.Config
	Store  *state.Store
	Logger *slog.Logger

	closeBackend func() error
}

// Open builds the backend selected by cfg and a state container over it.
// The container is not started.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	var (
		remote state.Remote
		auth   state.Auth
		closer = func() error { return nil }
	)
	switch cfg.Backend {
	case config.BackendLocal:
		db, err := localstore.Open(ctx, localstore.Options{
			Path:              cfg.Local.DBPath,
			AdminEmail:        cfg.Local.AdminEmail,
			AdminPasswordHash: cfg.Local.AdminPasswordHash,
			Logger:            logger,
		})
		if err != nil {
			return nil, fmt.Errorf("open local backend: %w", err)
		}
		remote, auth, closer = db, db, db.Close
		if cfg.Local.AdminPasswordHash == "" {
			logger.Warn("local backend has no admin password; run handbook hash-password", "db", cfg.Local.DBPath)
		}

	case config.BackendSupabase:
		client, err := supabase.NewClient(supabase.Options{
			URL:             cfg.Supabase.URL,
			AnonKey:         cfg.Supabase.AnonKey,
			EntriesTable:    cfg.Supabase.EntriesTable,
			CategoriesTable: cfg.Supabase.CategoriesTable,
			SessionFile:     cfg.Supabase.SessionFile,
			Logger:          logger,
			UserAgent:       userAgent,
		})
		if err != nil {
			return nil, fmt.Errorf("init supabase client: %w", err)
		}
		remote, auth = client, client

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	logger.Info("backend ready", "backend", cfg.Backend)
	store := state.New(remote, auth, state.Options{
		Logger:  logger,
		IsAdmin: state.EmailAdmin(cfg.AdminEmail),
	})
	return &Runtime{Config: cfg, Store: store, Logger: logger, closeBackend: closer}, nil
}

// Close stops the state container and releases the backend.
func (r *Runtime) Close() error {
	r.Store.Stop()
	return r.closeBackend()
}

// Run boots the handbook TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := logging.OpenFile(cfg.Log.Path)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := newLogger(logFile, cfg.Log)

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn("load prefs failed; using defaults", "path", prefsPath, "error", err)
	}

	rt, err := Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("close backend failed", "error", err)
		}
	}()

	// Populate the mirror before the UI starts. Load failures are already
	// logged by the container and stay visible in the diagnostics view.
	if err := rt.Store.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("initial load incomplete", "error", err)
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     rt.Store,
		ThemeName: userPrefs.Theme,
		Category:  userPrefs.Category,
		PrefsPath: prefsPath,
		LogPath:   cfg.Log.Path,
		Logger:    logger,
	})
}

func newLogger(w io.Writer, cfg config.Log) *slog.Logger {
	return logging.New(logging.Config{
		Writer: w,
		Format: cfg.Format,
		Level:  logging.ParseLevel(cfg.Level),
	})
}

// NewCLILogger returns a stderr logger honoring the configured level and format.
func NewCLILogger(w io.Writer, cfg config.Config) *slog.Logger {
	return newLogger(w, cfg.Log)
}
