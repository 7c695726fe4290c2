package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/five82/handbook/internal/config"
	"github.com/five82/handbook/internal/handbook"
)

func localConfig(t *testing.T, hash string) config.Config {
	t.Helper()
	return config.Config{
		Backend:    config.BackendLocal,
		AdminEmail: "admin@example.com",
		Local: config.Local{
			DBPath:            ":memory:",
			AdminEmail:        "admin@example.com",
			AdminPasswordHash: hash,
		},
		Log: config.Log{Level: "debug", Format: "text"},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOpenLocalRuntime(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ctx := context.Background()

	rt, err := Open(ctx, localConfig(t, string(hash)), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()

	if err := rt.Store.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if snap := rt.Store.Snapshot(); !snap.Loaded || len(snap.Entries) != 0 {
		t.Fatalf("snapshot = %+v, want loaded and empty", snap)
	}

	if rt.Store.IsAdmin() {
		t.Fatal("admin before login")
	}
	if !rt.Store.Login(ctx, "admin@example.com", "hunter2") {
		t.Fatal("login failed")
	}
	waitFor(t, rt.Store.IsAdmin)

	fields := handbook.EntryFields{Category: "Disk", Message: "disk full", Description: "d", Resolution: "r"}
	if err := rt.Store.AddEntry(ctx, fields); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if got := rt.Store.Entries(); len(got) != 1 || got[0].ID == "" {
		t.Fatalf("entries = %+v, want one with id", got)
	}
}

func TestOpenSupabaseRuntime(t *testing.T) {
	cfg := config.Config{
		Backend:    config.BackendSupabase,
		AdminEmail: "admin@example.com",
		Supabase: config.Supabase{
			URL:             "http://127.0.0.1:1",
			AnonKey:         "anon",
			EntriesTable:    "entries",
			CategoriesTable: "kategorien",
		},
	}
	rt, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.Config{Backend: "mongo"}, nil)
	if err == nil || !strings.Contains(err.Error(), "mongo") {
		t.Fatalf("err = %v, want unknown backend", err)
	}
}

func TestNewCLILoggerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCLILogger(&buf, config.Config{Log: config.Log{Level: "warn", Format: "json"}})
	logger.Info("hidden")
	logger.Warn("shown", "op", "load_entries")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, `"op":"load_entries"`) {
		t.Fatalf("missing json attr: %s", out)
	}
}
