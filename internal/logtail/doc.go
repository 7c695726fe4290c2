// Package logtail reads the end of the diagnostic log for display in the TUI.
//
// # Reading Log Files
//
// Read uses a ring buffer sized to maxLines, so only the tail is kept in
// memory no matter how large the file grows:
//
//	lines, err := logtail.Read(cfg.Log.Path, 400)
//	if err != nil {
//		logger.Warn("read log failed", "error", err)
//	}
//
// A missing file returns nil, nil. Other errors are wrapped and returned.
//
// # Level Filtering
//
// Level understands both slog handler formats:
//
//	time=2026-10-17T09:00:00Z level=ERROR msg="add entry failed" op=add_entry
//	{"time":"2026-10-17T09:00:00Z","level":"ERROR","msg":"add entry failed"}
//
// FilterLevel drops lines below a threshold and keeps lines it cannot
// classify. There is no file watching here; the diagnostics view re-reads
// on demand.
package logtail
