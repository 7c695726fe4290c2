package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Level extracts the slog level of a text or JSON handler line. ok is false
// when the line carries no recognizable level.
func Level(line string) (slog.Level, bool) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var rec struct {
			Level string `json:"level"`
		}
		if err := json.Unmarshal([]byte(trimmed), &rec); err != nil || rec.Level == "" {
			return 0, false
		}
		return parseLevel(rec.Level)
	}
	for _, field := range strings.Fields(trimmed) {
		if v, found := strings.CutPrefix(field, "level="); found {
			return parseLevel(v)
		}
	}
	return 0, false
}

// FilterLevel keeps lines at or above min. Lines without a level are kept,
// since they are usually continuations of the previous record.
func FilterLevel(lines []string, min slog.Level) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if lvl, ok := Level(line); ok && lvl < min {
			continue
		}
		out = append(out, line)
	}
	return out
}

func parseLevel(value string) (slog.Level, bool) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.Trim(value, `"`))); err != nil {
		return 0, false
	}
	return lvl, true
}
