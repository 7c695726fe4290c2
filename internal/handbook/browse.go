package handbook

import "strings"

// FilterByCategory returns the entries whose category equals category.
// An empty category selects everything.
func FilterByCategory(entries []Entry, category string) []Entry {
	if category == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// DistinctMessages returns the non-empty error messages of entries in first-seen order.
func DistinctMessages(entries []Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	var out []string
	for _, e := range entries {
		if e.Message == "" {
			continue
		}
		if _, ok := seen[e.Message]; ok {
			continue
		}
		seen[e.Message] = struct{}{}
		out = append(out, e.Message)
	}
	return out
}

// FindByMessage returns the first entry carrying message.
func FindByMessage(entries []Entry, message string) (Entry, bool) {
	if message == "" {
		return Entry{}, false
	}
	for _, e := range entries {
		if e.Message == message {
			return e, true
		}
	}
	return Entry{}, false
}

// FindByID returns the entry with the given identifier.
func FindByID(entries []Entry, id string) (Entry, bool) {
	if id == "" {
		return Entry{}, false
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Search keeps entries whose message, description or resolution contain
// query, case-insensitively. A blank query keeps everything.
func Search(entries []Entry, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Message), q) ||
			strings.Contains(strings.ToLower(e.Description), q) ||
			strings.Contains(strings.ToLower(e.Resolution), q) {
			out = append(out, e)
		}
	}
	return out
}

// CategoryChoices returns the selectable filter values: "" (all) followed by
// every non-empty category name.
func CategoryChoices(categories []string) []string {
	out := make([]string, 0, len(categories)+1)
	out = append(out, "")
	for _, c := range categories {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// ContainsCategory reports an exact, case-sensitive match of name in categories.
func ContainsCategory(categories []string, name string) bool {
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}
