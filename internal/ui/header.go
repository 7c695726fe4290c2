package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: counts, load state, session and notice.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < 100

	parts := []string{bg.Render("handbook", styles.Logo)}

	if !m.snapshot.Loaded {
		parts = append(parts, bg.Render("Loading...", styles.WarningText.Bold(true)))
	} else {
		parts = append(parts,
			bg.Render("Entries:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", len(m.snapshot.Entries)), styles.Text),
			bg.Render("Categories:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", len(m.snapshot.Categories)), styles.Text),
		)
		if !compact && !m.snapshot.LoadedAt.IsZero() {
			parts = append(parts, bg.Render(m.snapshot.LoadedAt.Format("15:04:05"), styles.MutedText))
		}
	}

	if user := m.snapshot.User; user != nil {
		who := bg.Render("●", styles.SuccessText) + bg.Space()
		if compact {
			who += bg.Render(truncate(user.Email, 24), styles.Text)
		} else {
			who += bg.Render("signed in as", styles.MutedText) + bg.Space() + bg.Render(user.Email, styles.Text)
		}
		parts = append(parts, who)
		if m.snapshot.IsAdmin {
			parts = append(parts, bg.Render("ADMIN", styles.WarningText.Bold(true)))
		}
	} else {
		parts = append(parts, bg.Render("○ not signed in", styles.FaintText))
	}

	if text := m.notice.text; text != "" {
		max := 80
		if compact {
			max = 40
		}
		style := styles.AccentText
		switch m.notice.kind {
		case noticeSuccess:
			style = styles.SuccessText
		case noticeError:
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(truncate(text, max), style))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewDiagnostics:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"L", "Level " + levelLabel(m.diag.minLevel)},
			{"r", "Reload"},
			{"v", "Back"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"f", categoryLabel(m.browse.category)},
			{"/", "Search"},
			{"j/k", "Navigate"},
			{"y", "Copy"},
		}
		if m.snapshot.IsAdmin {
			commands = append(commands, cmd{"n", "New"}, cmd{"e", "Edit"}, cmd{"d", "Delete"}, cmd{"c", "Category"})
		}
		login := "Login"
		if m.snapshot.User != nil {
			login = "Logout"
		}
		commands = append(commands, cmd{"l", login}, cmd{"v", "Log"}, cmd{"?", "More"})
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.currentView == ViewBrowse {
		if m.searchInput.Focused() {
			segments = append(segments, m.searchInput.View())
		} else if m.browse.query != "" {
			segments = append(segments, bg.Render("/"+truncate(m.browse.query, 18), styles.AccentText))
		}
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}
