package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

// helpSections lists the shortcuts, omitting admin actions for other users.
func (m Model) helpSections() []helpSection {
	sections := []helpSection{
		{
			title: "Browse",
			items: []helpItem{
				{"j/k", "Move up/down"},
				{"g/G", "Go to top/bottom"},
				{"ctrl+d/u", "Scroll details"},
				{"f/F", "Next/previous category"},
				{"/", "Search messages"},
				{"esc", "Clear search"},
				{"y", "Copy resolution"},
			},
		},
		{
			title: "Session",
			items: []helpItem{
				{"l", "Log in / log out"},
			},
		},
	}
	if m.snapshot.IsAdmin {
		sections = append(sections, helpSection{
			title: "Admin",
			items: []helpItem{
				{"n", "New entry"},
				{"e", "Edit entry"},
				{"d", "Delete entry"},
				{"c", "New category"},
			},
		})
	}
	sections = append(sections,
		helpSection{
			title: "Diagnostics",
			items: []helpItem{
				{"v", "Toggle log view"},
				{"L", "Cycle minimum level"},
				{"r", "Reload log"},
			},
		},
		helpSection{
			title: "General",
			items: []helpItem{
				{"T", "Cycle theme"},
				{"h/?", "Toggle help"},
				{"q/ctrl+c", "Quit"},
			},
		},
	)
	return sections
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	sections := m.helpSections()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(40)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
