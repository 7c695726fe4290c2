package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/handbook/internal/handbook"
)

// browseState holds the message list selection. The selection is tracked by
// message text so it survives refreshes that reorder or drop rows.
type browseState struct {
	category string // "" means all categories
	query    string
	selected string
	row      int
}

// visibleEntries applies the category filter, then the search query.
func (m Model) visibleEntries() []handbook.Entry {
	filtered := handbook.FilterByCategory(m.snapshot.Entries, m.browse.category)
	return handbook.Search(filtered, m.browse.query)
}

func (m Model) messages() []string {
	return handbook.DistinctMessages(m.visibleEntries())
}

// selectedEntry returns the first entry with the selected message.
func (m Model) selectedEntry() (handbook.Entry, bool) {
	return handbook.FindByMessage(m.visibleEntries(), m.browse.selected)
}

// reselect keeps the selected message when it is still listed, otherwise
// clamps the row and selects whatever now occupies it.
func (m *Model) reselect() {
	msgs := m.messages()
	if len(msgs) == 0 {
		m.browse.row = 0
		m.browse.selected = ""
		return
	}
	for i, msg := range msgs {
		if msg == m.browse.selected {
			m.browse.row = i
			return
		}
	}
	m.browse.row = min(max(m.browse.row, 0), len(msgs)-1)
	m.browse.selected = msgs[m.browse.row]
}

func (m *Model) selectRow(row int) {
	msgs := m.messages()
	if len(msgs) == 0 {
		return
	}
	m.browse.row = min(max(row, 0), len(msgs)-1)
	m.browse.selected = msgs[m.browse.row]
	m.detailViewport.GotoTop()
	m.updateDetailViewport()
}

// cycleCategory steps through "all" and every known category.
func (m *Model) cycleCategory(step int) {
	choices := handbook.CategoryChoices(m.snapshot.Categories)
	idx := -1
	for i, c := range choices {
		if c == m.browse.category {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = 0
	} else {
		idx = (idx + step + len(choices)) % len(choices)
	}
	m.browse.category = choices[idx]
	m.browse.selected = ""
	m.browse.row = 0
	m.reselect()
	m.updateDetailViewport()
	m.savePrefs()
}

func categoryLabel(category string) string {
	if category == "" {
		return "All"
	}
	return category
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		if m.browse.query != "" {
			m.browse.query = ""
			m.searchInput.SetValue("")
			m.reselect()
			m.updateDetailViewport()
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleCategory):
		m.cycleCategory(1)
		return m, nil
	case key.Matches(msg, m.keys.CycleCategoryBack):
		m.cycleCategory(-1)
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchInput.SetValue(m.browse.query)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Up):
		m.selectRow(m.browse.row - 1)
	case key.Matches(msg, m.keys.Down):
		m.selectRow(m.browse.row + 1)
	case key.Matches(msg, m.keys.Top):
		m.selectRow(0)
	case key.Matches(msg, m.keys.Bottom):
		m.selectRow(len(m.messages()) - 1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.detailViewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.detailViewport.HalfPageUp()

	case key.Matches(msg, m.keys.Copy):
		entry, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		return m, copyCmd(entry.Resolution)

	case key.Matches(msg, m.keys.NewCategory):
		if cmd, ok := m.requireAdmin(); !ok {
			return m, cmd
		}
		m.modal = newCategoryModal(m.validator)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.NewEntry):
		if cmd, ok := m.requireAdmin(); !ok {
			return m, cmd
		}
		m.modal = newEntryModal(m.validator, m.snapshot.Categories, nil, m.browse.category)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.EditEntry):
		if cmd, ok := m.requireAdmin(); !ok {
			return m, cmd
		}
		entry, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		m.modal = newEntryModal(m.validator, m.snapshot.Categories, &entry, "")
		return m, textinput.Blink

	case key.Matches(msg, m.keys.DeleteEntry):
		if cmd, ok := m.requireAdmin(); !ok {
			return m, cmd
		}
		entry, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		m.modal = newConfirmModal(
			fmt.Sprintf("Delete %q?", truncate(entry.Message, 60)),
			deleteRequestMsg{id: entry.ID},
		)
		return m, nil
	}
	return m, nil
}

// requireAdmin reports whether admin controls are available, and otherwise
// returns a notice command.
func (m *Model) requireAdmin() (tea.Cmd, bool) {
	if m.snapshot.IsAdmin {
		return nil, true
	}
	return m.setNotice(noticeInfo, "Admin only; press l to sign in"), false
}

func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.searchInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.browse.query = ""
		m.reselect()
		m.updateDetailViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if q := m.searchInput.Value(); q != m.browse.query {
		m.browse.query = q
		m.reselect()
		m.updateDetailViewport()
	}
	return m, cmd
}

// Layout

func (m Model) paneWidths() (list, detail int) {
	if m.width >= 160 {
		list = m.width * 35 / 100
	} else {
		list = m.width * 45 / 100
	}
	return list, m.width - list
}

func (m Model) detailSize() (int, int) {
	_, detail := m.paneWidths()
	return max(detail-4, 1), max(m.height-4, 1)
}

func (m Model) renderBrowse() string {
	styles := m.theme.Styles()
	contentHeight := m.height - 2

	if !m.snapshot.Loaded && len(m.snapshot.Entries) == 0 {
		msg := styles.MutedText.Render("Loading handbook... (press v for diagnostics)")
		return lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, msg)
	}

	listWidth, detailWidth := m.paneWidths()

	listTitle := "Messages · " + categoryLabel(m.browse.category)
	if m.browse.query != "" {
		listTitle += " · /" + truncate(m.browse.query, 16)
	}
	listPane := m.renderTitledBox(listTitle, m.renderMessageList(listWidth-2, contentHeight-2), listWidth, contentHeight, true)
	detailPane := m.renderTitledBox("Details", m.detailViewport.View(), detailWidth, contentHeight, false)

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// renderMessageList renders the visible window of distinct messages.
func (m Model) renderMessageList(width, height int) string {
	bgColor := m.theme.FocusBg
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	msgs := m.messages()
	if len(msgs) == 0 {
		text := "No entries"
		if m.browse.query != "" {
			text = "No entries match the search"
		}
		return bg.FillLine(bg.Render(text, styles.MutedText), width)
	}

	start := 0
	if height > 0 && m.browse.row >= height {
		start = m.browse.row - height + 1
	}
	end := len(msgs)
	if height > 0 {
		end = min(end, start+height)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		text := padRight(truncate(msgs[i], width-2), width-2)
		if i == m.browse.row {
			lines = append(lines, styles.Selected.Width(width).Render(" "+text))
			continue
		}
		lines = append(lines, bg.FillLine(bg.Space()+bg.Render(text, styles.Text), width))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) updateDetailViewport() {
	if m.detailViewport.Width == 0 {
		return
	}
	m.detailViewport.SetContent(m.renderDetailContent(m.detailViewport.Width))
}

// renderDetailContent renders the selected entry: category badge, message,
// description and resolution.
func (m Model) renderDetailContent(width int) string {
	bgColor := m.theme.SurfaceAlt
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	entry, ok := m.selectedEntry()
	if !ok {
		return bg.FillLine(bg.Render("Select a message", styles.MutedText), width)
	}

	var lines []string
	badge := styles.CategoryStyle(entry.Category).Render(categoryLabel(entry.Category))
	lines = append(lines, badge)
	if !handbook.ContainsCategory(m.snapshot.Categories, entry.Category) && entry.Category != "" {
		lines = append(lines, bg.Render("category not in category list", styles.FaintText))
	}
	lines = append(lines, "")

	section := func(title, body string) {
		lines = append(lines, bg.Render(title, styles.Label))
		for _, l := range wrap(body, width) {
			lines = append(lines, bg.Render(l, styles.Text))
		}
		lines = append(lines, "")
	}
	section("Error message", entry.Message)
	section("Description", entry.Description)
	section("Resolution", entry.Resolution)

	if m.snapshot.IsAdmin {
		lines = append(lines, bg.Render("e edit · d delete · y copy", styles.FaintText))
	} else {
		lines = append(lines, bg.Render("y copy resolution", styles.FaintText))
	}

	for i, l := range lines {
		lines[i] = bg.FillLine(l, width)
	}
	return strings.Join(lines, "\n")
}

// renderTitledBox renders content in a box with the title set into the top border.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColorStr, bgColorStr := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColorStr, bgColorStr = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 1))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColorStr))
	contentLines := strings.Split(content, "\n")
	rows := make([]string, 0, max(height-2, 0))
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		rows = append(rows, bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}
	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}
