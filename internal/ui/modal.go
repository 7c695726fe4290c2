package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/handbook/internal/handbook"
	"github.com/five82/handbook/internal/validation"
)

// Modal is the interface for modal dialogs.
// Update returns the updated modal, a command, and whether the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

type formField struct {
	label string
	input textinput.Model
}

// formModal is a stack of text inputs. Enter on the last field submits; the
// submit func turns the values into a request message or a validation error.
type formModal struct {
	title  string
	fields []formField
	focus  int
	err    string
	submit func(values []string) (tea.Msg, error)
}

func newInput(placeholder, value string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.SetValue(value)
	in.CursorEnd()
	return in
}

func newFormModal(title string, fields []formField, submit func([]string) (tea.Msg, error)) *formModal {
	f := &formModal{title: title, fields: fields, submit: submit}
	f.setFocus(0)
	return f
}

func (f *formModal) setFocus(i int) {
	n := len(f.fields)
	f.focus = (i%n + n) % n
	for idx := range f.fields {
		if idx == f.focus {
			f.fields[idx].input.Focus()
		} else {
			f.fields[idx].input.Blur()
		}
	}
}

func (f *formModal) values() []string {
	out := make([]string, len(f.fields))
	for i, fld := range f.fields {
		out[i] = fld.input.Value()
	}
	return out
}

func (f *formModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Escape):
			return f, nil, true
		case key.Matches(km, keys.Tab):
			f.setFocus(f.focus + 1)
			return f, textinput.Blink, false
		case key.Matches(km, keys.ShiftTab):
			f.setFocus(f.focus - 1)
			return f, textinput.Blink, false
		case key.Matches(km, keys.Confirm):
			if f.focus < len(f.fields)-1 {
				f.setFocus(f.focus + 1)
				return f, textinput.Blink, false
			}
			out, err := f.submit(f.values())
			if err != nil {
				f.err = err.Error()
				return f, nil, false
			}
			return f, func() tea.Msg { return out }, true
		}
	}

	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd, false
}

func (f *formModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	boxWidth := min(72, max(width-4, 20))
	inputWidth := boxWidth - 6

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(f.title))
	b.WriteString("\n\n")
	for i, fld := range f.fields {
		label := styles.MutedText
		if i == f.focus {
			label = styles.Label
		}
		b.WriteString(label.Render(fld.label))
		b.WriteString("\n")
		in := fld.input
		in.Width = inputWidth
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}
	if f.err != "" {
		for _, line := range wrap(f.err, inputWidth) {
			b.WriteString(styles.DangerText.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("tab next · enter confirm · esc cancel"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(boxWidth)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)))
}

func newLoginModal(v *validation.Validator) Modal {
	email := newInput("name@example.com", "")
	password := newInput("password", "")
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return newFormModal("Sign in", []formField{
		{label: "Email", input: email},
		{label: "Password", input: password},
	}, func(values []string) (tea.Msg, error) {
		creds := validation.Credentials{Email: strings.TrimSpace(values[0]), Password: values[1]}
		if err := v.Validate(creds); err != nil {
			return nil, err
		}
		return loginRequestMsg{email: creds.Email, password: creds.Password}, nil
	})
}

func newCategoryModal(v *validation.Validator) Modal {
	return newFormModal("New category", []formField{
		{label: "Name", input: newInput("e.g. Network", "")},
	}, func(values []string) (tea.Msg, error) {
		form := validation.CategoryName{Name: strings.TrimSpace(values[0])}
		if err := v.Validate(form); err != nil {
			return nil, err
		}
		return addCategoryRequestMsg{name: form.Name}, nil
	})
}

// newEntryModal opens the entry editor. A nil entry creates a new one with
// category preselected.
func newEntryModal(v *validation.Validator, categories []string, entry *handbook.Entry, category string) Modal {
	title := "New entry"
	var id string
	fields := handbook.EntryFields{Category: category}
	if entry != nil {
		title = "Edit entry"
		id = entry.ID
		fields = entry.Fields()
	}

	cat := newInput("category", fields.Category)
	cat.ShowSuggestions = true
	cat.SetSuggestions(categories)
	cat.KeyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("right"))

	return newFormModal(title, []formField{
		{label: "Category", input: cat},
		{label: "Error message", input: newInput("message shown to the user", fields.Message)},
		{label: "Description", input: newInput("what it means", fields.Description)},
		{label: "Resolution", input: newInput("how to fix it", fields.Resolution)},
	}, func(values []string) (tea.Msg, error) {
		out := handbook.EntryFields{
			Category:    values[0],
			Message:     values[1],
			Description: values[2],
			Resolution:  values[3],
		}.Trimmed()
		if err := v.Validate(out); err != nil {
			return nil, err
		}
		return saveEntryRequestMsg{id: id, fields: out}, nil
	})
}

// confirmModal asks a yes/no question and emits msg on yes.
type confirmModal struct {
	question string
	msg      tea.Msg
}

func newConfirmModal(question string, msg tea.Msg) Modal {
	return confirmModal{question: question, msg: msg}
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Yes):
		out := c.msg
		return c, func() tea.Msg { return out }, true
	case key.Matches(km, keys.No):
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	content := styles.Text.Bold(true).Render(c.question) + "\n\n" +
		styles.FaintText.Render("y confirm · n cancel")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Danger)).
		Padding(1, 2).
		Width(min(60, max(width-4, 20)))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)))
}
