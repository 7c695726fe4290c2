package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/handbook/internal/handbook"
	"github.com/five82/handbook/internal/validation"
)

// fill sets each field of a form directly.
func fill(f *formModal, values ...string) {
	for i, v := range values {
		f.fields[i].input.SetValue(v)
	}
}

// submit moves focus to the last field and presses enter.
func submit(t *testing.T, f *formModal) (tea.Cmd, bool) {
	t.Helper()
	f.setFocus(len(f.fields) - 1)
	_, cmd, closed := f.Update(keyMsg("enter"), DefaultKeyMap())
	return cmd, closed
}

func TestEntryModalValidatesAndTrims(t *testing.T) {
	v := validation.New()
	f := newEntryModal(v, []string{"Disk"}, nil, "Disk").(*formModal)

	if got := f.values()[0]; got != "Disk" {
		t.Fatalf("category prefill = %q, want Disk", got)
	}

	fill(f, "Disk", "  ", "desc", "")
	cmd, closed := submit(t, f)
	if closed || cmd != nil {
		t.Fatal("invalid form should stay open")
	}
	for _, field := range []string{"fehlermeldung", "loesung"} {
		if !strings.Contains(f.err, field) {
			t.Fatalf("err = %q, want mention of %s", f.err, field)
		}
	}

	fill(f, " Disk ", " disk full ", "no space", " free it ")
	cmd, closed = submit(t, f)
	if !closed || cmd == nil {
		t.Fatal("valid form should close with a command")
	}
	req, ok := cmd().(saveEntryRequestMsg)
	if !ok {
		t.Fatal("expected saveEntryRequestMsg")
	}
	want := handbook.EntryFields{Category: "Disk", Message: "disk full", Description: "no space", Resolution: "free it"}
	if req.id != "" || req.fields != want {
		t.Fatalf("req = %+v, want new entry %+v", req, want)
	}
}

func TestEntryModalEditKeepsID(t *testing.T) {
	entry := handbook.Entry{ID: "42", EntryFields: handbook.EntryFields{
		Category: "Net", Message: "m", Description: "d", Resolution: "r",
	}}
	f := newEntryModal(validation.New(), nil, &entry, "ignored").(*formModal)
	cmd, closed := submit(t, f)
	if !closed {
		t.Fatalf("form not closed, err = %q", f.err)
	}
	req := cmd().(saveEntryRequestMsg)
	if req.id != "42" || req.fields != entry.Fields() {
		t.Fatalf("req = %+v", req)
	}
}

func TestEnterAdvancesBeforeSubmit(t *testing.T) {
	f := newLoginModal(validation.New()).(*formModal)
	_, cmd, closed := f.Update(keyMsg("enter"), DefaultKeyMap())
	if closed || f.focus != 1 {
		t.Fatalf("closed = %v, focus = %d; want focus moved to password", closed, f.focus)
	}
	if cmd == nil {
		t.Fatal("expected blink command")
	}
}

func TestLoginModal(t *testing.T) {
	f := newLoginModal(validation.New()).(*formModal)

	fill(f, "not-an-email", "secret")
	if _, closed := submit(t, f); closed {
		t.Fatal("invalid email accepted")
	}
	if !strings.Contains(f.err, "email must be a valid email address") {
		t.Fatalf("err = %q", f.err)
	}

	fill(f, " admin@example.com ", "secret")
	cmd, closed := submit(t, f)
	if !closed {
		t.Fatalf("valid login rejected: %q", f.err)
	}
	req := cmd().(loginRequestMsg)
	if req.email != "admin@example.com" || req.password != "secret" {
		t.Fatalf("req = %+v", req)
	}
}

func TestCategoryModal(t *testing.T) {
	f := newCategoryModal(validation.New()).(*formModal)

	fill(f, "   ")
	if _, closed := submit(t, f); closed {
		t.Fatal("blank category accepted")
	}

	fill(f, " Network ")
	cmd, closed := submit(t, f)
	if !closed {
		t.Fatalf("category rejected: %q", f.err)
	}
	if req := cmd().(addCategoryRequestMsg); req.name != "Network" {
		t.Fatalf("name = %q, want Network", req.name)
	}
}

func TestFormEscapeCloses(t *testing.T) {
	f := newCategoryModal(validation.New())
	_, cmd, closed := f.Update(keyMsg("esc"), DefaultKeyMap())
	if !closed || cmd != nil {
		t.Fatal("esc should close without a command")
	}
}

func TestFormTabWraps(t *testing.T) {
	f := newLoginModal(validation.New()).(*formModal)
	keys := DefaultKeyMap()
	f.Update(keyMsg("tab"), keys)
	f.Update(keyMsg("tab"), keys)
	if f.focus != 0 {
		t.Fatalf("focus = %d, want wrap to 0", f.focus)
	}
}

func TestFormViewShowsError(t *testing.T) {
	f := newCategoryModal(validation.New()).(*formModal)
	submit(t, f)
	view := f.View(GetTheme("Nightfox"), 100, 30)
	if !strings.Contains(view, "New category") || !strings.Contains(view, "is required") {
		t.Fatalf("view missing title or error:\n%s", view)
	}
}
