package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/handbook/internal/handbook"
	"github.com/five82/handbook/internal/state"
)

type fakeStore struct {
	mu       sync.Mutex
	snap     state.Snapshot
	deleted  []string
	added    []handbook.EntryFields
	updated  map[string]handbook.EntryFields
	cats     []string
	logins   []string
	loginOK  bool
	logouts  int
	err      error
}

func (f *fakeStore) Snapshot() state.Snapshot { return f.snap }

func (f *fakeStore) Subscribe() (<-chan struct{}, func()) {
	return make(chan struct{}), func() {}
}

func (f *fakeStore) AddEntry(_ context.Context, fields handbook.EntryFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, fields)
	return f.err
}

func (f *fakeStore) UpdateEntry(_ context.Context, id string, fields handbook.EntryFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[string]handbook.EntryFields{}
	}
	f.updated[id] = fields
	return f.err
}

func (f *fakeStore) DeleteEntry(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeStore) AddCategory(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cats = append(f.cats, name)
	return f.err
}

func (f *fakeStore) Login(_ context.Context, email, _ string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, email)
	return f.loginOK
}

func (f *fakeStore) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return f.err
}

func testEntries() []handbook.Entry {
	return []handbook.Entry{
		{ID: "1", EntryFields: handbook.EntryFields{Category: "Disk", Message: "disk full", Description: "no space", Resolution: "free space"}},
		{ID: "2", EntryFields: handbook.EntryFields{Category: "Net", Message: "timeout", Description: "slow link", Resolution: "retry"}},
		{ID: "3", EntryFields: handbook.EntryFields{Category: "Disk", Message: "disk full", Description: "dup", Resolution: "other"}},
		{ID: "4", EntryFields: handbook.EntryFields{Category: "Net", Message: "dns failure", Description: "resolver down", Resolution: "check resolv.conf"}},
	}
}

func newTestModel(t *testing.T, admin bool) (Model, *fakeStore) {
	t.Helper()
	store := &fakeStore{snap: state.Snapshot{
		Entries:    testEntries(),
		Categories: []string{"Disk", "Net"},
		Loaded:     true,
	}}
	if admin {
		store.snap.User = &handbook.User{ID: "u1", Email: "admin@example.com"}
		store.snap.IsAdmin = true
	}
	m := New(Options{Store: store})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), store
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Msg) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	next, _ := m.Update(msg)
	return next.(Model), msg
}

func TestNewSelectsFirstMessage(t *testing.T) {
	m, _ := newTestModel(t, false)
	if m.browse.selected != "disk full" {
		t.Fatalf("selected = %q, want %q", m.browse.selected, "disk full")
	}
	if got := m.messages(); len(got) != 3 {
		t.Fatalf("messages = %v, want 3 distinct", got)
	}
}

func TestCategoryCycleFiltersMessages(t *testing.T) {
	m, _ := newTestModel(t, false)

	m, _ = press(m, "f")
	if m.browse.category != "Disk" {
		t.Fatalf("category = %q, want Disk", m.browse.category)
	}
	if got := m.messages(); len(got) != 1 || got[0] != "disk full" {
		t.Fatalf("messages = %v, want [disk full]", got)
	}

	m, _ = press(m, "f")
	if m.browse.category != "Net" || m.browse.selected != "timeout" {
		t.Fatalf("category/selected = %q/%q, want Net/timeout", m.browse.category, m.browse.selected)
	}

	m, _ = press(m, "f")
	if m.browse.category != "" {
		t.Fatalf("category = %q, want all", m.browse.category)
	}

	m, _ = press(m, "F")
	if m.browse.category != "Net" {
		t.Fatalf("category = %q after F, want Net", m.browse.category)
	}
}

func TestSelectedEntryIsFirstWithMessage(t *testing.T) {
	m, _ := newTestModel(t, false)
	entry, ok := m.selectedEntry()
	if !ok || entry.ID != "1" {
		t.Fatalf("selectedEntry = %+v, %v; want id 1", entry, ok)
	}
}

func TestNavigationAndReselectAfterRefresh(t *testing.T) {
	m, store := newTestModel(t, false)

	m, _ = press(m, "j", "j")
	if m.browse.selected != "dns failure" {
		t.Fatalf("selected = %q, want dns failure", m.browse.selected)
	}

	// Selected message disappears; the row is clamped.
	store.snap.Entries = testEntries()[:2]
	next, _ := m.Update(storeChangedMsg{})
	m = next.(Model)
	if m.browse.selected != "timeout" || m.browse.row != 1 {
		t.Fatalf("selected/row = %q/%d, want timeout/1", m.browse.selected, m.browse.row)
	}
}

func TestSearchFiltersAndEscClears(t *testing.T) {
	m, _ := newTestModel(t, false)

	m, _ = press(m, "/")
	if !m.searchInput.Focused() {
		t.Fatal("search input not focused")
	}
	m, _ = press(m, "dns", "enter")
	if m.searchInput.Focused() {
		t.Fatal("search input still focused after enter")
	}
	if got := m.messages(); len(got) != 1 || got[0] != "dns failure" {
		t.Fatalf("messages = %v, want [dns failure]", got)
	}

	m, _ = press(m, "esc")
	if m.browse.query != "" || len(m.messages()) != 3 {
		t.Fatalf("query = %q, messages = %v; want cleared", m.browse.query, m.messages())
	}
}

func TestAdminKeysRequireAdmin(t *testing.T) {
	m, _ := newTestModel(t, false)
	for _, k := range []string{"n", "e", "d", "c"} {
		next, _ := press(m, k)
		if next.modal != nil {
			t.Fatalf("key %q opened a modal for a non-admin", k)
		}
		if !strings.Contains(next.notice.text, "Admin only") {
			t.Fatalf("key %q notice = %q", k, next.notice.text)
		}
	}
}

func TestDeleteFlow(t *testing.T) {
	m, store := newTestModel(t, true)

	m, _ = press(m, "d")
	if _, ok := m.modal.(confirmModal); !ok {
		t.Fatalf("modal = %T, want confirmModal", m.modal)
	}

	m, cmd := press(m, "y")
	if m.modal != nil {
		t.Fatal("confirm modal still open")
	}
	m, msg := run(t, m, cmd)
	if req, ok := msg.(deleteRequestMsg); !ok || req.id != "1" {
		t.Fatalf("msg = %#v, want deleteRequestMsg{id: 1}", msg)
	}

	_, cmd = m.Update(msg)
	_, msg = run(t, m, cmd)
	if res, ok := msg.(opResultMsg); !ok || res.op != opDeleteEntry || res.err != nil {
		t.Fatalf("msg = %#v, want successful delete result", msg)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "1" {
		t.Fatalf("deleted = %v, want [1]", store.deleted)
	}
}

func TestDeleteCancel(t *testing.T) {
	m, store := newTestModel(t, true)
	m, _ = press(m, "d")
	m, cmd := press(m, "n")
	if m.modal != nil || cmd != nil {
		t.Fatalf("modal = %v, cmd set = %v; want closed without command", m.modal, cmd != nil)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("deleted = %v, want none", store.deleted)
	}
}

func TestEditPrefillsSelectedEntry(t *testing.T) {
	m, _ := newTestModel(t, true)
	m, _ = press(m, "e")
	form, ok := m.modal.(*formModal)
	if !ok {
		t.Fatalf("modal = %T, want *formModal", m.modal)
	}
	got := form.values()
	want := []string{"Disk", "disk full", "no space", "free space"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("values = %v, want %v", got, want)
		}
	}
}

func TestLoginKeyOpensModalOrLogsOut(t *testing.T) {
	m, _ := newTestModel(t, false)
	m, _ = press(m, "l")
	if _, ok := m.modal.(*formModal); !ok {
		t.Fatalf("modal = %T, want login form", m.modal)
	}

	admin, store := newTestModel(t, true)
	_, cmd := press(admin, "l")
	_, msg := run(t, admin, cmd)
	if res, ok := msg.(opResultMsg); !ok || res.op != opLogout {
		t.Fatalf("msg = %#v, want logout result", msg)
	}
	if store.logouts != 1 {
		t.Fatalf("logout calls = %d, want 1", store.logouts)
	}
}

func TestLoginResultNotice(t *testing.T) {
	m, _ := newTestModel(t, false)
	next, _ := m.Update(loginResultMsg{email: "a@b.c", ok: false})
	m = next.(Model)
	if m.notice.kind != noticeError {
		t.Fatalf("notice kind = %v, want error", m.notice.kind)
	}
	next, _ = m.Update(loginResultMsg{email: "a@b.c", ok: true})
	m = next.(Model)
	if m.notice.kind != noticeSuccess || !strings.Contains(m.notice.text, "a@b.c") {
		t.Fatalf("notice = %+v", m.notice)
	}
}

func TestOpResultMissingID(t *testing.T) {
	m, _ := newTestModel(t, true)
	next, _ := m.Update(opResultMsg{op: opUpdateEntry, err: state.ErrMissingID})
	m = next.(Model)
	if m.notice.text != "Saving entry failed: entry has no id" {
		t.Fatalf("notice = %q", m.notice.text)
	}
}

func TestNoticeClearsOnlyMatchingSeq(t *testing.T) {
	m, _ := newTestModel(t, false)
	next, _ := m.Update(opResultMsg{op: opCopy})
	m = next.(Model)
	seq := m.notice.seq

	next, _ = m.Update(clearNoticeMsg{seq: seq - 1})
	m = next.(Model)
	if m.notice.text == "" {
		t.Fatal("stale clear removed the notice")
	}
	next, _ = m.Update(clearNoticeMsg{seq: seq})
	m = next.(Model)
	if m.notice.text != "" {
		t.Fatalf("notice = %q, want cleared", m.notice.text)
	}
}

func TestCopyWritesResolution(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	m, _ := newTestModel(t, false)
	_, cmd := press(m, "y")
	_, msg := run(t, m, cmd)
	if res, ok := msg.(opResultMsg); !ok || res.err != nil {
		t.Fatalf("msg = %#v", msg)
	}
	if copied != "free space" {
		t.Fatalf("copied = %q, want %q", copied, "free space")
	}
}

func TestCopyFailureNotice(t *testing.T) {
	orig := writeClipboard
	writeClipboard = func(string) error { return errors.New("no clipboard\nutility") }
	t.Cleanup(func() { writeClipboard = orig })

	m, _ := newTestModel(t, false)
	_, cmd := press(m, "y")
	m, _ = run(t, m, cmd)
	if m.notice.text != "Copy to clipboard failed: no clipboard" {
		t.Fatalf("notice = %q", m.notice.text)
	}
}

func TestViewRendersHeaderAndDetail(t *testing.T) {
	m, _ := newTestModel(t, true)
	view := m.View()
	for _, want := range []string{"handbook", "admin@example.com", "ADMIN", "free space"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestDiagnosticsToggleAndLevelCycle(t *testing.T) {
	m, _ := newTestModel(t, false)
	m, cmd := press(m, "v")
	if m.currentView != ViewDiagnostics {
		t.Fatalf("view = %v, want diagnostics", m.currentView)
	}
	m, _ = run(t, m, cmd)
	if !m.diag.loaded {
		t.Fatal("diagnostics not marked loaded")
	}

	m, _ = press(m, "L")
	if got := levelLabel(m.diag.minLevel); got != "info+" {
		t.Fatalf("level = %q, want info+", got)
	}

	m, _ = press(m, "esc")
	if m.currentView != ViewBrowse {
		t.Fatalf("view = %v, want browse", m.currentView)
	}
}
