package ui

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/handbook/internal/handbook"
	"github.com/five82/handbook/internal/logtail"
	"github.com/five82/handbook/internal/state"
)

const (
	noticeTTL       = 4 * time.Second
	diagnosticLines = 500
)

// Operation names shown in notices. They match the op attribute in the log.
const (
	opAddEntry    = "add_entry"
	opUpdateEntry = "update_entry"
	opDeleteEntry = "delete_entry"
	opAddCategory = "add_category"
	opLogout      = "logout"
	opCopy        = "copy"
)

var opLabels = map[string][2]string{
	opAddEntry:    {"Entry added", "Adding entry failed"},
	opUpdateEntry: {"Entry saved", "Saving entry failed"},
	opDeleteEntry: {"Entry deleted", "Deleting entry failed"},
	opAddCategory: {"Category added", "Adding category failed"},
	opLogout:      {"Signed out", "Sign-out failed"},
	opCopy:        {"Resolution copied to clipboard", "Copy to clipboard failed"},
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// Messages

type storeChangedMsg struct {
	wait bool // re-arm the change listener
}

type opResultMsg struct {
	op  string
	err error
}

type loginResultMsg struct {
	email string
	ok    bool
}

type clearNoticeMsg struct {
	seq int
}

type logLinesMsg struct {
	lines []string
	err   error
}

type loginRequestMsg struct {
	email    string
	password string
}

type addCategoryRequestMsg struct {
	name string
}

type saveEntryRequestMsg struct {
	id     string // empty for a new entry
	fields handbook.EntryFields
}

type deleteRequestMsg struct {
	id string
}

// Commands

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{wait: true}
	}
}

func snapshotCmd() tea.Cmd {
	return func() tea.Msg {
		return storeChangedMsg{}
	}
}

func (m Model) opCmd(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opResultMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return loginResultMsg{email: email, ok: store.Login(ctx, email, password)}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	return m.opCmd(opLogout, m.store.Logout)
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{op: opCopy, err: writeClipboard(text)}
	}
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, diagnosticLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

// Notices

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeSuccess
	noticeError
)

type notice struct {
	kind noticeKind
	text string
	seq  int
}

// setNotice shows text in the header and schedules its removal.
func (m *Model) setNotice(kind noticeKind, text string) tea.Cmd {
	seq := m.notice.seq + 1
	m.notice = notice{kind: kind, text: text, seq: seq}
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m Model) handleOpResult(msg opResultMsg) (tea.Model, tea.Cmd) {
	labels, ok := opLabels[msg.op]
	if !ok {
		labels = [2]string{msg.op + " done", msg.op + " failed"}
	}
	if msg.err == nil {
		return m, m.setNotice(noticeSuccess, labels[0])
	}

	text := labels[1]
	if errors.Is(msg.err, state.ErrMissingID) {
		text += ": entry has no id"
	} else {
		text += ": " + firstLine(msg.err.Error())
	}
	return m, m.setNotice(noticeError, text)
}
