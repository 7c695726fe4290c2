package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/handbook/internal/handbook"
	"github.com/five82/handbook/internal/prefs"
	"github.com/five82/handbook/internal/state"
	"github.com/five82/handbook/internal/validation"
)

// Store is the part of the state container the UI drives.
type Store interface {
	Snapshot() state.Snapshot
	Subscribe() (<-chan struct{}, func())
	AddEntry(ctx context.Context, fields handbook.EntryFields) error
	UpdateEntry(ctx context.Context, id string, fields handbook.EntryFields) error
	DeleteEntry(ctx context.Context, id string) error
	AddCategory(ctx context.Context, name string) error
	Login(ctx context.Context, email, password string) bool
	Logout(ctx context.Context) error
}

var _ Store = (*state.Store)(nil)

// View represents the active screen.
type View int

const (
	ViewBrowse View = iota
	ViewDiagnostics
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     Store
	ThemeName string
	Category  string // initial category filter
	PrefsPath string
	LogPath   string
	Logger    *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	store     Store
	keys      keyMap
	validator *validation.Validator
	log       *slog.Logger
	prefsPath string
	logPath   string

	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	snapshot state.Snapshot
	changes  <-chan struct{}
	cancel   func()

	browse         browseState
	searchInput    textinput.Model
	detailViewport viewport.Model

	diag diagState

	modal    Modal
	showHelp bool
	notice   notice
}

// New creates the root model and subscribes to store changes.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	search := textinput.New()
	search.Placeholder = "Search messages..."
	search.Prompt = "/"
	search.CharLimit = 100

	m := Model{
		ctx:         ctx,
		store:       opts.Store,
		keys:        DefaultKeyMap(),
		validator:   validation.New(),
		log:         logger.With("component", "ui"),
		prefsPath:   opts.PrefsPath,
		logPath:     opts.LogPath,
		theme:       GetTheme(opts.ThemeName),
		currentView: ViewBrowse,
		browse:      browseState{category: opts.Category},
		searchInput: search,
		diag:        newDiagState(),
		cancel:      func() {},
	}
	if m.store != nil {
		m.changes, m.cancel = m.store.Subscribe()
		m.snapshot = m.store.Snapshot()
	}
	m.reselect()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	return tea.Batch(waitForChange(m.changes), snapshotCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case storeChangedMsg:
		if m.store != nil {
			m.snapshot = m.store.Snapshot()
		}
		m.reselect()
		m.updateDetailViewport()
		if msg.wait {
			return m, waitForChange(m.changes)
		}
		return m, nil

	case opResultMsg:
		return m.handleOpResult(msg)

	case loginResultMsg:
		if msg.ok {
			return m, m.setNotice(noticeSuccess, "Signed in as "+msg.email)
		}
		return m, m.setNotice(noticeError, "Login failed; check email and password")

	case clearNoticeMsg:
		if msg.seq == m.notice.seq {
			m.notice = notice{seq: m.notice.seq}
		}
		return m, nil

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil

	// Requests emitted by modals.
	case loginRequestMsg:
		return m, m.loginCmd(msg.email, msg.password)
	case addCategoryRequestMsg:
		return m, m.opCmd(opAddCategory, func(ctx context.Context) error {
			return m.store.AddCategory(ctx, msg.name)
		})
	case saveEntryRequestMsg:
		if msg.id == "" {
			return m, m.opCmd(opAddEntry, func(ctx context.Context) error {
				return m.store.AddEntry(ctx, msg.fields)
			})
		}
		return m, m.opCmd(opUpdateEntry, func(ctx context.Context) error {
			return m.store.UpdateEntry(ctx, msg.id, msg.fields)
		})
	case deleteRequestMsg:
		return m, m.opCmd(opDeleteEntry, func(ctx context.Context) error {
			return m.store.DeleteEntry(ctx, msg.id)
		})
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.searchInput.Focused() {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	switch m.currentView {
	case ViewDiagnostics:
		b.WriteString(m.renderDiagnostics())
	default:
		b.WriteString(m.renderBrowse())
	}
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.searchInput.Focused() {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.updateDetailViewport()
		return m, nil

	case key.Matches(msg, m.keys.Diagnostics):
		if m.currentView == ViewDiagnostics {
			m.currentView = ViewBrowse
			return m, nil
		}
		m.currentView = ViewDiagnostics
		return m, readLogCmd(m.logPath)

	case key.Matches(msg, m.keys.Login):
		if m.snapshot.User != nil {
			return m, m.logoutCmd()
		}
		m.modal = newLoginModal(m.validator)
		return m, textinput.Blink
	}

	if m.currentView == ViewDiagnostics {
		return m.handleDiagnosticsKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		m.modal = nil
	} else {
		m.modal = next
	}
	return m, cmd
}

func (m *Model) resize() {
	w, h := m.detailSize()
	if m.detailViewport.Width == 0 {
		m.detailViewport = viewport.New(w, h)
	}
	m.detailViewport.Width = w
	m.detailViewport.Height = h
	m.updateDetailViewport()

	m.diag.viewport.Width = m.width - 2
	m.diag.viewport.Height = max(m.height-4, 1)
	m.updateDiagViewport()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, Category: m.browse.category}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.Warn("save prefs failed", "error", err)
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
