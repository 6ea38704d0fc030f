package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/scoop/internal/config"
	"github.com/five82/scoop/internal/flavor"
	"github.com/five82/scoop/internal/prefs"
	"github.com/five82/scoop/internal/state"
)

// Synchronizer is the collection state the UI reads and drives.
type Synchronizer interface {
	State() state.State
	Load(ctx context.Context) ([]flavor.Item, error)
	Add(ctx context.Context, rawName string) (flavor.Item, error)
	Remove(ctx context.Context, id string) error
	SignIn(ctx context.Context, identity string) ([]flavor.Item, error)
	SignOut()
}

// Options configures the UI.
type Options struct {
	Context      context.Context
	Sync         Synchronizer
	Config       *config.Config
	Logger       zerolog.Logger
	Tick         time.Duration
	ThemeName    string
	LastIdentity string // prefills the email field
	AutoIdentity string // signs in on start when set
	PrefsPath    string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx          context.Context
	sync         Synchronizer
	config       *config.Config
	log          zerolog.Logger
	prefsPath    string
	tick         time.Duration
	autoIdentity string
	keys         keyMap

	// UI state
	theme  Theme
	width  int
	height int
	ready  bool

	// Data state
	state       state.State
	selectedRow int

	// Overlays
	auth     authForm
	modal    Modal
	notice   *state.Notice
	showHelp bool
	spinner  spinner.Model

	// Log pane
	showLogs    bool
	logViewport viewport.Model
	logLines    []string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:          ctx,
		sync:         opts.Sync,
		config:       opts.Config,
		log:          opts.Logger.With().Str("component", "ui").Logger(),
		prefsPath:    prefsPath,
		tick:         tick,
		autoIdentity: opts.AutoIdentity,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(themeName),
		auth:         newAuthForm(opts.LastIdentity),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	if m.sync != nil {
		m.state = m.sync.State()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.tick),
		m.spinner.Tick,
		m.auth.focusCmd(),
	}
	if m.autoIdentity != "" && m.sync != nil {
		cmds = append(cmds, signInCmd(m.ctx, m.sync, m.autoIdentity))
	}
	return tea.Batch(cmds...)
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
		m.resizeLogViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m.handleTick()

	case signedInMsg:
		m.refreshState()
		if msg.err == nil {
			m.auth.reset(msg.identity)
			m.selectedRow = 0
			m.savePrefs()
		}
		m.report(msg.err)
		return m, nil

	case loadedMsg:
		m.refreshState()
		m.report(msg.err)
		return m, nil

	case addRequestMsg:
		if m.state.Busy.Mutating || m.sync == nil {
			return m, nil
		}
		m.state.Busy.Mutating = true
		return m, addCmd(m.ctx, m.sync, msg.name)

	case addedMsg:
		m.refreshState()
		if msg.err == nil {
			if _, ok := m.modal.(*addModal); ok {
				m.modal = nil
			}
			m.selectRow(msg.item.ID)
		}
		m.report(msg.err)
		return m, nil

	case removeRequestMsg:
		if m.state.Busy.Mutating || m.sync == nil {
			return m, nil
		}
		m.state.Busy.Mutating = true
		return m, removeCmd(m.ctx, m.sync, msg.id)

	case removedMsg:
		m.refreshState()
		m.clampSelection()
		m.report(msg.err)
		return m, nil

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}
	if !m.state.SignedIn() {
		var cmd tea.Cmd
		m.auth, cmd = m.auth.update(msg, m.keys)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.notice != nil {
		return m.renderNotice()
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

// handleKey routes keyboard input to the topmost layer.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.notice != nil {
		switch msg.String() {
		case "enter", "esc", " ":
			m.notice = nil
		}
		return m, nil
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}

	if !m.state.SignedIn() {
		return m.handleAuthKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	modal, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		m.modal = nil
	} else {
		m.modal = modal
	}
	return m, cmd
}

// handleAuthKey processes input on the signed-out screen.
func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.Busy.Loading {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.SwitchMode):
		m.auth.toggleMode()
		return m, m.auth.focusCmd()
	case key.Matches(msg, m.keys.Escape):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Confirm) && m.auth.onLastField():
		identity, err := m.auth.submit()
		if err != nil || identity == "" {
			return m, m.auth.focusCmd()
		}
		return m, signInCmd(m.ctx, m.sync, identity)
	}

	var cmd tea.Cmd
	m.auth, cmd = m.auth.update(msg, m.keys)
	return m, cmd
}

// handleListKey processes input on the collection screen.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	busy := m.state.Busy
	items := m.state.Items

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()

	case key.Matches(msg, m.keys.ToggleLogs):
		m.showLogs = !m.showLogs
		m.resizeLogViewport()
		if m.showLogs {
			return m, m.readLogsCmd()
		}

	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < len(items)-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		if len(items) > 0 {
			m.selectedRow = len(items) - 1
		}

	case key.Matches(msg, m.keys.Refresh):
		if busy.Loading {
			return m, nil
		}
		m.state.Busy.Loading = true
		return m, loadCmd(m.ctx, m.sync)

	case key.Matches(msg, m.keys.Add):
		if busy.Mutating {
			return m, nil
		}
		modal := newAddModal()
		m.modal = modal
		return m, modal.focusCmd()

	case key.Matches(msg, m.keys.Delete):
		if busy.Mutating || len(items) == 0 {
			return m, nil
		}
		m.clampSelection()
		m.modal = newConfirmModal(items[m.selectedRow])

	case key.Matches(msg, m.keys.SignOut):
		m.sync.SignOut()
		m.refreshState()
		m.selectedRow = 0
		return m, m.auth.focusCmd()
	}

	return m, nil
}

// handleTick re-reads the synchronizer and schedules the next tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.refreshState()
	m.clampSelection()

	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.showLogs {
		cmds = append(cmds, m.readLogsCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) refreshState() {
	if m.sync != nil {
		m.state = m.sync.State()
	}
}

// report turns an operation error into an on-screen notice. Busy and stale
// rejections stay silent.
func (m *Model) report(err error) {
	if notice, ok := state.Describe(err); ok {
		m.notice = &notice
	}
}

func (m *Model) savePrefs() {
	p := prefs.Prefs{Theme: m.theme.Name, LastIdentity: m.state.Identity}
	if p.LastIdentity == "" {
		p.LastIdentity = m.auth.email.Value()
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.Warn().Err(err).Msg("save prefs")
	}
}

func (m *Model) selectRow(id string) {
	for i, item := range m.state.Items {
		if item.ID == id {
			m.selectedRow = i
			return
		}
	}
	m.clampSelection()
}

func (m *Model) clampSelection() {
	switch n := len(m.state.Items); {
	case n == 0:
		m.selectedRow = 0
	case m.selectedRow >= n:
		m.selectedRow = n - 1
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
