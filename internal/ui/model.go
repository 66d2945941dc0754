package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/codecks-bot/internal/bot"
	"github.com/five82/codecks-bot/internal/logtail"
	"github.com/five82/codecks-bot/internal/prefs"
)

const (
	logPaneLines = 8
	logTailLines = 200
)

// StatusSource reports cache freshness for the header.
type StatusSource interface {
	Bootstrapped() bool
	LastUpdate() time.Time
}

// Options configures the console.
type Options struct {
	Context   context.Context
	Router    *bot.Router
	Status    StatusSource
	Refresh   func(context.Context) error // bound to the "refresh now" key; nil disables it
	Account   string
	PollTick  time.Duration
	ThemeName string // overrides the saved preference when set
	PrefsPath string // empty uses prefs.DefaultPath
	LogPath   string // log file shown in the log pane; empty disables it
}

// Model is the root Bubble Tea state of the console.
type Model struct {
	ctx       context.Context
	router    *bot.Router
	status    StatusSource
	refresh   func(context.Context) error
	account   string
	pollTick  time.Duration
	prefsPath string
	logPath   string

	theme    Theme
	keys     keyMap
	help     help.Model
	width    int
	height   int
	ready    bool
	showHelp bool

	// Current command and what it produced.
	current string
	history []string
	replies []bot.Reply
	buttons []bot.Button
	cursor  int

	viewport viewport.Model
	input    textinput.Model
	typing   bool

	lastUpdate   time.Time
	bootstrapped bool
	refreshing   bool
	notice       string

	showLogs bool
	logLines []string
}

// New creates the console model. The first screen is the deck list.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}

	input := textinput.New()
	input.Placeholder = "/cards Backlog"
	input.Prompt = ": "

	saved := prefs.Load(opts.PrefsPath)
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = saved.Theme
	}

	m := Model{
		ctx:       ctx,
		router:    opts.Router,
		status:    opts.Status,
		refresh:   opts.Refresh,
		account:   opts.Account,
		pollTick:  pollTick,
		prefsPath: opts.PrefsPath,
		logPath:   opts.LogPath,
		showLogs:  saved.ShowLogs && opts.LogPath != "",
		theme:     GetTheme(themeName),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		viewport:  viewport.New(0, 0),
		input:     input,
	}
	m.readStatus()
	m.run("/decks", true)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.showLogs {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.typing {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case refreshDoneMsg:
		m.refreshing = false
		if msg.err != nil {
			m.notice = "refresh failed: " + msg.err.Error()
		} else {
			m.notice = "refreshed"
		}
		m.readStatus()
		m.rerun()
		return m, nil

	case logLinesMsg:
		m.logLines = msg.lines
		return m, nil

	case prefsSavedMsg:
		if msg.err != nil {
			m.notice = "save prefs failed: " + msg.err.Error()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Back) {
			m.showHelp = false
		} else if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.refreshContent()
		return m, m.savePrefsCmd()
	case key.Matches(msg, m.keys.Logs):
		if m.logPath == "" {
			m.notice = "no log file in this mode"
			return m, nil
		}
		m.showLogs = !m.showLogs
		m.layout()
		cmds := []tea.Cmd{m.savePrefsCmd()}
		if m.showLogs {
			cmds = append(cmds, readLogsCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(len(m.buttons)-1, 0)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfPageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(m.buttons) {
			m.run(m.buttons[m.cursor].Data, true)
		}
	case key.Matches(msg, m.keys.Back):
		m.back()
	case key.Matches(msg, m.keys.Decks):
		m.run("/decks", true)
	case key.Matches(msg, m.keys.Upcoming):
		m.run("/upcoming", true)
	case key.Matches(msg, m.keys.Refresh):
		return m.startRefresh()
	case key.Matches(msg, m.keys.Command):
		m.typing = true
		m.input.SetValue("/")
		m.input.CursorEnd()
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		m.typing = false
		m.input.Blur()
		m.input.Reset()
		if text != "" {
			if !strings.HasPrefix(text, "/") {
				text = "/" + text
			}
			m.run(text, true)
		}
		return m, nil
	case tea.KeyEsc:
		m.typing = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	previous := m.lastUpdate
	m.readStatus()
	if !m.lastUpdate.Equal(previous) {
		m.rerun()
	}
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.showLogs {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) savePrefsCmd() tea.Cmd {
	path := m.prefsPath
	p := prefs.Prefs{Theme: m.theme.Name, ShowLogs: m.showLogs}
	return func() tea.Msg {
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}

func (m Model) startRefresh() (tea.Model, tea.Cmd) {
	if m.refresh == nil || m.refreshing {
		return m, nil
	}
	m.refreshing = true
	m.notice = "refreshing..."
	refresh, ctx := m.refresh, m.ctx
	return m, func() tea.Msg {
		return refreshDoneMsg{err: refresh(ctx)}
	}
}

// run sends text through the router and shows the result. Commands that
// produce nothing leave the current screen in place.
func (m *Model) run(text string, record bool) {
	if m.router == nil {
		return
	}
	replies := m.router.Handle(bot.Request{Text: text, Local: true})
	if len(replies) == 0 {
		m.notice = fmt.Sprintf("no reply for %q", text)
		return
	}
	if record && m.current != "" && m.current != text {
		m.history = append(m.history, m.current)
	}
	if m.current != text {
		m.cursor = 0
	}
	m.current = text
	m.replies = replies
	m.buttons = flattenButtons(replies)
	m.cursor = min(m.cursor, max(len(m.buttons)-1, 0))
	m.notice = ""
	m.refreshContent()
	m.viewport.GotoTop()
}

// rerun repeats the current command so the screen follows cache updates.
func (m *Model) rerun() {
	if m.current == "" || m.router == nil {
		return
	}
	replies := m.router.Handle(bot.Request{Text: m.current, Local: true})
	if len(replies) == 0 {
		return
	}
	m.replies = replies
	m.buttons = flattenButtons(replies)
	m.cursor = min(m.cursor, max(len(m.buttons)-1, 0))
	m.refreshContent()
}

func (m *Model) back() {
	if len(m.history) == 0 {
		return
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.run(prev, false)
}

func (m *Model) moveCursor(delta int) {
	if len(m.buttons) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.buttons)-1)
}

func (m *Model) readStatus() {
	if m.status == nil {
		return
	}
	m.lastUpdate = m.status.LastUpdate()
	m.bootstrapped = m.status.Bootstrapped()
}

func (m *Model) layout() {
	_, textWidth, bodyHeight := m.paneSizes()
	m.viewport.Width = textWidth
	m.viewport.Height = bodyHeight
	m.help.Width = m.width
	m.refreshContent()
}

func (m *Model) refreshContent() {
	width := m.viewport.Width
	if width <= 0 {
		width = 40
	}
	content := renderReplies(m.replies, m.theme.Styles(), width)
	m.viewport.SetContent(lipgloss.NewStyle().Width(width).Render(content))
}

// paneSizes splits the screen into the button list and the text pane, inside
// their borders.
func (m Model) paneSizes() (listWidth, textWidth, bodyHeight int) {
	bodyHeight = max(m.height-4, 1) // header, footer, two border rows
	if m.showLogs {
		bodyHeight = max(bodyHeight-logPaneLines-2, 1)
	}
	listWidth = max(m.width/3-2, 10)
	textWidth = max(m.width-listWidth-4, 10)
	return listWidth, textWidth, bodyHeight
}

func flattenButtons(replies []bot.Reply) []bot.Button {
	var out []bot.Button
	for _, reply := range replies {
		for _, row := range reply.Buttons {
			out = append(out, row...)
		}
	}
	return out
}

// Messages

type tickMsg time.Time

type refreshDoneMsg struct{ err error }

type logLinesMsg struct{ lines []string }

type prefsSavedMsg struct{ err error }

// Commands

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		if err != nil {
			lines = []string{err.Error()}
		}
		return logLinesMsg{lines: lines}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
