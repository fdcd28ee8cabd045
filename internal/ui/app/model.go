package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	authdto "adsdash/internal/modules/auth/dto"
	metricsin "adsdash/internal/modules/metrics/port/in"
	apperrors "adsdash/internal/platform/errors"
	"adsdash/internal/ui/components"
	"adsdash/internal/ui/theme"
	dashboardview "adsdash/internal/ui/views/dashboard"
	loginview "adsdash/internal/ui/views/login"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type authPort interface {
	Login(ctx context.Context, email, password string) (authdto.SessionOutput, error)
	Restore(ctx context.Context) (authdto.SessionOutput, error)
}

type metricsPort interface {
	NewDashboard() metricsin.Dashboard
}

// ─── screens ─────────────────────────────────────────────────────────────────

type screenID int

const (
	screenRestoring screenID = iota
	screenLogin
	screenDashboard
)

// ─── async messages ──────────────────────────────────────────────────────────

type restoredMsg struct {
	out authdto.SessionOutput
	err error
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Column  key.Binding
	Sort    key.Binding
	Page    key.Binding
	Filter  key.Binding
	Reload  key.Binding
	Export  key.Binding
	Logout  key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Column:  key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "select column")),
		Sort:    key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("enter/s", "sort by column")),
		Page:    key.NewBinding(key.WithKeys("n", "p"), key.WithHelp("n/p", "next/prev page")),
		Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "date filter")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export csv")),
		Logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Column, k.Sort, k.Page},
		{k.Filter, k.Reload, k.Export},
		{k.Logout, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It guards the dashboard behind a session and owns the
// help overlay and the command palette.
type Model struct {
	apiURL string

	auth    authPort
	metrics metricsPort

	screen   screenID
	login    loginview.Model
	dash     dashboardview.Model
	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette
	status   string
	width    int
	height   int
}

func NewModel(apiURL string, auth authPort, metrics metricsPort) Model {
	return Model{
		apiURL:  apiURL,
		auth:    auth,
		metrics: metrics,
		screen:  screenRestoring,
		login:   loginview.New(auth),
		keys:    defaultKeys(),
		help:    help.New(),
		palette: components.NewPalette(paletteCommands...),
		status:  "restoring session…",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.login.Init(), m.restoreCmd())
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case restoredMsg:
		return m.onRestored(msg)

	case loginview.LoggedInMsg:
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		if msg.Err != nil {
			m.status = "sign in failed"
			return m, cmd
		}
		enter := m.enterDashboard("signed in as " + msg.Session.User.Email)
		return m, tea.Batch(cmd, enter)

	case dashboardview.SignedOutMsg:
		cmd := m.enterLogin(msg.Reason)
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.screen == screenDashboard && !m.dash.Editing() {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "?":
				m.showHelp = true
				return m, nil
			case ":":
				cmd := m.palette.Open()
				return m, cmd
			case "L":
				m.status = "signing out…"
				return m, m.dash.LogoutCmd()
			}
		}
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		m.login, cmd = m.login.Update(msg)
	case screenDashboard:
		m.dash, cmd = m.dash.Update(msg)
	}
	return m, cmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	titleBar := m.renderTitleBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(titleBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.screen == screenLogin:
		content = m.login.View()
	case m.screen == screenDashboard:
		content = m.dash.View()
	default:
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, theme.Muted.Render("Restoring session…"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleBar, content, statusBar)
}

func (m Model) renderTitleBar() string {
	bar := theme.Hot.Render(" adsdash ") + theme.Muted.Render(" "+m.apiURL)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("ctrl+c:quit")
	if m.screen == screenDashboard {
		right = theme.Muted.Render("?:help  :::palette  L:logout  q:quit")
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ───────────────────────────────────────────────────────

// paletteCommands lists what executePalette understands.
var paletteCommands = []components.Command{
	{Name: "filter", Args: "<start|-> <end|->", Help: "date range, - clears a bound"},
	{Name: "sort", Args: "<column>", Help: "toggle sort on a column"},
	{Name: "pagesize", Args: "<n>", Help: "rows per page"},
	{Name: "page:next", Help: "next page"},
	{Name: "page:prev", Help: "previous page"},
	{Name: "reload", Help: "fetch again from page 1"},
	{Name: "export", Args: "[path]", Help: "write the visible page as CSV"},
	{Name: "logout", Help: "forget the token"},
}

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	if m.screen != screenDashboard {
		m.status = "sign in first"
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "filter":
		if len(parts) != 3 {
			m.status = "usage: filter <start|-> <end|->"
			return m, nil
		}
		cmd := m.dash.Filter(dashArg(parts[1]), dashArg(parts[2]))
		m.status = "filter applied"
		return m, cmd

	case "sort":
		if len(parts) != 2 {
			m.status = "usage: sort <column>"
			return m, nil
		}
		cmd := m.dash.Sort(parts[1])
		m.status = "sorting by " + parts[1]
		return m, cmd

	case "pagesize":
		if len(parts) != 2 {
			m.status = "usage: pagesize <n>"
			return m, nil
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 {
			m.status = "page size must be a positive integer"
			return m, nil
		}
		cmd := m.dash.PageSize(n)
		m.status = fmt.Sprintf("page size %d", n)
		return m, cmd

	case "page:next":
		cmd := m.dash.Next()
		if cmd == nil {
			m.status = "no next page"
		}
		return m, cmd

	case "page:prev":
		cmd := m.dash.Prev()
		if cmd == nil {
			m.status = "no previous page"
		}
		return m, cmd

	case "reload":
		cmd := m.dash.Reload()
		return m, cmd

	case "export":
		path := ""
		if len(parts) >= 2 {
			path = strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
		}
		return m, m.dash.ExportCmd(path)

	case "logout":
		m.status = "signing out…"
		return m, m.dash.LogoutCmd()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) onRestored(msg restoredMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		cmd := m.enterDashboard("session restored")
		return m, cmd
	case errors.Is(msg.err, apperrors.ErrNoSession):
		cmd := m.enterLogin("")
		return m, cmd
	case apperrors.IsAuth(msg.err):
		cmd := m.enterLogin("Session expired: " + apperrors.Message(msg.err))
		return m, cmd
	case msg.out.Restored:
		// The token survived but the user could not be fetched; the dashboard retries.
		cmd := m.enterDashboard("backend unreachable: " + apperrors.Message(msg.err))
		return m, cmd
	}
	cmd := m.enterLogin(apperrors.Message(msg.err))
	return m, cmd
}

func (m *Model) enterDashboard(status string) tea.Cmd {
	m.screen = screenDashboard
	m.status = status
	m.dash = dashboardview.New(m.metrics.NewDashboard())
	m.propagateSize()
	return tea.Batch(m.dash.Init(), m.dash.Begin())
}

func (m *Model) enterLogin(notice string) tea.Cmd {
	m.screen = screenLogin
	m.showHelp = false
	m.status = "signed out"
	m.dash = dashboardview.Model{}
	m.login.SetNotice(notice)
	return m.login.Reset()
}

func (m *Model) propagateSize() {
	if m.width == 0 {
		return
	}
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.login, _ = m.login.Update(sz)
	if m.screen == screenDashboard {
		m.dash, _ = m.dash.Update(sz)
	}
}

func (m Model) restoreCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.auth.Restore(context.Background())
		return restoredMsg{out: out, err: err}
	}
}

// dashArg maps the palette's "-" placeholder to an absent value.
func dashArg(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
