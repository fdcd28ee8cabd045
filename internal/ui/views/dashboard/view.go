package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"adsdash/internal/modules/metrics/dto"
	apperrors "adsdash/internal/platform/errors"
	"adsdash/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type DashboardPort interface {
	Start(ctx context.Context) dto.Ticket
	NeedsViewer(ctx context.Context) bool
	ResolveViewer(ctx context.Context) (dto.ViewOutput, error)
	SetDateRange(start, end string) dto.Ticket
	ToggleSort(column string) dto.Ticket
	SetPageSize(size int) (dto.Ticket, error)
	NextPage() (dto.Ticket, bool)
	PrevPage() (dto.Ticket, bool)
	Reload() dto.Ticket
	Execute(ctx context.Context, ticket dto.Ticket) dto.FetchResult
	View() dto.ViewOutput
	Export(path string) (dto.ExportOutput, error)
	Logout(ctx context.Context) error
}

// ─── messages ────────────────────────────────────────────────────────────────

type FetchedMsg struct {
	Result dto.FetchResult
}

type ViewerResolvedMsg struct {
	Err error
}

// SignedOutMsg asks the app to return to the login screen.
type SignedOutMsg struct {
	Reason string
}

type ExportedMsg struct {
	Out dto.ExportOutput
	Err error
}

// ─── model ───────────────────────────────────────────────────────────────────

const dateHint = "YYYY-MM-DD, empty for none"

type Model struct {
	port    DashboardPort
	table   table.Model
	spinner spinner.Model
	view    dto.ViewOutput
	col     int

	editing bool
	start   textinput.Model
	end     textinput.Model
	field   int

	notice string
	width  int
	height int
}

func New(port DashboardPort) Model {
	t := table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Surface1).
		BorderBottom(true).
		Foreground(theme.Sapphire).
		Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.Base).Background(theme.Lavender)
	t.SetStyles(styles)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	start := textinput.New()
	start.Prompt = "Start date  "
	start.Placeholder = dateHint
	end := textinput.New()
	end.Prompt = "End date    "
	end.Placeholder = dateHint

	m := Model{port: port, table: t, spinner: sp, start: start, end: end}
	m.sync()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Begin issues the first fetch, resolving the user alongside when it is not known yet.
func (m *Model) Begin() tea.Cmd {
	ctx := context.Background()
	ticket := m.port.Start(ctx)
	cmds := []tea.Cmd{m.spinner.Tick, m.fetchCmd(ticket)}
	if m.port.NeedsViewer(ctx) {
		cmds = append(cmds, m.resolveViewerCmd())
	}
	m.sync()
	return tea.Batch(cmds...)
}

// Editing reports whether the filter form has focus; global keys must yield while it does.
func (m Model) Editing() bool { return m.editing }

func (m Model) Snapshot() dto.ViewOutput { return m.view }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case FetchedMsg:
		if msg.Result.Stale {
			return m, nil
		}
		m.sync()
		if msg.Result.SignedOut {
			reason := apperrors.Message(msg.Result.Err)
			return m, func() tea.Msg { return SignedOutMsg{Reason: reason} }
		}
		return m, nil

	case ViewerResolvedMsg:
		m.sync()
		if msg.Err != nil && apperrors.IsAuth(msg.Err) {
			reason := apperrors.Message(msg.Err)
			return m, func() tea.Msg { return SignedOutMsg{Reason: reason} }
		}
		return m, nil

	case ExportedMsg:
		if msg.Err != nil {
			m.notice = "export failed: " + msg.Err.Error()
		} else {
			m.notice = fmt.Sprintf("exported %d rows to %s", msg.Out.Rows, msg.Out.Path)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.editing {
			return m.updateForm(msg)
		}
		switch msg.String() {
		case "left", "h":
			if m.col > 0 {
				m.col--
				m.refreshColumns()
			}
			return m, nil
		case "right", "l":
			if m.col < len(m.view.Columns)-1 {
				m.col++
				m.refreshColumns()
			}
			return m, nil
		case "enter", "s":
			if m.col < len(m.view.Columns) {
				cmd := m.Sort(m.view.Columns[m.col].Key)
				return m, cmd
			}
			return m, nil
		case "n", "pgdown":
			cmd := m.Next()
			return m, cmd
		case "p", "pgup":
			cmd := m.Prev()
			return m, cmd
		case "r":
			cmd := m.Reload()
			return m, cmd
		case "f":
			cmd := m.openForm()
			return m, cmd
		case "e":
			return m, m.ExportCmd("")
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var sections []string
	sections = append(sections, m.renderHeader())
	if m.view.Error != "" {
		sections = append(sections, theme.Banner.Render(m.view.Error))
	}
	if m.editing {
		sections = append(sections, m.renderForm())
	}
	if len(m.view.Rows) == 0 && !m.view.Loading {
		sections = append(sections, theme.Muted.Render("No rows for the current filter."))
	} else {
		sections = append(sections, m.table.View())
	}
	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// ─── actions ─────────────────────────────────────────────────────────────────
// Each action mutates the dashboard synchronously and returns the fetch to run.

func (m *Model) Filter(start, end string) tea.Cmd {
	ticket := m.port.SetDateRange(start, end)
	m.sync()
	return m.fetchCmd(ticket)
}

func (m *Model) Sort(column string) tea.Cmd {
	ticket := m.port.ToggleSort(column)
	m.sync()
	return m.fetchCmd(ticket)
}

func (m *Model) PageSize(size int) tea.Cmd {
	ticket, err := m.port.SetPageSize(size)
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	m.sync()
	return m.fetchCmd(ticket)
}

// Next and Prev are ignored while a fetch is outstanding or when there is no such page.
func (m *Model) Next() tea.Cmd {
	if m.view.Loading {
		return nil
	}
	ticket, ok := m.port.NextPage()
	if !ok {
		return nil
	}
	m.sync()
	return m.fetchCmd(ticket)
}

func (m *Model) Prev() tea.Cmd {
	if m.view.Loading {
		return nil
	}
	ticket, ok := m.port.PrevPage()
	if !ok {
		return nil
	}
	m.sync()
	return m.fetchCmd(ticket)
}

func (m *Model) Reload() tea.Cmd {
	ticket := m.port.Reload()
	m.sync()
	return m.fetchCmd(ticket)
}

func (m Model) ExportCmd(path string) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		out, err := port.Export(path)
		return ExportedMsg{Out: out, Err: err}
	}
}

// Logout destroys the session and reports the app should show the login screen.
func (m Model) LogoutCmd() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		if err := port.Logout(context.Background()); err != nil {
			return SignedOutMsg{Reason: "signed out, but clearing the stored token failed: " + err.Error()}
		}
		return SignedOutMsg{Reason: "Signed out"}
	}
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) fetchCmd(ticket dto.Ticket) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		return FetchedMsg{Result: port.Execute(context.Background(), ticket)}
	}
}

func (m Model) resolveViewerCmd() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		_, err := port.ResolveViewer(context.Background())
		return ViewerResolvedMsg{Err: err}
	}
}

func (m *Model) sync() {
	m.view = m.port.View()
	if m.col >= len(m.view.Columns) {
		m.col = len(m.view.Columns) - 1
	}
	if m.col < 0 {
		m.col = 0
	}
	// Rows go first: the table indexes every row by the current column count.
	m.table.SetRows(nil)
	m.refreshColumns()
	rows := make([]table.Row, len(m.view.Cells))
	for i, cells := range m.view.Cells {
		rows[i] = table.Row(cells)
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) refreshColumns() {
	cols := make([]table.Column, len(m.view.Columns))
	width := m.columnWidth(len(cols))
	for i, c := range m.view.Columns {
		title := c.Label
		if m.view.Query.SortBy == c.Key {
			if m.view.Query.SortDir == "desc" {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		if i == m.col {
			title = "[" + title + "]"
		}
		cols[i] = table.Column{Title: title, Width: max(width, lipgloss.Width(title))}
	}
	m.table.SetColumns(cols)
}

func (m Model) columnWidth(n int) int {
	if n == 0 {
		return 12
	}
	w := (m.width - 2*n) / n
	if w < 12 {
		w = 12
	}
	return w
}

func (m *Model) resize() {
	h := m.height - 6
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
	m.table.SetWidth(m.width)
	m.refreshColumns()
}

func (m Model) renderHeader() string {
	who := theme.Muted.Render("resolving user…")
	if m.view.HasViewer {
		who = theme.Title.Render(m.view.Viewer.DisplayName) + theme.Muted.Render(" ("+m.view.Viewer.Role+")")
	}
	var filter []string
	if q := m.view.Query; q.StartDate != "" || q.EndDate != "" {
		filter = append(filter, fmt.Sprintf("%s … %s", orDash(q.StartDate), orDash(q.EndDate)))
	}
	if !m.view.UpdatedAt.IsZero() {
		filter = append(filter, "updated "+m.view.UpdatedAt.Local().Format("15:04:05"))
	}
	if m.view.Loading {
		filter = append(filter, m.spinner.View()+" loading")
	}
	return who + "  " + theme.Muted.Render(strings.Join(filter, "  ·  "))
}

func (m Model) renderFooter() string {
	prev := theme.Muted.Render("‹ p prev")
	if m.view.CanPrev && !m.view.Loading {
		prev = theme.Hot.Render("‹ p prev")
	}
	next := theme.Muted.Render("n next ›")
	if m.view.CanNext && !m.view.Loading {
		next = theme.Hot.Render("n next ›")
	}
	line := prev + "  " + theme.Good.Render(m.view.Summary) + "  " + next
	if m.notice != "" {
		line += "  " + theme.Muted.Render(m.notice)
	}
	return line
}

func (m *Model) openForm() tea.Cmd {
	m.editing = true
	m.field = 0
	m.start.SetValue(m.view.Query.StartDate)
	m.end.SetValue(m.view.Query.EndDate)
	m.end.Blur()
	return m.start.Focus()
}

func (m Model) updateForm(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.start.Blur()
		m.end.Blur()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		if m.field == 0 {
			m.field = 1
			m.start.Blur()
			cmd := m.end.Focus()
			return m, cmd
		}
		m.field = 0
		m.end.Blur()
		cmd := m.start.Focus()
		return m, cmd
	case "enter":
		m.editing = false
		m.start.Blur()
		m.end.Blur()
		cmd := m.Filter(m.start.Value(), m.end.Value())
		return m, cmd
	}
	var cmd tea.Cmd
	if m.field == 0 {
		m.start, cmd = m.start.Update(msg)
	} else {
		m.end, cmd = m.end.Update(msg)
	}
	return m, cmd
}

func (m Model) renderForm() string {
	body := m.start.View() + "\n" + m.end.View() + "\n" +
		theme.Muted.Render("enter: apply  tab: switch  esc: cancel")
	return theme.Form.Render(body)
}

func orDash(s string) string {
	if s == "" {
		return "–"
	}
	return s
}
