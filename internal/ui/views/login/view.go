package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	authdto "adsdash/internal/modules/auth/dto"
	apperrors "adsdash/internal/platform/errors"
	"adsdash/internal/ui/theme"
)

type LoginPort interface {
	Login(ctx context.Context, email, password string) (authdto.SessionOutput, error)
}

// LoggedInMsg reports the outcome of a submitted form.
type LoggedInMsg struct {
	Session authdto.SessionOutput
	Err     error
}

const (
	fieldEmail = iota
	fieldPassword
)

type Model struct {
	port       LoginPort
	email      textinput.Model
	password   textinput.Model
	focus      int
	spinner    spinner.Model
	submitting bool
	err        string
	notice     string
	width      int
	height     int
}

func New(port LoginPort) Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Prompt = "Email     "
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 256
	password.Prompt = "Password  "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{port: port, email: email, password: password, spinner: sp}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetNotice shows an informational line above the form, e.g. why the user was signed out.
func (m *Model) SetNotice(notice string) {
	m.notice = notice
}

// Reset clears the password and any error; the email is kept for convenience.
func (m *Model) Reset() tea.Cmd {
	m.password.SetValue("")
	m.err = ""
	m.submitting = false
	m.focus = fieldEmail
	m.password.Blur()
	return m.email.Focus()
}

func (m Model) Submitting() bool { return m.submitting }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case LoggedInMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = apperrors.Message(msg.Err)
			m.password.SetValue("")
			m.focus = fieldPassword
			m.email.Blur()
			cmd := m.password.Focus()
			return m, cmd
		}
		m.err = ""
		m.notice = ""
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			cmd := m.toggleFocus()
			return m, cmd
		case "enter":
			if m.focus == fieldEmail {
				cmd := m.toggleFocus()
				return m, cmd
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focus == fieldEmail {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Ads metrics") + "\n")
	sb.WriteString(theme.Muted.Render("Sign in to continue") + "\n\n")
	if m.notice != "" {
		sb.WriteString(theme.Warn.Render(m.notice) + "\n\n")
	}
	if m.err != "" {
		sb.WriteString(theme.Banner.Render(m.err) + "\n\n")
	}
	sb.WriteString(m.email.View() + "\n")
	sb.WriteString(m.password.View() + "\n\n")
	if m.submitting {
		sb.WriteString(m.spinner.View() + " Signing in…")
	} else {
		sb.WriteString(theme.Muted.Render("enter: sign in  tab: next field  ctrl+c: quit"))
	}
	form := theme.Form.Width(56).Render(sb.String())
	if m.width == 0 || m.height == 0 {
		return form
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == fieldEmail {
		m.focus = fieldPassword
		m.email.Blur()
		return m.password.Focus()
	}
	m.focus = fieldEmail
	m.password.Blur()
	return m.email.Focus()
}

func (m Model) submit() (Model, tea.Cmd) {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	if email == "" || password == "" {
		m.err = "Email and password are required"
		return m, nil
	}
	m.submitting = true
	m.err = ""
	return m, tea.Batch(m.spinner.Tick, m.loginCmd(email, password))
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		out, err := port.Login(context.Background(), email, password)
		return LoggedInMsg{Session: out, Err: err}
	}
}
