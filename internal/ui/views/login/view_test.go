package login

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	authdto "adsdash/internal/modules/auth/dto"
	apperrors "adsdash/internal/platform/errors"
)

type fakeLogin struct {
	email, password string
	err             error
}

func (f *fakeLogin) Login(_ context.Context, email, password string) (authdto.SessionOutput, error) {
	f.email, f.password = email, password
	if f.err != nil {
		return authdto.SessionOutput{}, f.err
	}
	return authdto.SessionOutput{HasUser: true, User: authdto.UserOutput{Email: email}}, nil
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestSubmitRequiresBothFields(t *testing.T) {
	t.Parallel()
	m := New(&fakeLogin{})
	m = typeText(m, "ana@example.com")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.Submitting() {
		t.Fatalf("empty password must not submit")
	}
	if !strings.Contains(m.View(), "Email and password are required") {
		t.Fatalf("expected validation banner")
	}
}

func TestSubmitCallsPortAndReportsFailure(t *testing.T) {
	t.Parallel()
	port := &fakeLogin{err: &apperrors.AuthError{Message: "Incorrect email or password"}}
	m := New(port)
	m = typeText(m, " ana@example.com ")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(m, "pw")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Submitting() || cmd == nil {
		t.Fatalf("expected submission")
	}
	res := m.loginCmd("ana@example.com", "pw")()
	if port.email != "ana@example.com" || port.password != "pw" {
		t.Fatalf("unexpected credentials %q/%q", port.email, port.password)
	}
	m, _ = m.Update(res)
	if m.Submitting() {
		t.Fatalf("submission must end")
	}
	if !strings.Contains(m.View(), "Incorrect email or password") {
		t.Fatalf("expected backend message in view")
	}
}

func TestLoginFailureWithoutDetailFallsBack(t *testing.T) {
	t.Parallel()
	m := New(&fakeLogin{})
	m, _ = m.Update(LoggedInMsg{Err: &apperrors.AuthError{}})
	if !strings.Contains(m.View(), apperrors.LoginFailed) {
		t.Fatalf("expected fallback message")
	}
	m, _ = m.Update(LoggedInMsg{Err: errors.New("boom")})
	if !strings.Contains(m.View(), "boom") {
		t.Fatalf("expected raw error text")
	}
}
