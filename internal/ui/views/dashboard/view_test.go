package dashboard

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"adsdash/internal/modules/metrics/dto"
	apperrors "adsdash/internal/platform/errors"
)

type fakeDashboard struct {
	view      dto.ViewOutput
	seq       uint64
	sorted    []string
	filtered  [2]string
	nextOK    bool
	result    dto.FetchResult
	logoutErr error
	loggedOut bool
	// known is adopted on Start, like a session that already resolved the user.
	known *dto.ViewerOutput
	calls []string
}

func (f *fakeDashboard) issue() dto.Ticket {
	f.seq++
	f.view.Loading = true
	return dto.Ticket{Seq: f.seq}
}

func (f *fakeDashboard) Start(context.Context) dto.Ticket {
	f.calls = append(f.calls, "start")
	if f.known != nil {
		f.view.Viewer, f.view.HasViewer = *f.known, true
	}
	return f.issue()
}
func (f *fakeDashboard) NeedsViewer(context.Context) bool {
	f.calls = append(f.calls, "needs-viewer")
	return !f.view.HasViewer
}
func (f *fakeDashboard) ResolveViewer(context.Context) (dto.ViewOutput, error) {
	return f.view, nil
}
func (f *fakeDashboard) SetDateRange(start, end string) dto.Ticket {
	f.filtered = [2]string{start, end}
	f.view.Query.StartDate, f.view.Query.EndDate = start, end
	return f.issue()
}
func (f *fakeDashboard) ToggleSort(column string) dto.Ticket {
	f.sorted = append(f.sorted, column)
	f.view.Query.SortBy = column
	return f.issue()
}
func (f *fakeDashboard) SetPageSize(size int) (dto.Ticket, error) {
	if size < 1 {
		return dto.Ticket{}, apperrors.ErrInvalidInput
	}
	return f.issue(), nil
}
func (f *fakeDashboard) NextPage() (dto.Ticket, bool) {
	if !f.nextOK {
		return dto.Ticket{}, false
	}
	return f.issue(), true
}
func (f *fakeDashboard) PrevPage() (dto.Ticket, bool) { return dto.Ticket{}, false }
func (f *fakeDashboard) Reload() dto.Ticket           { return f.issue() }
func (f *fakeDashboard) Execute(_ context.Context, t dto.Ticket) dto.FetchResult {
	f.view.Loading = false
	res := f.result
	res.Seq = t.Seq
	return res
}
func (f *fakeDashboard) View() dto.ViewOutput { return f.view }
func (f *fakeDashboard) Export(path string) (dto.ExportOutput, error) {
	return dto.ExportOutput{Path: "metrics.csv", Rows: len(f.view.Rows)}, nil
}
func (f *fakeDashboard) Logout(context.Context) error {
	f.loggedOut = true
	return f.logoutErr
}

func viewerPage() dto.ViewOutput {
	return dto.ViewOutput{
		Columns: []dto.ColumnOutput{
			{Key: "account_id", Label: "Account"},
			{Key: "date", Label: "Date"},
			{Key: "impressions", Label: "Impressions"},
		},
		Rows:      []dto.RowOutput{{AccountID: "acc-1"}, {AccountID: "acc-2"}},
		Cells:     [][]string{{"acc-1", "2024-01-01", "1000"}, {"acc-2", "2024-01-02", "1010"}},
		Page:      1,
		PageSize:  100,
		Total:     2,
		Summary:   "Page 1 — 2 rows",
		HasViewer: true,
		Viewer:    dto.ViewerOutput{FullName: "Vera Viewer", DisplayName: "Vera Viewer", Role: "viewer"},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBeginRendersHeaderAndSummary(t *testing.T) {
	t.Parallel()
	port := &fakeDashboard{view: viewerPage()}
	m := New(port)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	cmd := m.Begin()
	if cmd == nil || !m.Snapshot().Loading {
		t.Fatalf("begin must issue a fetch and show loading")
	}
	m, _ = m.Update(FetchedMsg{Result: port.Execute(context.Background(), dto.Ticket{Seq: port.seq})})
	out := m.View()
	for _, want := range []string{"Vera Viewer", "(viewer)", "Page 1 — 2 rows", "acc-2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestBeginChecksViewerAfterStart(t *testing.T) {
	t.Parallel()
	page := viewerPage()
	page.HasViewer, page.Viewer = false, dto.ViewerOutput{}
	port := &fakeDashboard{view: page, known: &dto.ViewerOutput{Email: "ana@example.com", DisplayName: "ana@example.com", Role: "admin"}}
	m := New(port)
	m.Begin()
	if len(port.calls) != 2 || port.calls[0] != "start" || port.calls[1] != "needs-viewer" {
		t.Fatalf("unexpected call order %v", port.calls)
	}
	if !strings.Contains(m.View(), "ana@example.com") {
		t.Fatalf("viewer known after start must show in the header")
	}
}

func TestSelectedColumnSortsOnEnter(t *testing.T) {
	t.Parallel()
	port := &fakeDashboard{view: viewerPage()}
	m := New(port)
	m, _ = m.Update(key("right"))
	m, _ = m.Update(key("right"))
	m, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatalf("sort must issue a fetch")
	}
	m, _ = m.Update(key("s"))
	if len(port.sorted) != 2 || port.sorted[0] != "impressions" || port.sorted[1] != "impressions" {
		t.Fatalf("unexpected sort calls %v", port.sorted)
	}
	if !strings.Contains(m.View(), "Impressions ▲") {
		t.Fatalf("sort indicator missing")
	}
}

func TestNextIsIgnoredWhenDisabledOrLoading(t *testing.T) {
	t.Parallel()
	port := &fakeDashboard{view: viewerPage()}
	m := New(port)
	if _, cmd := m.Update(key("n")); cmd != nil {
		t.Fatalf("next must be a no-op when disabled")
	}
	port.nextOK = true
	port.view.Loading = true
	m = New(port)
	if _, cmd := m.Update(key("n")); cmd != nil {
		t.Fatalf("next must be ignored while loading")
	}
	port.view.Loading = false
	m = New(port)
	if _, cmd := m.Update(key("n")); cmd == nil {
		t.Fatalf("next should fetch when enabled")
	}
}

func TestFilterFormAppliesBothDates(t *testing.T) {
	t.Parallel()
	port := &fakeDashboard{view: viewerPage()}
	m := New(port)
	m, _ = m.Update(key("f"))
	if !m.Editing() {
		t.Fatalf("f must open the filter form")
	}
	m, _ = m.Update(key("2024-01-01"))
	m, _ = m.Update(key("tab"))
	m, _ = m.Update(key("2024-01-31"))
	m, cmd := m.Update(key("enter"))
	if m.Editing() || cmd == nil {
		t.Fatalf("enter must apply and close the form")
	}
	if port.filtered != [2]string{"2024-01-01", "2024-01-31"} {
		t.Fatalf("unexpected filter %v", port.filtered)
	}
	m, _ = m.Update(key("f"))
	m, _ = m.Update(key("esc"))
	if m.Editing() {
		t.Fatalf("esc must close the form")
	}
}

func TestFilterFormForwardsLongValuesVerbatim(t *testing.T) {
	t.Parallel()
	port := &fakeDashboard{view: viewerPage()}
	m := New(port)
	m, _ = m.Update(key("f"))
	m, _ = m.Update(key("2024-01-01T00:00:00"))
	m, _ = m.Update(key("tab"))
	m, _ = m.Update(key("last week please"))
	m, _ = m.Update(key("enter"))
	if port.filtered != [2]string{"2024-01-01T00:00:00", "last week please"} {
		t.Fatalf("dates must reach the backend untouched, got %v", port.filtered)
	}
}

func TestErrorBannerAndSignedOut(t *testing.T) {
	t.Parallel()
	port := &fakeDashboard{view: viewerPage()}
	m := New(port)
	port.view.Error = "request timed out"
	m, _ = m.Update(FetchedMsg{Result: dto.FetchResult{Err: &apperrors.RequestError{Message: "request timed out"}}})
	out := m.View()
	if !strings.Contains(out, "request timed out") || !strings.Contains(out, "acc-1") {
		t.Fatalf("error must show above the kept rows:\n%s", out)
	}

	_, cmd := m.Update(FetchedMsg{Result: dto.FetchResult{SignedOut: true, Err: &apperrors.AuthError{Message: "Could not validate credentials"}}})
	if cmd == nil {
		t.Fatalf("expected sign-out command")
	}
	msg, ok := cmd().(SignedOutMsg)
	if !ok || msg.Reason != "Could not validate credentials" {
		t.Fatalf("unexpected message %#v", msg)
	}
}

func TestStaleFetchIsIgnored(t *testing.T) {
	t.Parallel()
	port := &fakeDashboard{view: viewerPage()}
	m := New(port)
	port.view.Total = 99
	m, cmd := m.Update(FetchedMsg{Result: dto.FetchResult{Stale: true}})
	if cmd != nil || m.Snapshot().Total != 2 {
		t.Fatalf("stale results must not resync the view")
	}
}

func TestExportAndLogoutCommands(t *testing.T) {
	t.Parallel()
	port := &fakeDashboard{view: viewerPage()}
	m := New(port)
	_, cmd := m.Update(key("e"))
	exported, ok := cmd().(ExportedMsg)
	if !ok || exported.Out.Rows != 2 {
		t.Fatalf("unexpected export %#v", exported)
	}
	m, _ = m.Update(exported)
	if !strings.Contains(m.View(), "exported 2 rows to metrics.csv") {
		t.Fatalf("export notice missing")
	}
	out, ok := m.LogoutCmd()().(SignedOutMsg)
	if !ok || !port.loggedOut || out.Reason != "Signed out" {
		t.Fatalf("unexpected logout %#v", out)
	}
}
