package in

import (
	"context"
	"io"

	"adsdash/internal/modules/metrics/dto"
)

// Dashboard is one interactive view over the metrics endpoint. Mutations return a ticket
// that must be passed to Execute; results for superseded tickets are dropped.
type Dashboard interface {
	Start(ctx context.Context) dto.Ticket
	NeedsViewer(ctx context.Context) bool
	ResolveViewer(ctx context.Context) (dto.ViewOutput, error)
	SetDateRange(start, end string) dto.Ticket
	SetStartDate(start string) dto.Ticket
	SetEndDate(end string) dto.Ticket
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

type Usecase interface {
	NewDashboard() Dashboard
	Query(ctx context.Context, input dto.QueryInput) (dto.ViewOutput, error)
	WriteCSV(w io.Writer, view dto.ViewOutput) error
}
