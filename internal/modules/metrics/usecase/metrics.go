package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"adsdash/internal/modules/metrics/domain"
	"adsdash/internal/modules/metrics/dto"
	metricsin "adsdash/internal/modules/metrics/port/in"
	metricsout "adsdash/internal/modules/metrics/port/out"
	"adsdash/internal/modules/metrics/service"
	"adsdash/internal/platform/clock"
	apperrors "adsdash/internal/platform/errors"
)

type Interactor struct {
	gateway   metricsout.Gateway
	session   metricsout.SessionPort
	recorder  metricsout.Recorder
	clock     clock.Clock
	log       *zap.Logger
	pageSize  int
	exportDir string
}

type Options struct {
	PageSize int
	// ExportDir receives exports given without a path. Empty means the working directory.
	ExportDir string
}

func NewInteractor(
	gateway metricsout.Gateway,
	session metricsout.SessionPort,
	recorder metricsout.Recorder,
	clk clock.Clock,
	log *zap.Logger,
	opts Options,
) metricsin.Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Interactor{
		gateway:   gateway,
		session:   session,
		recorder:  recorder,
		clock:     clk,
		log:       log,
		pageSize:  opts.PageSize,
		exportDir: opts.ExportDir,
	}
}

func (i *Interactor) NewDashboard() metricsin.Dashboard {
	return &dashboard{
		ctrl:      service.NewController(i.gateway, i.session, i.recorder, i.clock, i.log, i.pageSize),
		exportDir: i.exportDir,
	}
}

// Query runs one fetch for input and returns the reconciled view. Failures are returned as
// errors rather than left in the view.
func (i *Interactor) Query(ctx context.Context, input dto.QueryInput) (dto.ViewOutput, error) {
	dir, err := domain.ParseSortDir(input.SortDir)
	if err != nil {
		return dto.ViewOutput{}, err
	}
	query := domain.DefaultQuery(i.pageSize).
		WithDateRange(input.StartDate, input.EndDate).
		WithSort(input.SortBy, dir)
	if input.PageSize != 0 {
		if query, err = query.WithPageSize(input.PageSize); err != nil {
			return dto.ViewOutput{}, err
		}
	}
	if input.Page < 1 {
		return dto.ViewOutput{}, fmt.Errorf("%w: page must be at least 1, got %d", apperrors.ErrInvalidInput, input.Page)
	}
	query = query.WithPage(input.Page)

	ctrl := service.NewController(i.gateway, i.session, i.recorder, i.clock, i.log, i.pageSize)
	if _, err := ctrl.ResolveViewer(ctx); err != nil {
		if apperrors.IsAuth(err) || errors.Is(err, apperrors.ErrNoSession) {
			return dto.ViewOutput{}, err
		}
		i.log.Warn("resolve viewer failed, showing base columns", zap.Error(err))
	}
	ticket, err := ctrl.Submit(query)
	if err != nil {
		return dto.ViewOutput{}, err
	}
	res := ctrl.Execute(ctx, ticket)
	if res.Err != nil {
		return dto.ViewOutput{}, res.Err
	}
	return toViewOutput(ctrl), nil
}

func (i *Interactor) WriteCSV(w io.Writer, view dto.ViewOutput) error {
	headers := make([]string, len(view.Columns))
	for idx, col := range view.Columns {
		headers[idx] = col.Label
	}
	return service.WriteTable(w, headers, view.Cells)
}

type dashboard struct {
	ctrl      *service.Controller
	exportDir string
}

func (d *dashboard) Start(ctx context.Context) dto.Ticket {
	return toTicket(d.ctrl.Start(ctx))
}

func (d *dashboard) NeedsViewer(ctx context.Context) bool {
	return d.ctrl.NeedsViewer(ctx)
}

func (d *dashboard) ResolveViewer(ctx context.Context) (dto.ViewOutput, error) {
	_, err := d.ctrl.ResolveViewer(ctx)
	return toViewOutput(d.ctrl), err
}

func (d *dashboard) SetDateRange(start, end string) dto.Ticket {
	return toTicket(d.ctrl.SetDateRange(start, end))
}

func (d *dashboard) SetStartDate(start string) dto.Ticket {
	return toTicket(d.ctrl.SetStartDate(start))
}

func (d *dashboard) SetEndDate(end string) dto.Ticket {
	return toTicket(d.ctrl.SetEndDate(end))
}

func (d *dashboard) ToggleSort(column string) dto.Ticket {
	return toTicket(d.ctrl.ToggleSort(column))
}

func (d *dashboard) SetPageSize(size int) (dto.Ticket, error) {
	t, err := d.ctrl.SetPageSize(size)
	if err != nil {
		return dto.Ticket{}, err
	}
	return toTicket(t), nil
}

func (d *dashboard) NextPage() (dto.Ticket, bool) {
	t, ok := d.ctrl.NextPage()
	return toTicket(t), ok
}

func (d *dashboard) PrevPage() (dto.Ticket, bool) {
	t, ok := d.ctrl.PrevPage()
	return toTicket(t), ok
}

func (d *dashboard) Reload() dto.Ticket {
	return toTicket(d.ctrl.Reload())
}

func (d *dashboard) Execute(ctx context.Context, ticket dto.Ticket) dto.FetchResult {
	res := d.ctrl.Execute(ctx, fromTicket(ticket))
	return dto.FetchResult{
		Seq:       res.Seq,
		Applied:   res.Applied,
		Stale:     res.Stale,
		SignedOut: res.SignedOut,
		Err:       res.Err,
	}
}

func (d *dashboard) View() dto.ViewOutput {
	return toViewOutput(d.ctrl)
}

// Export writes the visible page to path, or to a name derived from the filter when path is empty.
func (d *dashboard) Export(path string) (dto.ExportOutput, error) {
	view := d.ctrl.View()
	if path == "" {
		path = filepath.Join(d.exportDir, service.ExportFileName(d.ctrl.Query(), view))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return dto.ExportOutput{}, fmt.Errorf("create export dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return dto.ExportOutput{}, fmt.Errorf("create export: %w", err)
	}
	if err := service.WriteCSV(f, view); err != nil {
		_ = f.Close()
		return dto.ExportOutput{}, err
	}
	if err := f.Close(); err != nil {
		return dto.ExportOutput{}, fmt.Errorf("close export: %w", err)
	}
	return dto.ExportOutput{Path: path, Rows: len(view.Rows)}, nil
}

func (d *dashboard) Logout(ctx context.Context) error {
	return d.ctrl.Logout(ctx)
}

func toTicket(t service.Ticket) dto.Ticket {
	return dto.Ticket{Seq: t.Seq, Query: toQueryOutput(t.Query)}
}

func fromTicket(t dto.Ticket) service.Ticket {
	return service.Ticket{Seq: t.Seq, Query: domain.QuerySpec{
		StartDate: t.Query.StartDate,
		EndDate:   t.Query.EndDate,
		SortBy:    t.Query.SortBy,
		SortDir:   domain.SortDir(t.Query.SortDir),
		Page:      t.Query.Page,
		PageSize:  t.Query.PageSize,
	}}
}

func toQueryOutput(q domain.QuerySpec) dto.QueryOutput {
	return dto.QueryOutput{
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		SortBy:    q.SortBy,
		SortDir:   string(q.SortDir),
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
}

func toViewOutput(ctrl *service.Controller) dto.ViewOutput {
	view := ctrl.View()
	out := dto.ViewOutput{
		Columns:   make([]dto.ColumnOutput, len(view.Columns)),
		Rows:      make([]dto.RowOutput, len(view.Rows)),
		Cells:     view.Matrix(),
		Loading:   view.Loading,
		Error:     view.Error,
		Page:      view.Page,
		PageSize:  view.PageSize,
		Total:     view.Total,
		CanNext:   view.CanNext(),
		CanPrev:   view.CanPrev(),
		Summary:   view.Summary(),
		UpdatedAt: view.UpdatedAt,
		Query:     toQueryOutput(ctrl.Query()),
	}
	for i, col := range view.Columns {
		out.Columns[i] = dto.ColumnOutput{Key: col.Key, Label: col.Label}
	}
	for i, row := range view.Rows {
		out.Rows[i] = dto.RowOutput{
			AccountID:   row.AccountID,
			Date:        row.Value(domain.ColumnDate),
			Impressions: row.Impressions,
			Clicks:      row.Clicks,
			Conversions: row.Conversions,
			CostMicros:  row.CostMicros,
		}
	}
	if v, ok := ctrl.Viewer(); ok {
		out.HasViewer = true
		out.Viewer = dto.ViewerOutput{
			Email:       v.Email,
			FullName:    v.FullName,
			DisplayName: v.DisplayName(),
			Role:        v.Role,
			IsAdmin:     v.IsAdmin(),
		}
	}
	return out
}
