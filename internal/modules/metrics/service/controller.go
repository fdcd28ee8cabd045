package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"adsdash/internal/modules/metrics/domain"
	metricsout "adsdash/internal/modules/metrics/port/out"
	"adsdash/internal/platform/clock"
	apperrors "adsdash/internal/platform/errors"
	"adsdash/internal/platform/telemetry"
)

// Ticket is one issued fetch. Seq orders tickets; Query is the intent captured at issue time.
type Ticket struct {
	Seq   uint64
	Query domain.QuerySpec
}

type Result struct {
	Seq       uint64
	Applied   bool
	Stale     bool
	SignedOut bool
	Err       error
}

// Controller holds the dashboard's QuerySpec and ViewState. Every mutation issues a ticket
// with a fresh sequence number; a completion is applied only if its ticket is still the latest.
type Controller struct {
	gateway  metricsout.Gateway
	session  metricsout.SessionPort
	recorder metricsout.Recorder
	clock    clock.Clock
	log      *zap.Logger

	mu     sync.Mutex
	query  domain.QuerySpec
	view   domain.ViewState
	viewer *domain.Viewer
	latest uint64
	// epoch counts logouts; a viewer resolved across one is dropped.
	epoch uint64
}

func NewController(
	gateway metricsout.Gateway,
	session metricsout.SessionPort,
	recorder metricsout.Recorder,
	clk clock.Clock,
	log *zap.Logger,
	pageSize int,
) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	query := domain.DefaultQuery(pageSize)
	return &Controller{
		gateway:  gateway,
		session:  session,
		recorder: recorder,
		clock:    clk,
		log:      log,
		query:    query,
		view: domain.ViewState{
			Columns:  domain.Columns(false),
			Page:     query.Page,
			PageSize: query.PageSize,
		},
	}
}

// Start picks up the viewer if the session already knows it and issues the first fetch.
func (c *Controller) Start(ctx context.Context) Ticket {
	if v, ok := c.session.Viewer(ctx); ok {
		c.SetViewer(v)
	}
	return c.Reload()
}

func (c *Controller) NeedsViewer(ctx context.Context) bool {
	c.mu.Lock()
	known := c.viewer != nil
	c.mu.Unlock()
	if known {
		return false
	}
	_, ok := c.session.Token(ctx)
	return ok
}

// ResolveViewer fetches the signed-in user when unknown. A rejected token destroys the session.
func (c *Controller) ResolveViewer(ctx context.Context) (domain.Viewer, error) {
	c.mu.Lock()
	if c.viewer != nil {
		v := *c.viewer
		c.mu.Unlock()
		return v, nil
	}
	epoch := c.epoch
	c.mu.Unlock()
	v, err := c.session.ResolveViewer(ctx)
	if err != nil {
		if apperrors.IsAuth(err) {
			c.signOut(ctx, err)
		}
		return domain.Viewer{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug("discarding viewer resolved before logout", zap.String("email", v.Email))
		return domain.Viewer{}, apperrors.ErrNoSession
	}
	c.setViewerLocked(v)
	return v, nil
}

// SetViewer records the viewer. Columns are recomputed only when the role changes.
func (c *Controller) SetViewer(v domain.Viewer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setViewerLocked(v)
}

func (c *Controller) setViewerLocked(v domain.Viewer) {
	if c.viewer == nil || c.viewer.IsAdmin() != v.IsAdmin() {
		c.view.Columns = domain.Columns(v.IsAdmin())
	}
	vv := v
	c.viewer = &vv
}

func (c *Controller) Viewer() (domain.Viewer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.viewer == nil {
		return domain.Viewer{}, false
	}
	return *c.viewer, true
}

func (c *Controller) SetDateRange(start, end string) Ticket {
	return c.mutate(func(q domain.QuerySpec) domain.QuerySpec { return q.WithDateRange(start, end) })
}

func (c *Controller) SetStartDate(start string) Ticket {
	return c.mutate(func(q domain.QuerySpec) domain.QuerySpec { return q.WithStartDate(start) })
}

func (c *Controller) SetEndDate(end string) Ticket {
	return c.mutate(func(q domain.QuerySpec) domain.QuerySpec { return q.WithEndDate(end) })
}

func (c *Controller) ToggleSort(column string) Ticket {
	return c.mutate(func(q domain.QuerySpec) domain.QuerySpec { return q.ToggleSort(column) })
}

func (c *Controller) SetPageSize(size int) (Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := c.query.WithPageSize(size)
	if err != nil {
		return Ticket{}, err
	}
	c.query = next
	return c.issueLocked(), nil
}

// Submit replaces the whole query. One-shot callers use it instead of the mutators.
func (c *Controller) Submit(query domain.QuerySpec) (Ticket, error) {
	if err := query.Validate(); err != nil {
		return Ticket{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query
	return c.issueLocked(), nil
}

// NextPage steps from the displayed page. It is a no-op when no rows lie beyond it.
func (c *Controller) NextPage() (Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.view.CanNext() {
		return Ticket{}, false
	}
	c.query = c.query.WithPage(c.view.Page + 1)
	return c.issueLocked(), true
}

func (c *Controller) PrevPage() (Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.view.CanPrev() {
		return Ticket{}, false
	}
	c.query = c.query.WithPage(c.view.Page - 1)
	return c.issueLocked(), true
}

// Reload reissues the current filter, sort and page size from page 1.
func (c *Controller) Reload() Ticket {
	return c.mutate(func(q domain.QuerySpec) domain.QuerySpec { return q.WithPage(1) })
}

// Execute performs the fetch for ticket and reconciles the outcome. It blocks for at most the
// transport timeout and must not be called with the lock held.
func (c *Controller) Execute(ctx context.Context, ticket Ticket) Result {
	started := c.clock.Now()
	c.recorder.FetchStarted()

	token, ok := c.session.Token(ctx)
	var (
		page domain.PageResult
		err  error
	)
	if !ok {
		err = &apperrors.AuthError{Message: "not signed in"}
	} else {
		page, err = c.gateway.FetchPage(ctx, token, ticket.Query)
	}

	res := c.complete(ticket, page, err)
	c.recorder.FetchFinished(outcome(res), c.clock.Now().Sub(started))
	if res.SignedOut {
		c.signOut(ctx, err)
	}
	return res
}

// Load issues a reload and waits for it.
func (c *Controller) Load(ctx context.Context) Result {
	return c.Execute(ctx, c.Reload())
}

func (c *Controller) complete(ticket Ticket, page domain.PageResult, err error) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := Result{Seq: ticket.Seq, Err: err}
	if ticket.Seq != c.latest {
		c.log.Debug("discarding stale fetch", zap.Uint64("seq", ticket.Seq), zap.Uint64("latest", c.latest))
		res.Stale = true
		return res
	}
	c.view.Loading = false
	if err != nil {
		c.view.Error = apperrors.Message(err)
		c.query.Page = c.view.Page
		res.SignedOut = apperrors.IsAuth(err)
		c.log.Warn("metrics fetch failed",
			zap.Uint64("seq", ticket.Seq),
			zap.Bool("signed_out", res.SignedOut),
			zap.Error(err),
		)
		return res
	}
	c.view.Rows = page.Rows
	c.view.Page = page.Page
	c.view.PageSize = page.PageSize
	c.view.Total = page.Total
	c.view.Error = ""
	c.view.UpdatedAt = c.clock.Now()
	c.query.Page = page.Page
	c.query.PageSize = page.PageSize
	res.Applied = true
	c.log.Debug("metrics page applied",
		zap.Uint64("seq", ticket.Seq),
		zap.Int("page", page.Page),
		zap.Int("page_size", page.PageSize),
		zap.Int("total", page.Total),
		zap.Int("rows", len(page.Rows)),
	)
	return res
}

// Logout destroys the session. Fetches still in flight become stale.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.latest++
	c.epoch++
	c.view.Loading = false
	c.viewer = nil
	c.mu.Unlock()
	return c.session.Invalidate(ctx)
}

func (c *Controller) signOut(ctx context.Context, cause error) {
	c.log.Info("session rejected by backend", zap.Error(cause))
	if err := c.Logout(ctx); err != nil && !errors.Is(err, apperrors.ErrNoSession) {
		c.log.Warn("clear session", zap.Error(err))
	}
}

// View returns a snapshot. Row and column slices are replaced, never mutated, so sharing is safe.
func (c *Controller) View() domain.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) Query() domain.QuerySpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

func (c *Controller) mutate(fn func(domain.QuerySpec) domain.QuerySpec) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = fn(c.query)
	return c.issueLocked()
}

func (c *Controller) issueLocked() Ticket {
	c.latest++
	c.view.Loading = true
	return Ticket{Seq: c.latest, Query: c.query}
}

func outcome(res Result) string {
	switch {
	case res.Stale:
		return telemetry.OutcomeStale
	case res.SignedOut:
		return telemetry.OutcomeUnauthorized
	case res.Err != nil:
		return telemetry.OutcomeFailed
	}
	return telemetry.OutcomeApplied
}

type nopRecorder struct{}

func (nopRecorder) FetchStarted()                       {}
func (nopRecorder) FetchFinished(string, time.Duration) {}
