package out

import (
	"context"
	"time"

	"adsdash/internal/modules/metrics/domain"
)

type Gateway interface {
	FetchPage(ctx context.Context, token string, query domain.QuerySpec) (domain.PageResult, error)
}

// SessionPort is the dashboard's view of the signed-in session.
type SessionPort interface {
	Token(ctx context.Context) (string, bool)
	Viewer(ctx context.Context) (domain.Viewer, bool)
	ResolveViewer(ctx context.Context) (domain.Viewer, error)
	Invalidate(ctx context.Context) error
}

type Recorder interface {
	FetchStarted()
	FetchFinished(outcome string, elapsed time.Duration)
}
