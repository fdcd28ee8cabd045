package out

import (
	"context"

	"adsdash/internal/modules/auth/domain"
)

// TokenStore is the persistent slot holding the opaque bearer token across runs.
type TokenStore interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type Gateway interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
	FetchSelf(ctx context.Context, token string) (domain.User, error)
}

type TokenInspector interface {
	Inspect(token string) (domain.TokenClaims, error)
}
