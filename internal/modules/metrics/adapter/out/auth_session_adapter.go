package out

import (
	"context"

	authdto "adsdash/internal/modules/auth/dto"
	authin "adsdash/internal/modules/auth/port/in"
	"adsdash/internal/modules/metrics/domain"
	metricsout "adsdash/internal/modules/metrics/port/out"
)

type AuthSessionAdapter struct {
	auth authin.Usecase
}

func NewAuthSessionAdapter(auth authin.Usecase) metricsout.SessionPort {
	return &AuthSessionAdapter{auth: auth}
}

func (a *AuthSessionAdapter) Token(ctx context.Context) (string, bool) {
	return a.auth.Token(ctx)
}

func (a *AuthSessionAdapter) Viewer(ctx context.Context) (domain.Viewer, bool) {
	user, ok := a.auth.CurrentUser(ctx)
	if !ok {
		return domain.Viewer{}, false
	}
	return toViewer(user), true
}

func (a *AuthSessionAdapter) ResolveViewer(ctx context.Context) (domain.Viewer, error) {
	user, err := a.auth.ResolveUser(ctx)
	if err != nil {
		return domain.Viewer{}, err
	}
	return toViewer(user), nil
}

func (a *AuthSessionAdapter) Invalidate(ctx context.Context) error {
	return a.auth.Invalidate(ctx)
}

func toViewer(user authdto.UserOutput) domain.Viewer {
	return domain.Viewer{Email: user.Email, FullName: user.FullName, Role: user.Role}
}
