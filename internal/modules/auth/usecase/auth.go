package usecase

import (
	"context"
	"errors"

	"adsdash/internal/modules/auth/domain"
	"adsdash/internal/modules/auth/dto"
	authin "adsdash/internal/modules/auth/port/in"
	authout "adsdash/internal/modules/auth/port/out"
	"adsdash/internal/modules/auth/service"
	"adsdash/internal/platform/clock"
	apperrors "adsdash/internal/platform/errors"
)

type Interactor struct {
	svc       *service.SessionService
	inspector authout.TokenInspector
	clock     clock.Clock
}

func NewInteractor(svc *service.SessionService, inspector authout.TokenInspector, clk clock.Clock) authin.Usecase {
	return &Interactor{svc: svc, inspector: inspector, clock: clk}
}

func (i *Interactor) Login(ctx context.Context, input dto.LoginInput) (dto.SessionOutput, error) {
	session, err := i.svc.Login(ctx, input.Email, input.Password)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return toSessionOutput(session, false), nil
}

func (i *Interactor) Restore(ctx context.Context) (dto.SessionOutput, error) {
	session, err := i.svc.Restore(ctx)
	if err != nil {
		if session.Token != "" {
			return toSessionOutput(session, true), err
		}
		return dto.SessionOutput{}, err
	}
	return toSessionOutput(session, true), nil
}

func (i *Interactor) Logout(ctx context.Context) error {
	return i.svc.Invalidate(ctx)
}

func (i *Interactor) Token(ctx context.Context) (string, bool) {
	session, ok, err := i.svc.Adopt(ctx)
	if err != nil || !ok {
		return "", false
	}
	return session.Token, true
}

func (i *Interactor) CurrentUser(_ context.Context) (dto.UserOutput, bool) {
	session, ok := i.svc.Current()
	if !ok || session.User == nil {
		return dto.UserOutput{}, false
	}
	return toUserOutput(*session.User), true
}

func (i *Interactor) ResolveUser(ctx context.Context) (dto.UserOutput, error) {
	if _, ok, err := i.svc.Adopt(ctx); err != nil {
		return dto.UserOutput{}, err
	} else if !ok {
		return dto.UserOutput{}, apperrors.ErrNoSession
	}
	user, err := i.svc.ResolveUser(ctx)
	if err != nil {
		return dto.UserOutput{}, err
	}
	return toUserOutput(user), nil
}

func (i *Interactor) Invalidate(ctx context.Context) error {
	return i.svc.Invalidate(ctx)
}

func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	session, ok, err := i.svc.Adopt(ctx)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	if !ok {
		return dto.StatusOutput{}, nil
	}
	out := dto.StatusOutput{SignedIn: true}
	if session.User != nil {
		out.HasUser = true
		out.User = toUserOutput(*session.User)
	}
	if i.inspector != nil {
		claims, err := i.inspector.Inspect(session.Token)
		if err != nil && !errors.Is(err, apperrors.ErrInvalidInput) {
			return out, err
		}
		out.Subject = claims.Subject
		out.ExpiresAt = claims.ExpiresAt
		out.Expired = !claims.ExpiresAt.IsZero() && !i.clock.Now().Before(claims.ExpiresAt)
	}
	return out, nil
}

func toSessionOutput(session domain.Session, restored bool) dto.SessionOutput {
	out := dto.SessionOutput{Restored: restored}
	if session.User != nil {
		out.HasUser = true
		out.User = toUserOutput(*session.User)
	}
	return out
}

func toUserOutput(user domain.User) dto.UserOutput {
	return dto.UserOutput{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     string(user.Role),
		IsAdmin:  user.IsAdmin(),
	}
}
