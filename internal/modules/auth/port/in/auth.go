package in

import (
	"context"

	"adsdash/internal/modules/auth/dto"
)

type Usecase interface {
	Login(ctx context.Context, input dto.LoginInput) (dto.SessionOutput, error)
	Restore(ctx context.Context) (dto.SessionOutput, error)
	Logout(ctx context.Context) error
	Token(ctx context.Context) (string, bool)
	CurrentUser(ctx context.Context) (dto.UserOutput, bool)
	ResolveUser(ctx context.Context) (dto.UserOutput, error)
	Invalidate(ctx context.Context) error
	Status(ctx context.Context) (dto.StatusOutput, error)
}
