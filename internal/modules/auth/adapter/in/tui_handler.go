package in

import (
	"context"

	"adsdash/internal/modules/auth/dto"
	authin "adsdash/internal/modules/auth/port/in"
)

type TUIHandler struct {
	usecase authin.Usecase
}

func NewTUIHandler(usecase authin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Login(ctx context.Context, email, password string) (dto.SessionOutput, error) {
	return h.usecase.Login(ctx, dto.LoginInput{Email: email, Password: password})
}

func (h TUIHandler) Restore(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Restore(ctx)
}

func (h TUIHandler) Logout(ctx context.Context) error {
	return h.usecase.Logout(ctx)
}
