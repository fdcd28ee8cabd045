package out

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"adsdash/internal/modules/auth/domain"
	authout "adsdash/internal/modules/auth/port/out"
	"adsdash/internal/platform/apiclient"
	apperrors "adsdash/internal/platform/errors"
)

type HTTPGateway struct {
	client *apiclient.Client
}

func NewHTTPGateway(client *apiclient.Client) authout.Gateway {
	return &HTTPGateway{client: client}
}

func (g *HTTPGateway) Authenticate(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := g.client.PostForm(ctx, "login", "/token", form, &out); err != nil {
		return "", asAuthError(err)
	}
	if out.AccessToken == "" {
		return "", &apperrors.AuthError{Message: apperrors.LoginFailed}
	}
	return out.AccessToken, nil
}

func (g *HTTPGateway) FetchSelf(ctx context.Context, token string) (domain.User, error) {
	var user domain.User
	if err := g.client.GetJSON(ctx, "me", "/me", token, nil, &user); err != nil {
		return domain.User{}, asAuthError(err)
	}
	return user, nil
}

// asAuthError turns client-error statuses into AuthError. Transport failures and 5xx stay
// RequestError so a flaky network does not destroy the session.
func asAuthError(err error) error {
	var reqErr *apperrors.RequestError
	if errors.As(err, &reqErr) && reqErr.Status >= http.StatusBadRequest && reqErr.Status < http.StatusInternalServerError {
		msg := reqErr.Message
		if msg == "" || msg == apiclient.StatusMessage(reqErr.Status) {
			msg = apperrors.LoginFailed
		}
		return &apperrors.AuthError{Message: msg}
	}
	return err
}
