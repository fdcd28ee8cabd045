package out

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"adsdash/internal/modules/auth/domain"
	authout "adsdash/internal/modules/auth/port/out"
	apperrors "adsdash/internal/platform/errors"
)

// JWTInspector reads registered claims without verifying the signature. The token stays opaque
// to every other part of the client.
type JWTInspector struct {
	parser *jwt.Parser
}

func NewJWTInspector() authout.TokenInspector {
	return &JWTInspector{parser: jwt.NewParser()}
}

func (i *JWTInspector) Inspect(token string) (domain.TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := i.parser.ParseUnverified(token, claims); err != nil {
		return domain.TokenClaims{}, fmt.Errorf("%w: token is not a JWT: %v", apperrors.ErrInvalidInput, err)
	}
	out := domain.TokenClaims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}
