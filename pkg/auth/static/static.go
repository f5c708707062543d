package static

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/aiacademy/tutor/pkg/auth"
)

var _ auth.Provider = (*Provider)(nil)

// Provider accepts requests carrying a shared bearer token.
type Provider struct {
	token string
}

func New(token string) (*Provider, error) {
	if token == "" {
		return nil, fmt.Errorf("static authorizer requires a token")
	}

	return &Provider{
		token: token,
	}, nil
}

func (p *Provider) Authenticate(ctx context.Context, r *http.Request) (context.Context, error) {
	token, err := BearerToken(r)

	if err != nil {
		return ctx, err
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(p.token)) != 1 {
		return ctx, fmt.Errorf("%w: invalid token", auth.ErrUnauthorized)
	}

	ctx = context.WithValue(ctx, auth.UserContextKey, "static")

	return ctx, nil
}

// BearerToken extracts the token of a "Bearer" authorization header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")

	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", auth.ErrUnauthorized)
	}

	scheme, token, ok := strings.Cut(header, " ")

	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: invalid authorization header", auth.ErrUnauthorized)
	}

	return strings.TrimSpace(token), nil
}
