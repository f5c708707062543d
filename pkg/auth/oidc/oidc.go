package oidc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aiacademy/tutor/pkg/auth"
	"github.com/aiacademy/tutor/pkg/auth/static"

	"github.com/coreos/go-oidc/v3/oidc"
)

var _ auth.Provider = (*Provider)(nil)

// Provider verifies bearer ID tokens against an OpenID Connect issuer.
type Provider struct {
	verifier *oidc.IDTokenVerifier
}

func New(ctx context.Context, issuer, audience string) (*Provider, error) {
	provider, err := oidc.NewProvider(ctx, issuer)

	if err != nil {
		return nil, err
	}

	return NewWithVerifier(provider.Verifier(&oidc.Config{
		ClientID: audience,

		SkipClientIDCheck: audience == "",
	})), nil
}

func NewWithVerifier(verifier *oidc.IDTokenVerifier) *Provider {
	return &Provider{
		verifier: verifier,
	}
}

func (p *Provider) Authenticate(ctx context.Context, r *http.Request) (context.Context, error) {
	token, err := static.BearerToken(r)

	if err != nil {
		return ctx, err
	}

	idtoken, err := p.verifier.Verify(ctx, token)

	if err != nil {
		return ctx, fmt.Errorf("%w: %w", auth.ErrUnauthorized, err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
	}

	if err := idtoken.Claims(&claims); err != nil {
		return ctx, fmt.Errorf("%w: %w", auth.ErrUnauthorized, err)
	}

	if claims.Subject != "" {
		ctx = context.WithValue(ctx, auth.UserContextKey, claims.Subject)
	}

	if claims.Email != "" {
		ctx = context.WithValue(ctx, auth.EmailContextKey, claims.Email)
	}

	return ctx, nil
}
