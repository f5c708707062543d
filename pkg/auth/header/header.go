package header

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/aiacademy/tutor/pkg/auth"
)

var _ auth.Provider = (*Provider)(nil)

// Provider trusts the student identity forwarded by an authenticating proxy.
type Provider struct {
	userHeader  string
	emailHeader string
}

type Option func(*Provider)

func New(opts ...Option) (*Provider, error) {
	p := &Provider{
		userHeader:  "X-Forwarded-User",
		emailHeader: "X-Forwarded-Email",
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

func (p *Provider) Authenticate(ctx context.Context, r *http.Request) (context.Context, error) {
	user := strings.TrimSpace(r.Header.Get(p.userHeader))
	email := strings.TrimSpace(r.Header.Get(p.emailHeader))

	if user == "" && email == "" {
		return ctx, fmt.Errorf("%w: no forwarded identity", auth.ErrUnauthorized)
	}

	if email == "" && isEmail(user) {
		email = user
	}

	if user != "" {
		ctx = context.WithValue(ctx, auth.UserContextKey, user)
	}

	if email != "" {
		ctx = context.WithValue(ctx, auth.EmailContextKey, email)
	}

	return ctx, nil
}

func isEmail(val string) bool {
	addr, err := mail.ParseAddress(val)
	return err == nil && addr.Address == val && strings.Contains(val, ".")
}
