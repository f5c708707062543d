package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var ErrUnauthorized = errors.New("unauthorized")

type contextKey string

const (
	UserContextKey  contextKey = "auth.user"
	EmailContextKey contextKey = "auth.email"
)

type Provider interface {
	Authenticate(ctx context.Context, r *http.Request) (context.Context, error)
}

// Any accepts a request as soon as one of its providers does. An empty
// list rejects every request.
type Any []Provider

var _ Provider = Any(nil)

func (a Any) Authenticate(ctx context.Context, r *http.Request) (context.Context, error) {
	if len(a) == 0 {
		return ctx, fmt.Errorf("%w: no authorizers configured", ErrUnauthorized)
	}

	var errs []error

	for _, p := range a {
		result, err := p.Authenticate(ctx, r)

		if err == nil {
			return result, nil
		}

		errs = append(errs, err)
	}

	return ctx, fmt.Errorf("%w: %w", ErrUnauthorized, errors.Join(errs...))
}

// Student returns the authenticated student identity, preferring the email.
func Student(ctx context.Context) string {
	if email, ok := ctx.Value(EmailContextKey).(string); ok && email != "" {
		return email
	}

	if user, ok := ctx.Value(UserContextKey).(string); ok {
		return user
	}

	return ""
}
