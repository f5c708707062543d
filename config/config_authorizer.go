package config

import (
	"context"
	"errors"
	"strings"

	"github.com/aiacademy/tutor/pkg/auth"
	"github.com/aiacademy/tutor/pkg/auth/header"
	"github.com/aiacademy/tutor/pkg/auth/oidc"
	"github.com/aiacademy/tutor/pkg/auth/static"
)

type authorizerConfig struct {
	Type string `yaml:"type"`

	Token string `yaml:"token"`

	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`

	UserHeader  string `yaml:"user_header"`
	EmailHeader string `yaml:"email_header"`
}

func (c *Config) registerAuthorizer(ctx context.Context, f *configFile) error {
	for _, a := range f.Authorizers {
		authorizer, err := createAuthorizer(ctx, a)

		if err != nil {
			return err
		}

		c.Authorizers = append(c.Authorizers, authorizer)
	}

	if len(c.Authorizers) == 0 && !c.Insecure {
		return errMissingAuthorizers
	}

	return nil
}

func createAuthorizer(ctx context.Context, cfg authorizerConfig) (auth.Provider, error) {
	switch strings.ToLower(cfg.Type) {
	case "header":
		return headerAuthorizer(cfg)

	case "static":
		return staticAuthorizer(cfg)

	case "oidc":
		return oidcAuthorizer(ctx, cfg)

	default:
		return nil, errors.New("invalid authorizer type: " + cfg.Type)
	}
}

func headerAuthorizer(cfg authorizerConfig) (auth.Provider, error) {
	return header.New(
		header.WithUserHeader(cfg.UserHeader),
		header.WithEmailHeader(cfg.EmailHeader),
	)
}

func staticAuthorizer(cfg authorizerConfig) (auth.Provider, error) {
	return static.New(cfg.Token)
}

func oidcAuthorizer(ctx context.Context, cfg authorizerConfig) (auth.Provider, error) {
	return oidc.New(ctx, cfg.Issuer, cfg.Audience)
}
