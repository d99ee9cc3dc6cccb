// Package auth resolves bearer tokens to principals. The managed identity
// provider issues Google ID tokens; their subject claim is the stable
// principal id used throughout the access rules.
package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/pcubed/gradeboard/internal/authz"
)

// ErrInvalidToken covers missing, malformed, and expired tokens.
var ErrInvalidToken = errors.New("invalid credentials")

// Authenticator turns a bearer token into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (authz.Principal, error)
}

// GoogleAuthenticator validates Google ID tokens against an audience.
type GoogleAuthenticator struct {
	audience string
}

func NewGoogleAuthenticator(audience string) *GoogleAuthenticator {
	return &GoogleAuthenticator{audience: audience}
}

func (a *GoogleAuthenticator) Authenticate(ctx context.Context, token string) (authz.Principal, error) {
	if token == "" {
		return authz.Principal{}, ErrInvalidToken
	}
	payload, err := idtoken.Validate(ctx, token, a.audience)
	if err != nil {
		return authz.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if payload.Subject == "" {
		return authz.Principal{}, ErrInvalidToken
	}
	return authz.Principal{UID: payload.Subject}, nil
}

// StaticAuthenticator maps fixed tokens to principal ids. For tests and
// local development only.
type StaticAuthenticator map[string]string

func (a StaticAuthenticator) Authenticate(_ context.Context, token string) (authz.Principal, error) {
	uid, ok := a[token]
	if !ok || uid == "" {
		return authz.Principal{}, ErrInvalidToken
	}
	return authz.Principal{UID: uid}, nil
}
