package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials wraps the provider's message for a rejected sign-in.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrProvider           = errors.New("auth: provider error")
)

// ProviderSession is what the identity provider hands back on sign-in.
type ProviderSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Provider is the external identity service boundary.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (ProviderSession, error)
	RefreshSession(ctx context.Context, refreshToken string) (ProviderSession, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (User, error)
	UpdateUser(ctx context.Context, accessToken string, metadata map[string]any) (User, error)
}

// ProviderError carries the provider's human-readable message.
type ProviderError struct {
	Status  int
	Message string
	kind    error
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return e.kind.Error()
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error { return e.kind }
