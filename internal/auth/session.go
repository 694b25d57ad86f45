package auth

import (
	"context"
	"time"
)

// Session is the server-side record behind a token pair.
type Session struct {
	ID   string `json:"id"`
	User User   `json:"user"`

	ProviderAccessToken  string    `json:"provider_access_token"`
	ProviderRefreshToken string    `json:"provider_refresh_token"`
	ProviderExpiresAt    time.Time `json:"provider_expires_at"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore persists sessions. Get follows the (value, found, err) shape.
type SessionStore interface {
	Ping(ctx context.Context) error
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (Session, bool, error)
	Delete(ctx context.Context, id string) error
}
