package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxSession ctxKey = iota
)

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxSession, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxSession).(Session)
	return s, ok && s.ID != ""
}

func UserID(ctx context.Context) (string, error) {
	if s, ok := SessionFrom(ctx); ok && s.User.ID != "" {
		return s.User.ID, nil
	}
	return "", errors.New("user_id not in context")
}
