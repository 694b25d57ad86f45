package source

import "context"

type ctxKey struct{}

// WithAccessToken attaches the signed-in user's provider token so the REST
// backend can query on the user's behalf.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKey{}, token)
}

func AccessToken(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKey{}).(string)
	return v, ok && v != ""
}
