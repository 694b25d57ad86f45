package calls

import (
	"context"
	"time"
)

// Repository lists call records started at or after since, newest first.
type Repository interface {
	ListSince(ctx context.Context, since time.Time) ([]Record, error)
}
