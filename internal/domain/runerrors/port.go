package runerrors

import (
	"context"
)

// Repository defines persistence for pipeline errors
type Repository interface {
	Save(ctx context.Context, e *RunError) error
	ListBySession(ctx context.Context, owner string, sessionID string, limit int) ([]*RunError, error)
}
