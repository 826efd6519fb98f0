package summaries

import "context"

// Repository port for persisting and querying report summaries
type Repository interface {
	Save(ctx context.Context, s *Summary) error
	Paginate(ctx context.Context, owner string, page, pageSize int) ([]*Summary, error)
	LatestBySession(ctx context.Context, owner string, sessionID string) (*Summary, error)
}
