package sessions

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, owner string, id SessionID) (*Session, error)
	Latest(ctx context.Context, owner string, limit int) ([]*Session, error)
	Paginate(ctx context.Context, owner string, page, pageSize int, filters map[string]interface{}) (PaginatedResult, error)
	UpdateStatus(ctx context.Context, owner string, id SessionID, status Status) error
	UpdateOutcomes(ctx context.Context, owner string, id SessionID, status Status, outcomes map[AnalysisType]Outcome) error
	Summary(ctx context.Context, owner string, sinceDays int) (int, int, int, error)
}

// ReportStore port (interface untuk mirror report ke object storage)
type ReportStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Mailer port: sends a finished report to the session owner.
type Mailer interface {
	SendReport(ctx context.Context, to, attachmentName string, report []byte) error
}
