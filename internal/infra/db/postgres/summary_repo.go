package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/techsupport-portal/internal/domain/summaries"
)

type SummaryRepository struct{ db *sql.DB }

func NewSummaryRepository(db *sql.DB) *SummaryRepository { return &SummaryRepository{db: db} }

// Save inserts a report summary record
func (r *SummaryRepository) Save(ctx context.Context, s *domain.Summary) error {
	const q = `
INSERT INTO report_summaries
  (id, owner, session_id, analysis, report_url, result_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  owner = EXCLUDED.owner, session_id = EXCLUDED.session_id, analysis = EXCLUDED.analysis,
  report_url = EXCLUDED.report_url, result_json = EXCLUDED.result_json;`

	owner := stringOrDash(s.Owner)
	reportURL := stringOrDash(s.ReportURL)
	result := s.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q, s.ID, owner, s.SessionID, s.Analysis, reportURL, result, createdAt)
	return err
}

// Paginate returns a page of summaries ordered by created_at desc
func (r *SummaryRepository) Paginate(ctx context.Context, owner string, page, pageSize int) ([]*domain.Summary, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, owner, session_id, analysis, report_url, result_json, created_at
FROM report_summaries
WHERE owner=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`
	rows, err := r.db.QueryContext(ctx, q, owner, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Summary
	for rows.Next() {
		var s domain.Summary
		var created time.Time
		if err := rows.Scan(&s.ID, &s.Owner, &s.SessionID, &s.Analysis, &s.ReportURL, &s.Result, &created); err != nil {
			return nil, err
		}
		s.CreatedAt = created
		out = append(out, &s)
	}
	return out, rows.Err()
}

// LatestBySession returns the newest summary recorded for one session
func (r *SummaryRepository) LatestBySession(ctx context.Context, owner string, sessionID string) (*domain.Summary, error) {
	const q = `
SELECT id, owner, session_id, analysis, report_url, result_json, created_at
FROM report_summaries
WHERE owner=$1 AND session_id=$2
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	var s domain.Summary
	var created time.Time
	if err := r.db.QueryRowContext(ctx, q, owner, sessionID).Scan(
		&s.ID, &s.Owner, &s.SessionID, &s.Analysis, &s.ReportURL, &s.Result, &created,
	); err != nil {
		return nil, err
	}
	s.CreatedAt = created
	return &s, nil
}
