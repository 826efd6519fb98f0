package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/techsupport-portal/internal/domain/summaries"
)

type SummaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Save inserts a report summary record
func (r *SummaryRepository) Save(ctx context.Context, s *domain.Summary) error {
	const q = `
INSERT INTO report_summaries
  (id, owner, session_id, analysis, report_url, result_json, created_at)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  owner=VALUES(owner), session_id=VALUES(session_id), analysis=VALUES(analysis),
  report_url=VALUES(report_url), result_json=VALUES(result_json);
`
	owner := stringOrDash(s.Owner)
	reportURL := stringOrDash(s.ReportURL)
	result := s.Result
	if strings.TrimSpace(result) == "" {
		// result_json column requires valid JSON; use empty object
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
WHERE owner=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
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
WHERE owner=? AND session_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;
`
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
