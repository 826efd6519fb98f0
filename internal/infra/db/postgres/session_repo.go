package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	domain "github.com/bryanwahyu/techsupport-portal/internal/domain/sessions"
)

type SessionRepository struct{ db *sql.DB }

func NewSessionRepository(db *sql.DB) *SessionRepository { return &SessionRepository{db: db} }

// Save insert/update session metadata row
func (r *SessionRepository) Save(ctx context.Context, s *domain.Session) error {
	const q = `
INSERT INTO session_metadata
(id, owner, case_number, folder, archive_name, uploaded_at, analyses, status, outcomes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 outcomes = EXCLUDED.outcomes,
 archive_name = EXCLUDED.archive_name;`

	owner := stringOrDash(s.Owner)
	caseNo := stringOrDash(s.CaseNumber)
	status := stringOrDash(string(s.Status))
	uploaded := s.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now()
	}
	outcomes, err := marshalOutcomes(s.Outcomes)
	if err != nil {
		return fmt.Errorf("encoding outcomes: %w", err)
	}

	_, err = r.db.ExecContext(ctx, q,
		s.ID, owner, caseNo, s.Folder, s.ArchiveName, uploaded,
		joinAnalyses(s.Analyses), status, outcomes,
	)
	return err
}

// Get by ID + owner
func (r *SessionRepository) Get(ctx context.Context, owner string, id domain.SessionID) (*domain.Session, error) {
	const q = `
SELECT id, owner, case_number, folder, archive_name, uploaded_at, analyses, status, outcomes
FROM session_metadata
WHERE owner=$1 AND id=$2
LIMIT 1;`
	return scanSession(r.db.QueryRowContext(ctx, q, owner, id))
}

// Latest sessions per owner
func (r *SessionRepository) Latest(ctx context.Context, owner string, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, owner, case_number, folder, archive_name, uploaded_at, analyses, status, outcomes
FROM session_metadata
WHERE owner=$1 ORDER BY uploaded_at DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Paginate with offset + limit (classic pagination)
func (r *SessionRepository) Paginate(ctx context.Context, owner string, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := `
SELECT id, owner, case_number, folder, archive_name, uploaded_at, analyses, status, outcomes
FROM session_metadata
WHERE owner=$1`
	args := []interface{}{owner}
	next := 2
	query, args, next = applyFilters(query, args, next, filters)

	query += fmt.Sprintf("\n ORDER BY uploaded_at DESC LIMIT $%d OFFSET $%d", next, next+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err = rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	total, err := r.Count(ctx, owner, filters)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedResult{
		Data:       sessions,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// UpdateStatus hanya update kolom status
func (r *SessionRepository) UpdateStatus(ctx context.Context, owner string, id domain.SessionID, status domain.Status) error {
	const q = `
UPDATE session_metadata
SET status = $1
WHERE owner = $2 AND id = $3;`
	_, err := r.db.ExecContext(ctx, q, status, owner, id)
	return err
}

// UpdateOutcomes update hasil akhir session (status + outcomes JSON)
func (r *SessionRepository) UpdateOutcomes(ctx context.Context, owner string, id domain.SessionID, status domain.Status, outcomes map[domain.AnalysisType]domain.Outcome) error {
	enc, err := marshalOutcomes(outcomes)
	if err != nil {
		return fmt.Errorf("encoding outcomes: %w", err)
	}
	const q = `
UPDATE session_metadata
SET status = $1,
    outcomes = $2
WHERE owner = $3 AND id = $4;`
	_, err = r.db.ExecContext(ctx, q, status, enc, owner, id)
	return err
}

// Summary counts session results since N days
func (r *SessionRepository) Summary(ctx context.Context, owner string, sinceDays int) (int, int, int, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)
	const q = `
SELECT COUNT(*) AS total_sessions,
       COALESCE(SUM(CASE WHEN status='complete' THEN 1 ELSE 0 END),0) AS complete,
       COALESCE(SUM(CASE WHEN status='failed' THEN 1 ELSE 0 END),0)   AS failed
FROM session_metadata
WHERE owner=$1 AND uploaded_at >= $2;`
	var t, c, f int
	if err := r.db.QueryRowContext(ctx, q, owner, cut).Scan(&t, &c, &f); err != nil {
		return 0, 0, 0, err
	}
	return t, c, f, nil
}

// Count returns the total number of records matching the given filters
func (r *SessionRepository) Count(ctx context.Context, owner string, filters map[string]interface{}) (int64, error) {
	query := "SELECT COUNT(*) FROM session_metadata WHERE owner = $1"
	args := []interface{}{owner}
	next := 2
	query, args, _ = applyFilters(query, args, next, filters)

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func applyFilters(query string, args []interface{}, next int, filters map[string]interface{}) (string, []interface{}, int) {
	if filters == nil {
		return query, args, next
	}
	for key, value := range filters {
		switch key {
		case "status":
			query += fmt.Sprintf(" AND status = $%d", next)
			args = append(args, value)
			next++
		case "case_number":
			query += fmt.Sprintf(" AND case_number LIKE $%d", next)
			args = append(args, "%"+escapeLikePattern(value.(string))+"%")
			next++
		}
	}
	return query, args, next
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var analyses, outcomes string
	if err := row.Scan(
		&s.ID, &s.Owner, &s.CaseNumber, &s.Folder, &s.ArchiveName, &s.UploadedAt,
		&analyses, &s.Status, &outcomes,
	); err != nil {
		return nil, err
	}
	s.Analyses = splitAnalyses(analyses)
	m, err := unmarshalOutcomes(outcomes)
	if err != nil {
		return nil, fmt.Errorf("decoding outcomes: %w", err)
	}
	s.Outcomes = m
	return &s, nil
}
