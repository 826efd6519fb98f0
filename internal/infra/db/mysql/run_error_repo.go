package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bryanwahyu/techsupport-portal/internal/domain/runerrors"
)

type RunErrorRepository struct {
	db *sql.DB
}

func NewRunErrorRepository(db *sql.DB) *RunErrorRepository { return &RunErrorRepository{db: db} }

func (r *RunErrorRepository) Save(ctx context.Context, e *runerrors.RunError) error {
	const q = `
INSERT INTO pipeline_run_errors
  (owner, session_id, analysis, phase, message, path, created_at)
VALUES (?,?,?,?,?,?,?)
`
	owner := dashIfEmpty(e.Owner)
	session := dashIfEmpty(e.SessionID)
	analysis := dashIfEmpty(e.Analysis)
	phase := dashIfEmpty(e.Phase)
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, owner, session, analysis, phase, msg, e.Path, created)
	return err
}

func (r *RunErrorRepository) ListBySession(ctx context.Context, owner string, sessionID string, limit int) ([]*runerrors.RunError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, owner, session_id, analysis, phase, message, path, created_at
FROM pipeline_run_errors
WHERE owner = ? AND session_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, owner, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*runerrors.RunError
	for rows.Next() {
		var e runerrors.RunError
		var created time.Time
		if err := rows.Scan(&e.ID, &e.Owner, &e.SessionID, &e.Analysis, &e.Phase, &e.Message, &e.Path, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = created
		out = append(out, &e)
	}
	return out, rows.Err()
}

func dashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
