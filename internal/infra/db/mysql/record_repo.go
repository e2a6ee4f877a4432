package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	accounts "github.com/bryanwahyu/risklens/internal/domain/accounts"
	domain "github.com/bryanwahyu/risklens/internal/domain/analysis"
)

type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Upsert keyed on id. Owner, visibility, milestones and created_at survive
// updates so a retry rewrites the attempt without losing anything the user
// set on the record in the meantime.
const upsertRecord = `
INSERT INTO analysis_records
(id, user_id, is_public, created_at, updated_at, project_title, client_name,
 status, risk_score, risk_level, input_json, result_json, milestones_json, error_text)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 updated_at=VALUES(updated_at),
 project_title=VALUES(project_title), client_name=VALUES(client_name),
 status=VALUES(status), risk_score=VALUES(risk_score), risk_level=VALUES(risk_level),
 input_json=VALUES(input_json), result_json=VALUES(result_json),
 error_text=VALUES(error_text);
`

const selectRecord = `
SELECT id, user_id, is_public, created_at, updated_at, project_title, client_name,
       status, risk_score, risk_level, input_json, result_json, milestones_json, error_text
FROM analysis_records
`

// Read queries carrying the visibility rules. History is always scoped to one
// owner; the public feed only exposes completed, shared records.
const (
	historyQuery       = selectRecord + `WHERE user_id=? ORDER BY created_at DESC, id DESC;`
	publicQuery        = selectRecord + `WHERE is_public=1 AND status=? ORDER BY updated_at DESC, id DESC;`
	clientHistoryQuery = selectRecord + `WHERE status=? AND risk_level<>'' AND LOWER(client_name) LIKE ?`
)

// Conditional decrement: zero rows affected means the balance was already
// below one, so a concurrent burst can never oversell.
const deductOwnerCredit = `UPDATE users SET credits = credits - 1 WHERE id = ? AND credits >= 1;`

// Save insert/update Record
func (r *RecordRepository) Save(ctx context.Context, rec *domain.Record) error {
	args, err := upsertArgs(rec)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertRecord, args...)
	return err
}

// Complete saves the finished record and deducts one credit in one commit.
func (r *RecordRepository) Complete(ctx context.Context, rec *domain.Record, userID string) error {
	args, err := upsertArgs(rec)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsertRecord, args...); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, deductOwnerCredit, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("complete analysis %s: %w", rec.ID, accounts.ErrInsufficientCredits)
	}
	return tx.Commit()
}

// Get by ID, returns nil, nil on miss. Ownership is the caller's problem.
func (r *RecordRepository) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx, selectRecord+`WHERE id=? LIMIT 1;`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// History per user, newest first
func (r *RecordRepository) History(ctx context.Context, userID string) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, historyQuery, userID)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// Public lists completed, shared records across all users
func (r *RecordRepository) Public(ctx context.Context) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, publicQuery, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// SetVisibility hanya update kolom is_public
func (r *RecordRepository) SetVisibility(ctx context.Context, id domain.RecordID, public bool) error {
	const q = `UPDATE analysis_records SET is_public = ?, updated_at = ? WHERE id = ?;`
	_, err := r.db.ExecContext(ctx, q, public, time.Now(), id)
	return err
}

// ReplaceMilestones swaps the whole list; no partial patch semantics.
func (r *RecordRepository) ReplaceMilestones(ctx context.Context, id domain.RecordID, ms []domain.Milestone) error {
	blob, err := json.Marshal(ms)
	if err != nil {
		return err
	}
	const q = `UPDATE analysis_records SET milestones_json = ?, updated_at = ? WHERE id = ?;`
	_, err = r.db.ExecContext(ctx, q, string(blob), time.Now(), id)
	return err
}

// ClientHistory matches completed records with a known risk level whose client
// name contains the fragment. ownerID scopes the search to one user; empty
// means the shared cross-user view.
func (r *RecordRepository) ClientHistory(ctx context.Context, nameFragment string, ownerID string) ([]*domain.Record, error) {
	if strings.TrimSpace(nameFragment) == "" {
		return nil, nil
	}
	query := clientHistoryQuery
	args := []interface{}{domain.StatusCompleted, "%" + strings.ToLower(escapeLikePattern(nameFragment)) + "%"}
	if ownerID != "" {
		query += ` AND user_id=?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY updated_at DESC;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

//
// ==== row mapping ====
//

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		rec        domain.Record
		score      sql.NullInt64
		level      sql.NullString
		input      string
		result     sql.NullString
		milestones sql.NullString
		errText    sql.NullString
	)
	if err := row.Scan(
		&rec.ID, &rec.UserID, &rec.IsPublic, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.ProjectTitle, &rec.ClientName, &rec.Status,
		&score, &level, &input, &result, &milestones, &errText,
	); err != nil {
		return nil, err
	}
	if score.Valid {
		v := int(score.Int64)
		rec.RiskScore = &v
	}
	rec.RiskLevel = domain.RiskLevel(level.String)
	rec.Error = errText.String
	if err := json.Unmarshal([]byte(input), &rec.Input); err != nil {
		return nil, fmt.Errorf("decode input for record %s: %w", rec.ID, err)
	}
	if result.Valid && result.String != "" {
		var a domain.RiskAssessment
		if err := json.Unmarshal([]byte(result.String), &a); err != nil {
			return nil, fmt.Errorf("decode result for record %s: %w", rec.ID, err)
		}
		rec.Result = &a
	}
	if milestones.Valid && milestones.String != "" {
		if err := json.Unmarshal([]byte(milestones.String), &rec.Milestones); err != nil {
			return nil, fmt.Errorf("decode milestones for record %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*domain.Record, error) {
	defer rows.Close()
	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func upsertArgs(rec *domain.Record) ([]interface{}, error) {
	input, err := json.Marshal(rec.Input)
	if err != nil {
		return nil, err
	}
	var result interface{}
	if rec.Result != nil {
		blob, err := json.Marshal(rec.Result)
		if err != nil {
			return nil, err
		}
		result = string(blob)
	}
	var milestones interface{}
	if rec.Milestones != nil {
		blob, err := json.Marshal(rec.Milestones)
		if err != nil {
			return nil, err
		}
		milestones = string(blob)
	}
	var score interface{}
	if rec.RiskScore != nil {
		score = *rec.RiskScore
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	return []interface{}{
		rec.ID, rec.UserID, rec.IsPublic, created, updated,
		rec.ProjectTitle, rec.ClientName, rec.Status,
		score, string(rec.RiskLevel), string(input), result, milestones, rec.Error,
	}, nil
}

// escapeLikePattern escapes special characters in LIKE patterns to prevent SQL injection
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
