package postgres

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

const upsertRecord = `
INSERT INTO analysis_records
(id, user_id, is_public, created_at, updated_at, project_title, client_name,
 status, risk_score, risk_level, input_json, result_json, milestones_json, error_text)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (id) DO UPDATE SET
 updated_at=EXCLUDED.updated_at,
 project_title=EXCLUDED.project_title, client_name=EXCLUDED.client_name,
 status=EXCLUDED.status, risk_score=EXCLUDED.risk_score, risk_level=EXCLUDED.risk_level,
 input_json=EXCLUDED.input_json, result_json=EXCLUDED.result_json,
 error_text=EXCLUDED.error_text;
`

const selectRecord = `
SELECT id, user_id, is_public, created_at, updated_at, project_title, client_name,
       status, risk_score, risk_level, input_json, result_json, milestones_json, error_text
FROM analysis_records
`

// Read queries carrying the visibility rules. History is always scoped to one
// owner; the public feed only exposes completed, shared records.
const (
	historyQuery       = selectRecord + `WHERE user_id=$1 ORDER BY created_at DESC, id DESC;`
	publicQuery        = selectRecord + `WHERE is_public AND status=$1 ORDER BY updated_at DESC, id DESC;`
	clientHistoryQuery = selectRecord + `WHERE status=$1 AND risk_level<>'' AND client_name ILIKE $2`
)

// Conditional decrement: zero rows affected means the balance was already
// below one, so a concurrent burst can never oversell.
const deductOwnerCredit = `UPDATE users SET credits = credits - 1 WHERE id = $1 AND credits >= 1;`

func (r *RecordRepository) Save(ctx context.Context, rec *domain.Record) error {
	args, err := upsertArgs(rec)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertRecord, args...)
	return err
}

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

func (r *RecordRepository) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx, selectRecord+`WHERE id=$1 LIMIT 1;`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (r *RecordRepository) History(ctx context.Context, userID string) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, historyQuery, userID)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *RecordRepository) Public(ctx context.Context) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, publicQuery, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *RecordRepository) SetVisibility(ctx context.Context, id domain.RecordID, public bool) error {
	const q = `UPDATE analysis_records SET is_public = $1, updated_at = $2 WHERE id = $3;`
	_, err := r.db.ExecContext(ctx, q, public, time.Now(), id)
	return err
}

func (r *RecordRepository) ReplaceMilestones(ctx context.Context, id domain.RecordID, ms []domain.Milestone) error {
	blob, err := json.Marshal(ms)
	if err != nil {
		return err
	}
	const q = `UPDATE analysis_records SET milestones_json = $1, updated_at = $2 WHERE id = $3;`
	_, err = r.db.ExecContext(ctx, q, string(blob), time.Now(), id)
	return err
}

func (r *RecordRepository) ClientHistory(ctx context.Context, nameFragment string, ownerID string) ([]*domain.Record, error) {
	if strings.TrimSpace(nameFragment) == "" {
		return nil, nil
	}
	query := clientHistoryQuery
	args := []interface{}{domain.StatusCompleted, "%" + escapeLikePattern(nameFragment) + "%"}
	if ownerID != "" {
		query += ` AND user_id=$3`
		args = append(args, ownerID)
	}
	query += ` ORDER BY updated_at DESC;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

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

func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
