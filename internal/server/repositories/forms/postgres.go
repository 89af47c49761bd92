// Package forms stores form definitions and their submission counters.
package forms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/dbx"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new form.
func (r *PostgresRepository) Create(ctx context.Context, f *models.Form) error {
	query := `
		INSERT INTO forms (id, title, status, auth_type, has_captcha, submission_limit,
			submission_count, pending_count, public_key, inactive_message, autofill_required,
			admin_email, collaborators)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	var limit sql.NullInt64
	if f.SubmissionLimit != nil {
		limit = sql.NullInt64{Int64: int64(*f.SubmissionLimit), Valid: true}
	}
	collaborators := f.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}
	rawCollaborators, err := json.Marshal(collaborators)
	if err != nil {
		return fmt.Errorf("marshal collaborators: %w", err)
	}
	_, err = r.db.ExecContext(ctx, query,
		f.ID, f.Title, string(f.Status), string(f.AuthType), f.HasCaptcha, limit,
		f.SubmissionCount, f.PendingCount, f.PublicKey, f.InactiveMessage, f.AutofillRequired,
		f.AdminEmail, rawCollaborators)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID loads a form by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Form, error) {
	query := `
		SELECT id, title, status, auth_type, has_captcha, submission_limit,
			submission_count, pending_count, public_key, inactive_message, autofill_required,
			admin_email, collaborators
		FROM forms WHERE id=$1
	`
	var (
		f             models.Form
		status        string
		auth          string
		limit         sql.NullInt64
		collaborators []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&f.ID, &f.Title, &status, &auth, &f.HasCaptcha, &limit,
		&f.SubmissionCount, &f.PendingCount, &f.PublicKey, &f.InactiveMessage, &f.AutofillRequired,
		&f.AdminEmail, &collaborators)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	f.Status = models.FormStatus(status)
	f.AuthType = models.AuthType(auth)
	if limit.Valid {
		n := int(limit.Int64)
		f.SubmissionLimit = &n
	}
	if len(collaborators) > 0 {
		if err := json.Unmarshal(collaborators, &f.Collaborators); err != nil {
			return nil, fmt.Errorf("decode collaborators: %w", err)
		}
	}
	return &f, nil
}

// ReserveSubmissionSlot takes a pending slot while persisted plus pending
// submissions stay under the limit. When the persisted count alone has
// reached the limit the form is made private instead. The row is locked by
// the CTE, so concurrent callers are serialized on the counters.
func (r *PostgresRepository) ReserveSubmissionSlot(ctx context.Context, id string) (bool, error) {
	query := `
		WITH prev AS (
			SELECT id, submission_count, pending_count, submission_limit
			FROM forms WHERE id=$1 AND status='PUBLIC'
			FOR UPDATE
		)
		UPDATE forms f SET
			pending_count = CASE
				WHEN prev.submission_limit IS NULL
					OR prev.submission_count + prev.pending_count < prev.submission_limit
				THEN f.pending_count + 1 ELSE f.pending_count END,
			status = CASE
				WHEN prev.submission_limit IS NOT NULL AND prev.submission_count >= prev.submission_limit
				THEN 'PRIVATE' ELSE f.status END
		FROM prev WHERE f.id = prev.id
		RETURNING (prev.submission_limit IS NULL
			OR prev.submission_count + prev.pending_count < prev.submission_limit)
	`
	var admitted bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&admitted)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotPublic
	}
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return admitted, nil
}

// ReleaseSubmissionSlot returns a pending slot, never going below zero.
func (r *PostgresRepository) ReleaseSubmissionSlot(ctx context.Context, id string) error {
	query := `UPDATE forms SET pending_count = pending_count - 1 WHERE id=$1 AND pending_count > 0`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// CommitSubmissionSlot moves a pending slot to the persisted count.
func (r *PostgresRepository) CommitSubmissionSlot(ctx context.Context, id string) error {
	query := `UPDATE forms SET pending_count = GREATEST(pending_count - 1, 0), submission_count = submission_count + 1 WHERE id=$1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
