// Package autofillhashes persists one-way hashes of autofill values.
package autofillhashes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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

// Upsert inserts rec or overwrites the existing row for its key.
func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.AutofillHashRecord) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	query := `
		INSERT INTO autofill_hashes (hashed_identity, form_id, fields, expire_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (hashed_identity, form_id)
		DO UPDATE SET
			fields = EXCLUDED.fields,
			expire_at = EXCLUDED.expire_at,
			created_at = EXCLUDED.created_at
	`
	_, err = r.db.ExecContext(ctx, query, rec.HashedIdentity, rec.FormID, fields, rec.ExpireAt, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find loads the record for the key if it expires after now.
func (r *PostgresRepository) Find(ctx context.Context, hashedIdentity, formID string, now time.Time) (*models.AutofillHashRecord, error) {
	query := `
		SELECT hashed_identity, form_id, fields, expire_at, created_at
		FROM autofill_hashes
		WHERE hashed_identity=$1 AND form_id=$2 AND expire_at > $3
	`
	var (
		rec    models.AutofillHashRecord
		fields []byte
	)
	err := r.db.QueryRowContext(ctx, query, hashedIdentity, formID, now).
		Scan(&rec.HashedIdentity, &rec.FormID, &fields, &rec.ExpireAt, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal(fields, &rec.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return &rec, nil
}
