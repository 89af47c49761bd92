// Package submissions persists accepted submissions and scans them back out.
package submissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/dbx"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

const selectColumns = `id, form_id, auth_type, encrypted_content, verified_content,
	attachment_metadata, autofill_fields, version, created_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts s. Attachment metadata and autofill fields are stored as jsonb.
func (r *PostgresRepository) Create(ctx context.Context, s *models.Submission) error {
	attachments, err := json.Marshal(nonNilMap(s.AttachmentMetadata))
	if err != nil {
		return fmt.Errorf("marshal attachment metadata: %w", err)
	}
	autofill, err := json.Marshal(nonNilSlice(s.AutofillFields))
	if err != nil {
		return fmt.Errorf("marshal autofill fields: %w", err)
	}

	query := `
		INSERT INTO submissions (id, form_id, auth_type, encrypted_content, verified_content,
			attachment_metadata, autofill_fields, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.FormID, string(s.AuthType), s.EncryptedContent, s.VerifiedContent,
		attachments, autofill, s.Version, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID loads one submission of formID.
func (r *PostgresRepository) GetByID(ctx context.Context, formID, id string) (*models.Submission, error) {
	query := `SELECT ` + selectColumns + ` FROM submissions WHERE id=$1 AND form_id=$2`

	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id, formID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// OpenCursor runs the query and hands back the open result set. Rows are
// decoded only as Next is called.
func (r *PostgresRepository) OpenCursor(ctx context.Context, q models.SubmissionQuery) (Cursor, error) {
	var (
		sb   strings.Builder
		args = []any{q.FormID}
	)
	sb.WriteString(`SELECT ` + selectColumns + ` FROM submissions WHERE form_id=$1`)
	if !q.Start.IsZero() {
		args = append(args, q.Start)
		fmt.Fprintf(&sb, " AND created_at >= $%d", len(args))
	}
	if !q.End.IsZero() {
		args = append(args, q.End)
		fmt.Fprintf(&sb, " AND created_at < $%d", len(args))
	}
	sb.WriteString(" ORDER BY created_at")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select submissions: %w", err)
	}
	return &rowsCursor{rows: rows}, nil
}

type rowsCursor struct {
	rows   *sql.Rows
	closed bool
}

func (c *rowsCursor) Next(ctx context.Context) (*models.Submission, error) {
	if c.closed {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return nil, fmt.Errorf("cursor error: %w", err)
		}
		return nil, io.EOF
	}
	return scanSubmission(c.rows)
}

func (c *rowsCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*models.Submission, error) {
	var (
		s           models.Submission
		authType    string
		attachments []byte
		autofill    []byte
	)
	if err := row.Scan(&s.ID, &s.FormID, &authType, &s.EncryptedContent, &s.VerifiedContent,
		&attachments, &autofill, &s.Version, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.AuthType = models.AuthType(authType)
	if err := json.Unmarshal(attachments, &s.AttachmentMetadata); err != nil {
		return nil, fmt.Errorf("decode attachment metadata: %w", err)
	}
	if err := json.Unmarshal(autofill, &s.AutofillFields); err != nil {
		return nil, fmt.Errorf("decode autofill fields: %w", err)
	}
	if len(s.AutofillFields) == 0 {
		s.AutofillFields = nil
	}
	return &s, nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
