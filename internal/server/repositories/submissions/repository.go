package submissions

import (
	"context"

	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

// Repository is the submission capability of the document store.
type Repository interface {
	Create(ctx context.Context, s *models.Submission) error
	// GetByID returns common.ErrorNotFound when the form has no such submission.
	GetByID(ctx context.Context, formID, id string) (*models.Submission, error)
	// OpenCursor starts a creation-ordered scan. The caller must Close it.
	OpenCursor(ctx context.Context, q models.SubmissionQuery) (Cursor, error)
}

// Cursor yields submissions one at a time. Next returns io.EOF once the
// result set is exhausted. Close is idempotent.
type Cursor interface {
	Next(ctx context.Context) (*models.Submission, error)
	Close() error
}
