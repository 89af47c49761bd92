package autofillhashes

import (
	"context"
	"time"

	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

// Repository stores autofill hash records, one per (hashed identity, form).
type Repository interface {
	// Upsert writes rec, replacing any record for the same key.
	Upsert(ctx context.Context, rec *models.AutofillHashRecord) error
	// Find returns the record unexpired at now, or common.ErrorNotFound.
	Find(ctx context.Context, hashedIdentity, formID string, now time.Time) (*models.AutofillHashRecord, error)
}
