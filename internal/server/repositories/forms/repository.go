package forms

import (
	"context"
	"errors"

	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

// ErrNotPublic is returned by ReserveSubmissionSlot when the form is missing
// or stopped accepting responses after it was loaded.
var ErrNotPublic = errors.New("form is not public")

// Repository is the form lookup and quota capability of the document store.
//
// A quota slot moves through two counters: ReserveSubmissionSlot takes a
// pending slot, which is later either returned by ReleaseSubmissionSlot or
// turned into a persisted submission by CommitSubmissionSlot.
type Repository interface {
	Create(ctx context.Context, form *models.Form) error
	// GetByID returns common.ErrorNotFound when no form has the id.
	GetByID(ctx context.Context, id string) (*models.Form, error)
	// ReserveSubmissionSlot atomically takes one pending slot. It reports
	// false when persisted plus pending submissions already fill the limit.
	// The form is switched to private in the same operation only when the
	// persisted count alone has reached the limit.
	ReserveSubmissionSlot(ctx context.Context, id string) (bool, error)
	// ReleaseSubmissionSlot returns a pending slot.
	ReleaseSubmissionSlot(ctx context.Context, id string) error
	// CommitSubmissionSlot converts a pending slot into a persisted one.
	CommitSubmissionSlot(ctx context.Context, id string) error
}
