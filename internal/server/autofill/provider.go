package autofill

import (
	"context"
	"slices"

	"github.com/opengovsg/FormSG-sub011/internal/server/auth"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

// Provider returns the values the identity provider supplied for a filler.
// Only these values may be recorded for verification.
type Provider interface {
	Fetch(ctx context.Context, sess *auth.Session, formID string) ([]models.PrefilledField, error)
}

// SessionProvider serves the prefill signed into the session token at login.
type SessionProvider struct{}

func (SessionProvider) Fetch(_ context.Context, sess *auth.Session, _ string) ([]models.PrefilledField, error) {
	if sess == nil {
		return nil, nil
	}
	return slices.Clone(sess.Prefill), nil
}
