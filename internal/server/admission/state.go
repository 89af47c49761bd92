package admission

import (
	"maps"
	"slices"

	"github.com/opengovsg/FormSG-sub011/internal/logging"
	"github.com/opengovsg/FormSG-sub011/internal/server/auth"
	"github.com/opengovsg/FormSG-sub011/internal/server/autofill"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

// Request is an inbound encrypted submission.
type Request struct {
	FormID           string
	EncryptedContent string
	// Attachments maps field id to its client-encrypted payload.
	Attachments map[string]models.AttachmentPayload
	// AutofillResponses are the answers to autofill-bound fields.
	AutofillResponses []models.AutofillResponse
	Version           int
	CaptchaToken      string
	RemoteIP          string
	// Session is the caller's session, nil when unauthenticated.
	Session *auth.Session
}

// State is threaded through the gates of one admission run and is owned by
// that run alone.
type State struct {
	Request *Request
	Form    *models.Form

	// Rejection is set by the gate that ends the run.
	Rejection *Rejection
	// QuotaReserved records that a slot was taken and must be released if
	// the submission is not persisted.
	QuotaReserved bool
	// Verified holds the autofill values that passed verification.
	Verified *autofill.Verified

	meta   map[string]any
	logger logging.Logger
}

func newState(req *Request, form *models.Form, logger logging.Logger) *State {
	return &State{
		Request: req,
		Form:    form,
		meta: map[string]any{
			"action": "submitEncryptedForm",
			"formId": req.FormID,
			"ip":     req.RemoteIP,
		},
		logger: logger,
	}
}

// SetMeta adds a key to the log metadata of the run.
func (s *State) SetMeta(key string, value any) {
	s.meta[key] = value
}

// Logger returns a logger carrying the run's log metadata.
func (s *State) Logger() logging.Logger {
	return s.logger.With(s.metaArgs()...)
}

func (s *State) metaArgs() []any {
	keys := slices.Sorted(maps.Keys(s.meta))
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, s.meta[k])
	}
	return args
}

// Reject records the terminal outcome. The gate must return without
// calling next.
func (s *State) Reject(reason Reason, msg string, err error) {
	s.Rejection = reject(reason, msg, err)
}
