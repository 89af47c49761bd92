// Package admission decides whether an encrypted submission is accepted and,
// if so, commits its attachments and persists it.
//
// Gates run in a fixed order: public status, quota, CAPTCHA, filler
// authentication, then autofill verification. The first gate to reject
// ends the run with a Rejection.
package admission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/cryptox"
	"github.com/opengovsg/FormSG-sub011/internal/logging"
	"github.com/opengovsg/FormSG-sub011/internal/pipeline"
	"github.com/opengovsg/FormSG-sub011/internal/server/captcha"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/forms"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/submissions"
)

// Uploader commits all attachments of a submission or none.
type Uploader interface {
	Upload(ctx context.Context, formID string, payloads map[string]models.AttachmentPayload) (map[string]string, error)
}

// Deps are the collaborators of an Admitter.
type Deps struct {
	Forms       forms.Repository
	Submissions submissions.Repository
	Captcha     captcha.Verifier
	Autofill    AutofillVerifier
	Attachments Uploader
	Logger      logging.Logger
}

type Admitter struct {
	forms       forms.Repository
	submissions submissions.Repository
	attachments Uploader
	gates       []pipeline.Gate[*State]
	logger      logging.Logger
	now         func() time.Time
	newID       func() string
}

func NewAdmitter(d Deps) *Admitter {
	return &Admitter{
		forms:       d.Forms,
		submissions: d.Submissions,
		attachments: d.Attachments,
		gates: []pipeline.Gate[*State]{
			StatusGate{},
			QuotaGate{Forms: d.Forms},
			CaptchaGate{Verifier: d.Captcha},
			AuthGate{},
			AutofillGate{Verifier: d.Autofill},
		},
		logger: d.Logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Admit runs the admission pipeline for req. It returns the persisted
// submission, or an error that is a *Rejection.
func (a *Admitter) Admit(ctx context.Context, req *Request) (sub *models.Submission, err error) {
	if err := validateRequest(req); err != nil {
		a.logger.Warn(ctx, "malformed submission", "formId", req.FormID, "error", err)
		return nil, reject(ReasonMalformedSubmission, msgInvalidData, err)
	}

	form, err := a.forms.GetByID(ctx, req.FormID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, reject(ReasonFormUnavailable, msgFormNotFound, err)
	}
	if err != nil {
		a.logger.Error(ctx, "failed to load form", "formId", req.FormID, "error", err)
		return nil, reject(ReasonInternal, msgInternal, err)
	}

	state := newState(req, form, a.logger)
	defer func() {
		if err != nil && state.QuotaReserved {
			a.release(ctx, state)
		}
	}()

	completed, err := pipeline.Run(ctx, state, a.gates...)
	if err != nil {
		state.Logger().Error(ctx, "admission pipeline error", "error", err)
		return nil, reject(ReasonInternal, msgInternal, err)
	}
	if !completed {
		if state.Rejection == nil {
			return nil, reject(ReasonInternal, msgInternal, errors.New("pipeline stopped without a rejection"))
		}
		return nil, state.Rejection
	}

	return a.commit(ctx, state)
}

func (a *Admitter) commit(ctx context.Context, s *State) (*models.Submission, error) {
	req, form := s.Request, s.Form
	log := s.Logger()

	keys, err := a.attachments.Upload(ctx, form.ID, req.Attachments)
	if err != nil {
		log.Error(ctx, "attachment upload failed", "error", err)
		return nil, reject(ReasonAttachmentUploadFailed, msgUploadFailed, err)
	}

	var verified string
	if form.AuthType.RequiresIdentity() {
		verified, err = cryptox.SealVerifiedContent(form.PublicKey, buildVerifiedContent(form.AuthType, req.Session, s.Verified))
		if err != nil {
			log.Error(ctx, "unable to encrypt verified content", "error", err)
			return nil, reject(ReasonMalformedSubmission, msgInvalidData, err)
		}
	}

	sub := &models.Submission{
		ID:                 a.newID(),
		FormID:             form.ID,
		AuthType:           form.AuthType,
		EncryptedContent:   req.EncryptedContent,
		VerifiedContent:    verified,
		AttachmentMetadata: keys,
		Version:            req.Version,
		CreatedAt:          a.now().UTC(),
	}
	if s.Verified != nil {
		sub.AutofillFields = s.Verified.Attrs()
	}

	if err := a.submissions.Create(ctx, sub); err != nil {
		log.Error(ctx, "encrypt submission save error", "error", err)
		return nil, reject(ReasonInternal, msgInternal, err)
	}

	s.SetMeta("submissionId", sub.ID)
	if s.QuotaReserved {
		// the submission is stored; a failed count update must not reject it
		if err := a.forms.CommitSubmissionSlot(context.WithoutCancel(ctx), form.ID); err != nil {
			log.Error(ctx, "failed to commit submission slot", "error", err)
		}
	}
	s.Logger().Info(ctx, "saved submission")
	return sub, nil
}

func (a *Admitter) release(ctx context.Context, s *State) {
	if err := a.forms.ReleaseSubmissionSlot(context.WithoutCancel(ctx), s.Form.ID); err != nil {
		s.Logger().Error(ctx, "failed to release submission slot", "error", err)
	}
}
