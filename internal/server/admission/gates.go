package admission

import (
	"context"
	"errors"

	"github.com/opengovsg/FormSG-sub011/internal/pipeline"
	"github.com/opengovsg/FormSG-sub011/internal/server/autofill"
	"github.com/opengovsg/FormSG-sub011/internal/server/captcha"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/forms"
)

// AutofillVerifier checks resubmitted autofill values.
type AutofillVerifier interface {
	Verify(ctx context.Context, identity, formID string, responses []models.AutofillResponse) (*autofill.Verified, error)
}

// StatusGate admits only public forms.
type StatusGate struct{}

func (StatusGate) Handle(ctx context.Context, s *State, next pipeline.Next) error {
	switch s.Form.Status {
	case models.FormStatusPublic:
		return next(ctx)
	case models.FormStatusArchived:
		s.Logger().Warn(ctx, "attempted submission to archived form")
		s.Reject(ReasonFormArchived, msgFormArchived, nil)
	default:
		s.Logger().Warn(ctx, "attempted submission to private form", "status", s.Form.Status)
		s.Reject(ReasonFormUnavailable, inactiveMessage(s.Form), nil)
	}
	return nil
}

// QuotaGate takes a pending submission slot. The store deactivates the form
// once persisted submissions have reached the limit.
type QuotaGate struct {
	Forms forms.Repository
}

func (g QuotaGate) Handle(ctx context.Context, s *State, next pipeline.Next) error {
	ok, err := g.Forms.ReserveSubmissionSlot(ctx, s.Form.ID)
	if errors.Is(err, forms.ErrNotPublic) {
		s.Logger().Warn(ctx, "form closed while admitting submission")
		s.Reject(ReasonFormUnavailable, inactiveMessage(s.Form), err)
		return nil
	}
	if err != nil {
		return err
	}
	if !ok {
		s.Logger().Warn(ctx, "form submission limit reached", "submissionLimit", s.Form.SubmissionLimit)
		s.Reject(ReasonQuotaExceeded, inactiveMessage(s.Form), nil)
		return nil
	}
	s.QuotaReserved = true
	return next(ctx)
}

// CaptchaGate verifies the CAPTCHA token for forms that require one.
type CaptchaGate struct {
	Verifier captcha.Verifier
}

func (g CaptchaGate) Handle(ctx context.Context, s *State, next pipeline.Next) error {
	if !s.Form.HasCaptcha {
		return next(ctx)
	}

	err := g.Verifier.Verify(ctx, s.Request.CaptchaToken, s.Request.RemoteIP)
	switch {
	case err == nil:
		return next(ctx)
	case errors.Is(err, captcha.ErrMissingToken):
		s.Logger().Error(ctx, "missing captcha response", "error", err)
		s.Reject(ReasonCaptchaMissing, msgCaptchaMissing, err)
	case errors.Is(err, captcha.ErrIncorrect):
		s.Logger().Error(ctx, "incorrect captcha response", "error", err)
		s.Reject(ReasonCaptchaIncorrect, msgCaptchaIncorrect, err)
	default:
		s.Logger().Error(ctx, "error while verifying captcha", "error", err)
		s.Reject(ReasonCaptchaUnreachable, msgCaptchaUnreachable, err)
	}
	return nil
}

// AuthGate requires a filler session issued by the form's identity provider.
type AuthGate struct{}

func (AuthGate) Handle(ctx context.Context, s *State, next pipeline.Next) error {
	if !s.Form.AuthType.RequiresIdentity() {
		return next(ctx)
	}
	sess := s.Request.Session
	if sess == nil || sess.Admin || sess.Subject == "" || sess.AuthType != s.Form.AuthType {
		s.Logger().Warn(ctx, "submission without valid filler session", "authType", s.Form.AuthType)
		s.Reject(ReasonAuthenticationRequired, msgLoginRequired, nil)
		return nil
	}
	return next(ctx)
}

// AutofillGate verifies resubmitted autofill values on forms that carry them.
type AutofillGate struct {
	Verifier AutofillVerifier
}

func (g AutofillGate) Handle(ctx context.Context, s *State, next pipeline.Next) error {
	if !s.Form.AutofillRequired {
		return next(ctx)
	}

	var identity string
	if s.Request.Session != nil {
		identity = s.Request.Session.Subject
	}

	verified, err := g.Verifier.Verify(ctx, identity, s.Form.ID, s.Request.AutofillResponses)
	if err != nil {
		var mismatch *autofill.MismatchError
		switch {
		case errors.Is(err, autofill.ErrExpired):
			s.Reject(ReasonAutofillVerificationExpired, msgAutofillExpired, err)
		case errors.As(err, &mismatch):
			s.Logger().Error(ctx, "autofill verification failed", "failedFields", mismatch.Attrs)
			s.Reject(ReasonAutofillVerificationFailed, msgAutofillFailed, err)
		default:
			s.Logger().Error(ctx, "autofill verification unavailable", "error", err)
			s.Reject(ReasonAutofillVerificationUnavailable, msgAutofillDown, err)
		}
		return nil
	}

	s.Verified = verified
	s.SetMeta("autofillFields", verified.Attrs())
	return next(ctx)
}

func inactiveMessage(f *models.Form) string {
	if f.InactiveMessage != "" {
		return f.InactiveMessage
	}
	return msgDefaultInactive
}
