package admission

import (
	"errors"
	"fmt"
)

// Reason classifies why a submission was not admitted.
type Reason string

const (
	ReasonMalformedSubmission             Reason = "MalformedSubmission"
	ReasonFormUnavailable                 Reason = "FormUnavailable"
	ReasonFormArchived                    Reason = "FormArchived"
	ReasonQuotaExceeded                   Reason = "QuotaExceeded"
	ReasonCaptchaMissing                  Reason = "CaptchaMissing"
	ReasonCaptchaIncorrect                Reason = "CaptchaIncorrect"
	ReasonCaptchaUnreachable              Reason = "CaptchaUnreachable"
	ReasonAuthenticationRequired          Reason = "AuthenticationRequired"
	ReasonAutofillVerificationExpired     Reason = "AutofillVerificationExpired"
	ReasonAutofillVerificationFailed      Reason = "AutofillVerificationFailed"
	ReasonAutofillVerificationUnavailable Reason = "AutofillVerificationUnavailable"
	ReasonAttachmentUploadFailed          Reason = "AttachmentUploadFailed"
	ReasonInternal                        Reason = "Internal"
)

const (
	msgFormNotFound       = "Form not found"
	msgFormArchived       = "This form is no longer active"
	msgDefaultInactive    = "This form is no longer active"
	msgCaptchaMissing     = "Captcha was missing. Please refresh and submit again."
	msgCaptchaIncorrect   = "Incorrect Captcha parameters. Please refresh and submit again."
	msgCaptchaUnreachable = "Error while connecting to Captcha server. Please try again later."
	msgLoginRequired      = "Please log in before submitting this form."
	msgAutofillExpired    = "Autofill verification expired, please refresh and try again."
	msgAutofillFailed     = "Autofill verification failed."
	msgAutofillDown       = "Autofill verification unavailable, please try again later."
	msgUploadFailed       = "Could not upload attachments for submission. For assistance, please contact the person who asked you to fill in this form."
	msgInvalidData        = "Invalid data was found. Please submit again."
	msgInternal           = "Could not send submission. For assistance, please contact the person who asked you to fill in this form."
)

// Rejection is the terminal outcome of a submission that was not admitted.
// Message is safe to show to the filler; Err is for logs only.
type Rejection struct {
	Reason  Reason
	Message string
	Err     error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Reason, r.Err)
	}
	return string(r.Reason)
}

func (r *Rejection) Unwrap() error { return r.Err }

func reject(reason Reason, msg string, err error) *Rejection {
	return &Rejection{Reason: reason, Message: msg, Err: err}
}

// ReasonOf extracts the rejection reason from err. Errors that carry no
// Rejection are reported as ReasonInternal.
func ReasonOf(err error) Reason {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason
	}
	return ReasonInternal
}
