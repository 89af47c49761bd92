package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/opengovsg/FormSG-sub011/internal/server/admission"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

var reasonStatus = map[admission.Reason]int{
	admission.ReasonMalformedSubmission:             http.StatusBadRequest,
	admission.ReasonFormUnavailable:                 http.StatusNotFound,
	admission.ReasonFormArchived:                    http.StatusGone,
	admission.ReasonQuotaExceeded:                   http.StatusNotFound,
	admission.ReasonCaptchaMissing:                  http.StatusBadRequest,
	admission.ReasonCaptchaIncorrect:                http.StatusBadRequest,
	admission.ReasonCaptchaUnreachable:              http.StatusBadRequest,
	admission.ReasonAuthenticationRequired:          http.StatusUnauthorized,
	admission.ReasonAutofillVerificationExpired:     http.StatusGone,
	admission.ReasonAutofillVerificationFailed:      http.StatusUnauthorized,
	admission.ReasonAutofillVerificationUnavailable: http.StatusServiceUnavailable,
	admission.ReasonAttachmentUploadFailed:          http.StatusBadRequest,
	admission.ReasonInternal:                        http.StatusInternalServerError,
}

// statusForReason maps a rejection reason to its HTTP status. Unknown
// reasons are server errors.
func statusForReason(r admission.Reason) int {
	if code, ok := reasonStatus[r]; ok {
		return code
	}
	return http.StatusInternalServerError
}
