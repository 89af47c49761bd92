package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opengovsg/FormSG-sub011/internal/server/admission"
	"github.com/opengovsg/FormSG-sub011/internal/server/auth"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

const maxSubmissionBytes = 20 << 20

type submitRequest struct {
	EncryptedContent string                              `json:"encryptedContent"`
	Attachments      map[string]models.AttachmentPayload `json:"attachments"`
	Responses        []models.AutofillResponse           `json:"responses"`
	Version          int                                 `json:"version"`
}

type submitResponse struct {
	Message      string `json:"message"`
	SubmissionID string `json:"submissionId"`
	Timestamp    int64  `json:"timestamp"`
}

func (s *Server) submitEncrypted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	formID := chi.URLParam(r, "formId")

	var body submitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes))
	if err := dec.Decode(&body); err != nil {
		s.logger.Warn(ctx, "unable to decode submission", "formId", formID, "error", err)
		writeMessage(w, http.StatusBadRequest, "Invalid data was found. Please submit again.")
		return
	}

	req := &admission.Request{
		FormID:            formID,
		EncryptedContent:  body.EncryptedContent,
		Attachments:       body.Attachments,
		AutofillResponses: body.Responses,
		Version:           body.Version,
		CaptchaToken:      r.URL.Query().Get("captchaResponse"),
		RemoteIP:          remoteIP(r),
	}
	if sess, ok := auth.SessionFromContext(ctx); ok {
		req.Session = sess
	}

	sub, err := s.admitter.Admit(ctx, req)
	if err != nil {
		var rej *admission.Rejection
		if !errors.As(err, &rej) {
			s.logger.Error(ctx, "unexpected admission error", "formId", formID, "error", err)
			writeMessage(w, http.StatusInternalServerError, "Could not send submission.")
			return
		}
		writeMessage(w, statusForReason(rej.Reason), rej.Message)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Message:      "Form submission successful.",
		SubmissionID: sub.ID,
		Timestamp:    sub.CreatedAt.UnixMilli(),
	})
}

// remoteIP strips the port from the peer address. RealIP has already
// replaced it with the forwarded client address when one is present.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
