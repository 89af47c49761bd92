package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/server/auth"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

type recordAutofillResponse struct {
	ExpireAt time.Time               `json:"expireAt"`
	Fields   []models.PrefilledField `json:"fields"`
}

// recordAutofill stores hashes of the values the identity provider returned
// for the session's identity and hands those values to the client. The
// request body is ignored. Records stay valid for the rest of the session.
func (s *Server) recordAutofill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	formID := chi.URLParam(r, "formId")

	sess, ok := auth.SessionFromContext(ctx)
	if !ok || sess.Admin {
		writeMessage(w, http.StatusUnauthorized, "Please log in before filling this form.")
		return
	}
	ttl := sess.RemainingLifetime(s.now())
	if ttl <= 0 {
		writeMessage(w, http.StatusUnauthorized, "Your session has expired.")
		return
	}

	form, err := s.forms.GetByID(ctx, formID)
	if errors.Is(err, common.ErrorNotFound) {
		writeMessage(w, http.StatusNotFound, "Form not found")
		return
	}
	if err != nil {
		s.logger.Error(ctx, "failed to load form", "formId", formID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	if form.AuthType != sess.AuthType {
		writeMessage(w, http.StatusUnauthorized, "Please log in before filling this form.")
		return
	}

	fields, err := s.prefill.Fetch(ctx, sess, formID)
	if err != nil {
		s.logger.Error(ctx, "failed to fetch prefilled values", "formId", formID, "error", err)
		writeMessage(w, http.StatusBadGateway, "Unable to retrieve your details. Please try again.")
		return
	}

	rec, err := s.autofill.Record(ctx, sess.Subject, formID, fields, ttl)
	if err != nil {
		s.logger.Error(ctx, "failed to record autofill hashes", "formId", formID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	if fields == nil {
		fields = []models.PrefilledField{}
	}
	writeJSON(w, http.StatusOK, recordAutofillResponse{ExpireAt: rec.ExpireAt, Fields: fields})
}
