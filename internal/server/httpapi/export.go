package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/server/auth"
	"github.com/opengovsg/FormSG-sub011/internal/server/export"
)

func (s *Server) downloadSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	formID := chi.URLParam(r, "formId")
	q := r.URL.Query()

	start, end, err := export.ParseDateRange(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid date range.")
		return
	}

	body, err := s.exporter.Open(ctx, export.Query{
		FormID:             formID,
		Start:              start,
		End:                end,
		IncludeAttachments: includeAttachments(r),
		URLValidity:        s.urlValidity(r),
	})
	if errors.Is(err, export.ErrInvalidValidity) {
		writeMessage(w, http.StatusUnauthorized, "Your session has expired.")
		return
	}
	if err != nil {
		s.logger.Error(ctx, "failed to start export", "formId", formID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to retrieve submissions.")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", common.NDJSONContentType)
	w.WriteHeader(http.StatusOK)

	if err := copyFlushing(w, body); err != nil {
		s.logger.Error(ctx, "export stream ended with error", "formId", formID, "error", err)
	}
}

func (s *Server) getSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	formID := chi.URLParam(r, "formId")
	id := chi.URLParam(r, "submissionId")

	sub, err := s.exporter.GetOne(ctx, formID, id, includeAttachments(r), s.urlValidity(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sub)
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, "Submission not found")
	case errors.Is(err, export.ErrInvalidValidity):
		writeMessage(w, http.StatusUnauthorized, "Your session has expired.")
	default:
		s.logger.Error(ctx, "failed to get submission", "formId", formID, "submissionId", id, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to retrieve submission.")
	}
}

// includeAttachments reports whether signed attachment URLs were requested.
// Both export routes default to leaving them out.
func includeAttachments(r *http.Request) bool {
	return r.URL.Query().Get("downloadAttachments") == "true"
}

// urlValidity caps signed URL lifetime at the remaining session lifetime.
func (s *Server) urlValidity(r *http.Request) time.Duration {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		return 0
	}
	return min(s.maxURLValidity, sess.RemainingLifetime(s.now()))
}

// copyFlushing copies src to w, flushing after every chunk so records reach
// the client as they are produced.
func copyFlushing(w http.ResponseWriter, src io.Reader) error {
	rc := http.NewResponseController(w)
	buf := make([]byte, 32<<10)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			_ = rc.Flush()
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
