package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/server/auth"
)

// sessionMiddleware attaches the bearer session, if valid, to the request
// context. Requests without one continue unauthenticated.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := auth.ParseToken(token, s.secret)
		if err != nil {
			s.logger.Info(r.Context(), "ignoring invalid session token", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "User is unauthorized.")
			return
		}
		if !sess.Admin {
			writeMessage(w, http.StatusForbidden, "User does not have access to this form.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireFormAdmin lets through only the owner or a collaborator of the form
// named in the route.
func (s *Server) requireFormAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		formID := chi.URLParam(r, "formId")

		form, err := s.forms.GetByID(ctx, formID)
		if errors.Is(err, common.ErrorNotFound) {
			writeMessage(w, http.StatusNotFound, "Form not found")
			return
		}
		if err != nil {
			s.logger.Error(ctx, "failed to load form", "formId", formID, "error", err)
			writeMessage(w, http.StatusInternalServerError, "Failed to retrieve submissions.")
			return
		}

		sess, _ := auth.SessionFromContext(ctx)
		if !form.HasAdmin(sess.Subject) {
			s.logger.Warn(ctx, "admin denied access to form", "formId", formID, "admin", sess.Subject)
			writeMessage(w, http.StatusForbidden, "User does not have access to this form.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
