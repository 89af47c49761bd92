// Package httpapi exposes submission admission, autofill recording and
// submission export over HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opengovsg/FormSG-sub011/internal/logging"
	"github.com/opengovsg/FormSG-sub011/internal/server/admission"
	"github.com/opengovsg/FormSG-sub011/internal/server/auth"
	"github.com/opengovsg/FormSG-sub011/internal/server/export"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/forms"
)

const shutdownTimeout = 10 * time.Second

// Admitter admits or rejects one submission.
type Admitter interface {
	Admit(ctx context.Context, req *admission.Request) (*models.Submission, error)
}

// AutofillRecorder stores hashes of prefilled read-only values.
type AutofillRecorder interface {
	Record(ctx context.Context, identity, formID string, fields []models.PrefilledField, ttl time.Duration) (*models.AutofillHashRecord, error)
}

// PrefillProvider returns the values the identity provider supplied for a
// filler session.
type PrefillProvider interface {
	Fetch(ctx context.Context, sess *auth.Session, formID string) ([]models.PrefilledField, error)
}

// Exporter streams or looks up accepted submissions.
type Exporter interface {
	Open(ctx context.Context, q export.Query) (io.ReadCloser, error)
	GetOne(ctx context.Context, formID, id string, includeAttachments bool, validity time.Duration) (*models.Submission, error)
}

// Deps are the collaborators of a Server.
type Deps struct {
	Forms         forms.Repository
	Admitter      Admitter
	Autofill      AutofillRecorder
	Prefill       PrefillProvider
	Exporter      Exporter
	SessionSecret []byte
	// MaxURLValidity bounds the lifetime of signed attachment URLs.
	MaxURLValidity time.Duration
	Logger         logging.Logger
}

type Server struct {
	address        string
	forms          forms.Repository
	admitter       Admitter
	autofill       AutofillRecorder
	prefill        PrefillProvider
	exporter       Exporter
	secret         []byte
	maxURLValidity time.Duration
	logger         logging.Logger
	now            func() time.Time
}

func NewServer(address string, d Deps) *Server {
	return &Server{
		address:        address,
		forms:          d.Forms,
		admitter:       d.Admitter,
		autofill:       d.Autofill,
		prefill:        d.Prefill,
		exporter:       d.Exporter,
		secret:         d.SessionSecret,
		maxURLValidity: d.MaxURLValidity,
		logger:         d.Logger.With("module", "http_server"),
		now:            time.Now,
	}
}

// Routes builds the request router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.sessionMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v3", func(r chi.Router) {
		r.Post("/forms/{formId}/submissions/encrypt", s.submitEncrypted)
		r.Post("/forms/{formId}/autofill", s.recordAutofill)

		r.Route("/admin/forms/{formId}/submissions", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Use(s.requireFormAdmin)
			r.Get("/download", s.downloadSubmissions)
			r.Get("/{submissionId}", s.getSubmission)
		})
	})
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
