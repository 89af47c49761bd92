// Package export streams a form's accepted submissions to an authorized
// caller, one JSON record per line, replacing attachment keys with signed
// read URLs on request.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"time"

	"github.com/opengovsg/FormSG-sub011/internal/logging"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/submissions"
)

// Signer vends time-limited read URLs for blob keys.
type Signer interface {
	SignReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Query selects what to export. Start is inclusive and End exclusive; zero
// values leave the range open.
type Query struct {
	FormID             string
	Start              time.Time
	End                time.Time
	IncludeAttachments bool
	// URLValidity is how long signed attachment URLs stay valid.
	URLValidity time.Duration
}

// StreamError reports the stage at which an export stopped.
type StreamError struct {
	Op  string
	Err error
}

func (e *StreamError) Error() string { return fmt.Sprintf("export %s: %v", e.Op, e.Err) }

func (e *StreamError) Unwrap() error { return e.Err }

// ErrInvalidValidity is returned when attachments are requested with a
// non-positive URL validity.
var ErrInvalidValidity = errors.New("url validity must be positive")

type Streamer struct {
	submissions submissions.Repository
	signer      Signer
	logger      logging.Logger
}

func NewStreamer(repo submissions.Repository, signer Signer, logger logging.Logger) *Streamer {
	return &Streamer{submissions: repo, signer: signer, logger: logger}
}

// Stream writes every submission matching q to w as newline-delimited JSON.
// Records are pulled from the cursor one at a time, so a slow writer slows
// the scan. A positive URLValidity also bounds the whole export, so no
// record is sent after its signed URLs expire. The cursor is closed on every
// return path. It returns the number of records written.
func (s *Streamer) Stream(ctx context.Context, w io.Writer, q Query) (int, error) {
	ctx, cancel := withValidity(ctx, q)
	defer cancel()

	cur, err := s.open(ctx, q)
	if err != nil {
		return 0, err
	}
	defer s.closeCursor(ctx, q.FormID, cur)

	return s.drain(ctx, cur, w, q)
}

// Open starts an export and returns its output as a reader. Closing the
// reader stops the export and closes the cursor before Close returns. The
// export is bounded by URLValidity like Stream; once it expires, reads fail
// with a *StreamError even if the consumer stopped reading.
func (s *Streamer) Open(ctx context.Context, q Query) (io.ReadCloser, error) {
	ctx, cancel := withValidity(ctx, q)
	cur, err := s.open(ctx, q)
	if err != nil {
		cancel()
		return nil, err
	}

	pr, pw := io.Pipe()
	done := make(chan struct{})

	// a pipe write blocked on a stalled reader does not watch ctx
	stop := context.AfterFunc(ctx, func() {
		pw.CloseWithError(&StreamError{Op: "read", Err: ctx.Err()})
	})

	go func() {
		defer close(done)
		defer stop()
		defer s.closeCursor(ctx, q.FormID, cur)
		_, err := s.drain(ctx, cur, pw, q)
		pw.CloseWithError(err)
	}()

	return &streamReader{PipeReader: pr, cancel: cancel, done: done}, nil
}

// GetOne returns a single submission, enriched like a streamed record.
func (s *Streamer) GetOne(ctx context.Context, formID, id string, includeAttachments bool, validity time.Duration) (*models.Submission, error) {
	if includeAttachments && validity <= 0 {
		return nil, ErrInvalidValidity
	}
	sub, err := s.submissions.GetByID(ctx, formID, id)
	if err != nil {
		return nil, err
	}
	if includeAttachments {
		if err := s.signAttachments(ctx, sub, validity); err != nil {
			return nil, &StreamError{Op: "sign", Err: err}
		}
	}
	return sub, nil
}

func withValidity(ctx context.Context, q Query) (context.Context, context.CancelFunc) {
	if q.URLValidity > 0 {
		return context.WithTimeout(ctx, q.URLValidity)
	}
	return context.WithCancel(ctx)
}

func (s *Streamer) open(ctx context.Context, q Query) (submissions.Cursor, error) {
	if q.IncludeAttachments && q.URLValidity <= 0 {
		return nil, ErrInvalidValidity
	}
	cur, err := s.submissions.OpenCursor(ctx, models.SubmissionQuery{FormID: q.FormID, Start: q.Start, End: q.End})
	if err != nil {
		return nil, &StreamError{Op: "open", Err: err}
	}
	return cur, nil
}

func (s *Streamer) drain(ctx context.Context, cur submissions.Cursor, w io.Writer, q Query) (int, error) {
	enc := json.NewEncoder(w)
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, &StreamError{Op: "read", Err: err}
		}
		sub, err := cur.Next(ctx)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			s.logger.Error(ctx, "error retrieving submissions from cursor", "formId", q.FormID, "error", err)
			return n, &StreamError{Op: "read", Err: err}
		}

		if q.IncludeAttachments {
			if err := s.signAttachments(ctx, sub, q.URLValidity); err != nil {
				s.logger.Error(ctx, "error signing attachment urls", "formId", q.FormID, "submissionId", sub.ID, "error", err)
				return n, &StreamError{Op: "sign", Err: err}
			}
		}

		if err := enc.Encode(sub); err != nil {
			return n, &StreamError{Op: "write", Err: err}
		}
		n++
	}
}

func (s *Streamer) signAttachments(ctx context.Context, sub *models.Submission, validity time.Duration) error {
	if len(sub.AttachmentMetadata) == 0 {
		return nil
	}
	signed := maps.Clone(sub.AttachmentMetadata)
	for field, key := range sub.AttachmentMetadata {
		url, err := s.signer.SignReadURL(ctx, key, validity)
		if err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
		signed[field] = url
	}
	sub.AttachmentMetadata = signed
	return nil
}

func (s *Streamer) closeCursor(ctx context.Context, formID string, cur submissions.Cursor) {
	if err := cur.Close(); err != nil {
		s.logger.Warn(ctx, "failed to close submission cursor", "formId", formID, "error", err)
	}
}

type streamReader struct {
	*io.PipeReader
	cancel context.CancelFunc
	done   chan struct{}
}

func (r *streamReader) Close() error {
	err := r.PipeReader.Close()
	r.cancel()
	<-r.done
	return err
}
