// Package memory is an in-process document store implementing the forms,
// submissions and autofill hash repositories with the same atomicity as the
// PostgreSQL implementations. It backs tests and the memory:// DSN.
package memory

import (
	"context"
	"io"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/autofillhashes"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/forms"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/submissions"
)

type hashKey struct {
	identity string
	formID   string
}

// Store holds every collection behind one mutex.
type Store struct {
	mu          sync.Mutex
	forms       map[string]*models.Form
	submissions map[string]*models.Submission
	hashes      map[hashKey]*models.AutofillHashRecord
	openCursors int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		forms:       make(map[string]*models.Form),
		submissions: make(map[string]*models.Submission),
		hashes:      make(map[hashKey]*models.AutofillHashRecord),
	}
}

func (s *Store) Forms() forms.Repository                   { return formsRepo{s} }
func (s *Store) Submissions() submissions.Repository       { return submissionsRepo{s} }
func (s *Store) AutofillHashes() autofillhashes.Repository { return hashesRepo{s} }

// OpenCursors reports how many submission cursors are not yet closed.
func (s *Store) OpenCursors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openCursors
}

// SubmissionCount reports how many submissions of formID are stored.
func (s *Store) SubmissionCount(formID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sub := range s.submissions {
		if sub.FormID == formID {
			n++
		}
	}
	return n
}

// AutofillHashCount reports how many hash records exist for formID,
// expired ones included.
func (s *Store) AutofillHashCount(formID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.hashes {
		if k.formID == formID {
			n++
		}
	}
	return n
}

type formsRepo struct{ s *Store }

func (r formsRepo) Create(_ context.Context, f *models.Form) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.forms[f.ID]; ok {
		return common.ErrVersionConflict
	}
	r.s.forms[f.ID] = cloneForm(f)
	return nil
}

func (r formsRepo) GetByID(_ context.Context, id string) (*models.Form, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.forms[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneForm(f), nil
}

func (r formsRepo) ReserveSubmissionSlot(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.forms[id]
	if !ok || f.Status != models.FormStatusPublic {
		return false, forms.ErrNotPublic
	}
	if f.SubmissionLimit == nil || f.SubmissionCount+f.PendingCount < *f.SubmissionLimit {
		f.PendingCount++
		return true, nil
	}
	if f.SubmissionCount >= *f.SubmissionLimit {
		f.Status = models.FormStatusPrivate
	}
	return false, nil
}

func (r formsRepo) ReleaseSubmissionSlot(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if f, ok := r.s.forms[id]; ok && f.PendingCount > 0 {
		f.PendingCount--
	}
	return nil
}

func (r formsRepo) CommitSubmissionSlot(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if f, ok := r.s.forms[id]; ok {
		if f.PendingCount > 0 {
			f.PendingCount--
		}
		f.SubmissionCount++
	}
	return nil
}

type submissionsRepo struct{ s *Store }

func (r submissionsRepo) Create(_ context.Context, sub *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.submissions[sub.ID]; ok {
		return common.ErrVersionConflict
	}
	r.s.submissions[sub.ID] = cloneSubmission(sub)
	return nil
}

func (r submissionsRepo) GetByID(_ context.Context, formID, id string) (*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok || sub.FormID != formID {
		return nil, common.ErrorNotFound
	}
	return cloneSubmission(sub), nil
}

func (r submissionsRepo) OpenCursor(ctx context.Context, q models.SubmissionQuery) (submissions.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var ids []string
	for id, sub := range r.s.submissions {
		if q.Matches(sub) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.s.submissions[ids[i]], r.s.submissions[ids[j]]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	r.s.openCursors++
	return &cursor{s: r.s, ids: ids}, nil
}

// cursor snapshots matching ids at open time and loads each record lazily.
type cursor struct {
	s      *Store
	ids    []string
	pos    int
	closed bool
}

func (c *cursor) Next(ctx context.Context) (*models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.closed {
		return nil, io.EOF
	}
	for c.pos < len(c.ids) {
		sub, ok := c.s.submissions[c.ids[c.pos]]
		c.pos++
		if ok {
			return cloneSubmission(sub), nil
		}
	}
	return nil, io.EOF
}

func (c *cursor) Close() error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.s.openCursors--
	}
	return nil
}

type hashesRepo struct{ s *Store }

func (r hashesRepo) Upsert(_ context.Context, rec *models.AutofillHashRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *rec
	cp.Fields = maps.Clone(rec.Fields)
	r.s.hashes[hashKey{rec.HashedIdentity, rec.FormID}] = &cp
	return nil
}

func (r hashesRepo) Find(_ context.Context, hashedIdentity, formID string, now time.Time) (*models.AutofillHashRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.hashes[hashKey{hashedIdentity, formID}]
	if !ok || rec.Expired(now) {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	cp.Fields = maps.Clone(rec.Fields)
	return &cp, nil
}

func cloneForm(f *models.Form) *models.Form {
	cp := *f
	if f.SubmissionLimit != nil {
		n := *f.SubmissionLimit
		cp.SubmissionLimit = &n
	}
	cp.Collaborators = slices.Clone(f.Collaborators)
	return &cp
}

func cloneSubmission(s *models.Submission) *models.Submission {
	cp := *s
	cp.AttachmentMetadata = maps.Clone(s.AttachmentMetadata)
	cp.AutofillFields = slices.Clone(s.AutofillFields)
	return &cp
}
