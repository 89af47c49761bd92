// Package autofill records one-way hashes of values prefilled from an
// identity provider and verifies resubmitted values against them.
package autofill

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/cryptox"
	"github.com/opengovsg/FormSG-sub011/internal/logging"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
	"github.com/opengovsg/FormSG-sub011/internal/server/repositories/autofillhashes"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrExpired means no unexpired record exists for the filler and form.
	ErrExpired = errors.New("autofill verification expired")
	// ErrUnavailable means the record could not be read or hashed.
	ErrUnavailable = errors.New("autofill verification unavailable")
)

// MismatchError lists the attributes whose values failed verification.
type MismatchError struct {
	Attrs []string
}

func (e *MismatchError) Error() string {
	return "autofill verification failed for: " + strings.Join(e.Attrs, ", ")
}

// Verified holds the server-trusted values that passed verification.
type Verified struct {
	// Values maps attribute to normalized value.
	Values map[string]string
	// FieldIDs are the form fields whose answers were checked.
	FieldIDs []string
}

// Attrs returns the verified attribute names in sorted order.
func (v *Verified) Attrs() []string {
	attrs := make([]string, 0, len(v.Values))
	for a := range v.Values {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)
	return attrs
}

const compareConcurrency = 4

// bcrypt ignores input past 72 bytes, so longer values are pre-hashed.
const bcryptMaxInput = 72

type Service struct {
	repo   autofillhashes.Repository
	secret []byte
	cost   int
	logger logging.Logger
	now    func() time.Time
}

// NewService returns a Service that keys records by HMAC(secret, identity)
// and hashes values with bcrypt at the given cost.
func NewService(repo autofillhashes.Repository, secret []byte, cost int, logger logging.Logger) *Service {
	return &Service{repo: repo, secret: secret, cost: cost, logger: logger, now: time.Now}
}

// Record hashes every read-only prefilled value and replaces the record for
// (identity, formID). The record expires after ttl.
func (s *Service) Record(ctx context.Context, identity, formID string, fields []models.PrefilledField, ttl time.Duration) (*models.AutofillHashRecord, error) {
	if identity == "" {
		return nil, errors.New("empty identity")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid ttl %s", ttl)
	}

	var (
		mu     sync.Mutex
		hashes = make(map[string]string)
		g      errgroup.Group
	)
	g.SetLimit(compareConcurrency)
	for _, f := range fields {
		if !f.ReadOnly || f.Attr == "" || f.Value == "" {
			continue
		}
		g.Go(func() error {
			value, err := Normalize(f.FieldType, f.Value)
			if err != nil {
				return fmt.Errorf("normalize %s: %w", f.Attr, err)
			}
			h, err := bcrypt.GenerateFromPassword(prepare(value), s.cost)
			if err != nil {
				return fmt.Errorf("hash %s: %w", f.Attr, err)
			}
			mu.Lock()
			hashes[f.Attr] = string(h)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	rec := &models.AutofillHashRecord{
		HashedIdentity: cryptox.HashIdentity(s.secret, identity),
		FormID:         formID,
		Fields:         hashes,
		ExpireAt:       now.Add(ttl),
		CreatedAt:      now,
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		s.logger.Error(ctx, "failed to save autofill hashes", "formId", formID, "attrs", keys(hashes), "error", err)
		return nil, err
	}
	return rec, nil
}

// Verify checks responses against the record for (identity, formID).
//
// Every attribute in the record must be answered by at least one response
// and every such answer must match. Responses for attributes the record
// does not hold are not verified and are left out of the result.
func (s *Service) Verify(ctx context.Context, identity, formID string, responses []models.AutofillResponse) (*Verified, error) {
	if identity == "" {
		return nil, ErrExpired
	}

	rec, err := s.repo.Find(ctx, cryptox.HashIdentity(s.secret, identity), formID, s.now())
	if errors.Is(err, common.ErrorNotFound) {
		s.logger.Info(ctx, "autofill hashes expired", "formId", formID)
		return nil, ErrExpired
	}
	if err != nil {
		s.logger.Error(ctx, "failed to fetch autofill hashes", "formId", formID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	type check struct {
		attr    string
		fieldID string
		value   string
		hash    string
	}
	var checks []check
	answered := make(map[string]bool)
	failed := make(map[string]bool)

	for _, r := range responses {
		hash, ok := rec.Fields[r.Attr]
		if !ok {
			continue
		}
		answered[r.Attr] = true
		value, err := Normalize(r.FieldType, r.Answer)
		if err != nil || hash == "" || r.Answer == "" {
			failed[r.Attr] = true
			continue
		}
		checks = append(checks, check{attr: r.Attr, fieldID: r.FieldID, value: value, hash: hash})
	}
	for attr := range rec.Fields {
		if !answered[attr] {
			failed[attr] = true
		}
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(compareConcurrency)
	for _, c := range checks {
		g.Go(func() error {
			err := bcrypt.CompareHashAndPassword([]byte(c.hash), prepare(c.value))
			if err != nil {
				mu.Lock()
				failed[c.attr] = true
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		attrs := keys(failed)
		s.logger.Error(ctx, "autofill hash did not match", "formId", formID, "failedFields", attrs)
		return nil, &MismatchError{Attrs: attrs}
	}

	out := &Verified{Values: make(map[string]string)}
	for _, c := range checks {
		out.Values[c.attr] = c.value
		out.FieldIDs = append(out.FieldIDs, c.fieldID)
	}
	sort.Strings(out.FieldIDs)
	return out, nil
}

func prepare(value string) []byte {
	if len(value) <= bcryptMaxInput {
		return []byte(value)
	}
	sum := sha256.Sum256([]byte(value))
	return []byte(hex.EncodeToString(sum[:]))
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
