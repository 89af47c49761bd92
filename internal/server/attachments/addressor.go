// Package attachments derives storage keys for encrypted attachments and
// commits them to the blob store as one unit.
//
// A key has the form "{formId}/{random}/{digest}" where random is 20 bytes
// of hex and digest is the hex SHA-256 of the stored bytes.
package attachments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/logging"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
	"golang.org/x/sync/errgroup"
)

const randomBytes = 20

var ErrDigestMismatch = errors.New("attachment digest mismatch")

// Putter is the write half of the blob store.
type Putter interface {
	Put(ctx context.Context, key string, body []byte) error
}

// UploadError names every field whose upload failed.
type UploadError struct {
	Fields []string
	errs   []error
}

func (e *UploadError) Error() string {
	return "attachment upload failed for fields: " + strings.Join(e.Fields, ", ")
}

func (e *UploadError) Unwrap() []error { return e.errs }

// randomHex is a seam for key generation.
var randomHex = common.MakeRandHexString

// Addressor uploads the attachments of one submission.
type Addressor struct {
	store       Putter
	concurrency int
	logger      logging.Logger
}

// NewAddressor returns an Addressor that runs at most concurrency uploads
// at a time; a non-positive value means no limit.
func NewAddressor(store Putter, concurrency int, logger logging.Logger) *Addressor {
	return &Addressor{store: store, concurrency: concurrency, logger: logger}
}

// Encode is the byte form of p that is hashed and stored.
func Encode(p models.AttachmentPayload) ([]byte, error) {
	return json.Marshal(p)
}

// Digest returns the hex SHA-256 of body.
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// NewKey builds a fresh key for body under formID.
func NewKey(formID string, body []byte) (string, error) {
	random, err := randomHex(randomBytes)
	if err != nil {
		return "", fmt.Errorf("random key component: %w", err)
	}
	return formID + "/" + random + "/" + Digest(body), nil
}

// VerifyKey checks that body hashes to the digest embedded in key.
func VerifyKey(key string, body []byte) error {
	i := strings.LastIndexByte(key, '/')
	if i < 0 || key[i+1:] != Digest(body) {
		return ErrDigestMismatch
	}
	return nil
}

// Upload stores every payload and returns the field id to key map. All
// uploads are attempted and awaited. If any fails the result is nil and the
// error is an *UploadError naming the failed fields.
func (a *Addressor) Upload(ctx context.Context, formID string, payloads map[string]models.AttachmentPayload) (map[string]string, error) {
	if len(payloads) == 0 {
		return map[string]string{}, nil
	}

	type object struct {
		field string
		key   string
		body  []byte
	}
	objects := make([]object, 0, len(payloads))
	for field, p := range payloads {
		body, err := Encode(p)
		if err != nil {
			return nil, fmt.Errorf("encode attachment %s: %w", field, err)
		}
		key, err := NewKey(formID, body)
		if err != nil {
			return nil, err
		}
		objects = append(objects, object{field: field, key: key, body: body})
	}

	var (
		mu     sync.Mutex
		failed = &UploadError{}
	)

	// the group context is not used so one failure does not cancel siblings
	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for _, o := range objects {
		g.Go(func() error {
			if err := a.store.Put(ctx, o.key, o.body); err != nil {
				mu.Lock()
				failed.Fields = append(failed.Fields, o.field)
				failed.errs = append(failed.errs, fmt.Errorf("%s: %w", o.field, err))
				mu.Unlock()
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		sort.Strings(failed.Fields)
		a.logger.Error(ctx, "attachment upload failed",
			"formId", formID,
			"failedFields", failed.Fields,
			"error", errors.Join(failed.errs...),
		)
		return nil, failed
	}

	keys := make(map[string]string, len(objects))
	for _, o := range objects {
		keys[o.field] = o.key
	}
	return keys, nil
}
