// Package blobstore stores attachment ciphertext and vends time-limited read
// URLs for it.
package blobstore

import (
	"context"
	"errors"
	"time"
)

// ErrKeyExists is returned by Put when the key already holds an object.
var ErrKeyExists = errors.New("blob already exists")

// Store is the blob store capability. Objects are written once and never
// overwritten.
type Store interface {
	Put(ctx context.Context, key string, body []byte) error
	SignReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
