// Package idempotency remembers the responses of POST requests carrying an
// Idempotency-Key header so that client retries do not create duplicates.
package idempotency

import (
	"context"
	"errors"
	"time"
)

// ErrInProgress is returned by Reserve while another request holds the key.
var ErrInProgress = errors.New("idempotency: request already in progress")

// Record is a completed response kept for replay.
type Record struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Store persists idempotency keys.
type Store interface {
	// Reserve claims key for lockTTL. It returns the stored record when the
	// request already completed, or ErrInProgress when the key is held.
	Reserve(ctx context.Context, key string, lockTTL time.Duration) (*Record, error)

	// Save stores the completed response under key for ttl.
	Save(ctx context.Context, key string, record Record, ttl time.Duration) error

	// Release drops the reservation so the request can be retried.
	Release(ctx context.Context, key string) error
}
