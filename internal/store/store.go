// Package store keeps each visitor's transient view state for the HTTP
// front. Entries expire after a TTL and are deleted on logout; nothing
// outlives the visit.
package store

import (
	"context"
	"errors"

	"github.com/nsit-tools/attendance-dashboard/internal/view"
)

// ErrNotFound is returned for unknown or expired visitors.
var ErrNotFound = errors.New("visitor state not found")

// Store holds view.State per visitor id.
type Store interface {
	Get(ctx context.Context, visitorID string) (view.State, error)
	// Put stores the state and restarts its TTL.
	Put(ctx context.Context, visitorID string, s view.State) error
	Delete(ctx context.Context, visitorID string) error
}
