package ports

import (
	"context"
	"time"
)

// Snapshot is a cached payload together with the earliest instant it may be
// fetched again.
type Snapshot struct {
	Payload     []byte    `json:"payload"`
	NextAllowed time.Time `json:"next_allowed"`
}

// SnapshotStore defines the interface for cached static resource persistence
type SnapshotStore interface {
	// Get returns the snapshot for key; ok is false when nothing is stored
	Get(ctx context.Context, key string) (snap *Snapshot, ok bool, err error)

	// Put stores the snapshot for key, replacing any previous one
	Put(ctx context.Context, key string, snap Snapshot) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// Clock returns the current time. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
