package snapshot

import (
	"context"
	"time"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
)

// Repository stores the session snapshots written at logout, one per user.
type Repository interface {
	// Store persists snapshot, replacing the previous one of the same user.
	Store(ctx context.Context, snapshot *domain.SessionSnapshot) error

	// Fetch retrieves the snapshot of the user.
	// Returns ErrSnapshotNotFound if none was stored.
	Fetch(ctx context.Context, userID int64) (*domain.SessionSnapshot, error)

	// Exists reports whether a snapshot of the user is stored.
	Exists(ctx context.Context, userID int64) bool

	// Delete removes the snapshot of the user.
	// Returns ErrSnapshotNotFound if none was stored.
	Delete(ctx context.Context, userID int64) error

	// Prune removes snapshots last written before cutoff and returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func(ctx context.Context) (Repository, error)
