package sessionsvc

import "time"

// SessionConfig contains configuration parameters for the session service.
type SessionConfig struct {
	// BcryptCost is the bcrypt work factor for new password hashes
	BcryptCost int `env:"BCRYPT_COST" default:"10"`

	// SnapshotsEnabled writes an XML snapshot of the user on logout
	SnapshotsEnabled bool `env:"SNAPSHOTS_ENABLED" default:"true"`

	// SnapshotMaxAge is how long a snapshot is kept after it was written
	SnapshotMaxAge time.Duration `env:"SNAPSHOT_MAX_AGE" default:"720h"`

	// PruneSchedule is the cron spec of the snapshot pruning job, empty disables it
	PruneSchedule string `env:"PRUNE_SCHEDULE" default:"@daily"`

	// MaxRating is the upper bound of a user's game rating
	MaxRating float64 `env:"MAX_RATING" default:"5"`
}
