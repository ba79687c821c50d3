package user

import (
	"context"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// CreateUser adds a new user and returns its ID.
	// Returns ErrUserAlreadyExists if the username or email is already taken.
	CreateUser(ctx context.Context, username, email string, passwordHash []byte) (int64, error)

	// GetUserByEmail retrieves a user by email, without its games.
	// Returns ErrUserNotFound if there is no such user.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error)

	// GetUserByID retrieves a user by ID including the rated games.
	// Returns ErrUserNotFound if there is no such user.
	GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error)

	// EmailExists reports whether an account uses email.
	EmailExists(ctx context.Context, email string) (bool, error)

	// StoreGame inserts or refreshes a game in the cache.
	StoreGame(ctx context.Context, game domain.Game) error

	// RateGame records the user's rating of a cached game, replacing an earlier one.
	RateGame(ctx context.Context, userID, gameID int64, rating float64) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
