package domain

import "errors"

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing username or email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the email/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotLoggedIn is returned when an operation needs a current user but nobody is logged in.
	ErrNotLoggedIn = errors.New("not logged in")
)

// User represents a registered player of the game app.
type User struct {
	ID           int64      `json:"id"`        // Unique identifier
	Username     string     `json:"username"`  // Display name, unique
	Email        string     `json:"email"`     // Login email, unique
	PasswordHash []byte     `json:"-"`         // bcrypt hash
	CreatedAt    int64      `json:"createdAt"` // Unix timestamp of account creation
	Games        []UserGame `json:"games"`     // Rated games, empty for a fresh account
}

// UserGame is a game in a user's library together with the user's own rating.
type UserGame struct {
	GameID          int64   `json:"gameId"`
	Name            string  `json:"name"`
	BackgroundImage string  `json:"backgroundImage,omitempty"`
	Genres          string  `json:"genres,omitempty"`
	Released        string  `json:"released,omitempty"`
	Developer       string  `json:"developer,omitempty"`
	UserRating      float64 `json:"userRating"`
	GameRating      float64 `json:"gameRating"`
}
