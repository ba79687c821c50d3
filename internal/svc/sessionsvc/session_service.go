// Package sessionsvc registers players, logs them in and out of the process-wide
// session and keeps their game ratings.
package sessionsvc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
	"github.com/mkrupp/homecase-gameapp/internal/infra/logging"
	"github.com/mkrupp/homecase-gameapp/internal/repo/snapshot"
	"github.com/mkrupp/homecase-gameapp/internal/repo/user"
	"github.com/mkrupp/homecase-gameapp/internal/session"
	"github.com/mkrupp/homecase-gameapp/internal/svc/sessionsvc/catalogclient"
)

var (
	// ErrMissingField is returned when a required input is empty.
	ErrMissingField = errors.New("missing field")
	// ErrPasswordMismatch is returned when a password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidRating is returned when a rating is not a number in [0, MaxRating].
	ErrInvalidRating = errors.New("invalid rating")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = errors.New("password too long")
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// SessionService feeds the session holder: Login stores the user, Logout clears it.
type SessionService struct {
	Config       SessionConfig
	UserRepo     user.Repository
	SnapshotRepo snapshot.Repository
	Session      *session.Holder
	Catalog      catalogclient.CatalogClient
	Log          logging.Logger
}

// NewSessionService creates a SessionService working on holder.
// catalog may be nil, which disables the game catalogue.
// Returns an error if a repository cannot be created.
func NewSessionService(
	ctx context.Context,
	holder *session.Holder,
	userRepoFactory user.RepositoryFactory,
	snapshotRepoFactory snapshot.RepositoryFactory,
	catalog catalogclient.CatalogClient,
	cfg SessionConfig,
) (*SessionService, error) {
	userRepo, err := userRepoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	snapshotRepo, err := snapshotRepoFactory(ctx)
	if err != nil {
		_ = userRepo.Close()

		return nil, fmt.Errorf("new snapshot repo: %w", err)
	}

	return &SessionService{
		Config:       cfg,
		UserRepo:     userRepo,
		SnapshotRepo: snapshotRepo,
		Session:      holder,
		Catalog:      catalog,
		Log:          logging.GetLogger("svc.sessionsvc.session_service"),
	}, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

// RegisterUser creates an account. Username and email are trimmed; all fields are required.
// Returns ErrUserAlreadyExists if the email or username is taken.
func (s *SessionService) RegisterUser(ctx context.Context, username, email, password string) (err error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)

	log := s.Log.With(logging.Group("user", "username", username, "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	switch {
	case username == "":
		return missing("username")
	case email == "":
		return missing("email")
	case password == "":
		return missing("password")
	}

	taken, err := s.UserRepo.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	} else if taken {
		return fmt.Errorf("email %s: %w", email, domain.ErrUserAlreadyExists)
	}

	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: more than %d bytes", ErrPasswordTooLong, maxPasswordBytes)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.Config.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.UserRepo.CreateUser(ctx, username, email, passwordHash); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// Login checks the credentials and makes the user the current user of the session,
// replacing whoever was logged in. Returns ErrInvalidCredentials on unknown email or
// wrong password.
func (s *SessionService) Login(ctx context.Context, email, password string) (_ *domain.User, err error) {
	email = strings.TrimSpace(email)

	log := s.Log.With(logging.Group("user", "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, ok, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, errors.Join(domain.ErrInvalidCredentials, err)
		}

		return nil, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	// load the full user with its games
	account, ok, err = s.UserRepo.GetUserByID(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	} else if !ok {
		return nil, domain.ErrUserNotFound
	}

	log = log.With(logging.Group("user", "id", account.ID, "username", account.Username))

	s.Session.LogIn(account)

	return account, nil
}

// Logout clears the current user. When a user was logged in and snapshots are
// enabled, a snapshot of that user is stored. The user is logged out even if
// storing the snapshot fails. Logging out while logged out does nothing.
func (s *SessionService) Logout(ctx context.Context) (err error) {
	account, since, ok := s.Session.Detach()
	if !ok {
		s.Log.DebugContext(ctx, "logout without session")

		return nil
	}

	log := s.Log.With(logging.Group("user", "id", account.ID, "username", account.Username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "logout failed", "error", err)
		} else {
			log.DebugContext(ctx, "logout successful")
		}
	}()

	if !s.Config.SnapshotsEnabled || s.SnapshotRepo == nil {
		return nil
	}

	snap := domain.NewSessionSnapshot(account, since.Unix(), time.Now().Unix())
	if err := s.SnapshotRepo.Store(ctx, snap); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}

	return nil
}

// CurrentUser returns the logged-in user, or false if nobody is logged in.
func (s *SessionService) CurrentUser(_ context.Context) (*domain.User, bool) {
	return s.Session.CurrentUser()
}

// RateGame stores game in the cache and records the current user's rating of it.
// The session is refreshed with the updated user unless it changed in the meantime.
// Returns ErrNotLoggedIn without a current user.
func (s *SessionService) RateGame(ctx context.Context, game domain.Game, rating float64) (_ *domain.User, err error) {
	log := s.Log.With(logging.Group("game", "id", game.ID, "name", game.Name, "rating", rating))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "rate game failed", "error", err)
		} else {
			log.DebugContext(ctx, "game rated")
		}
	}()

	current, ok := s.Session.CurrentUser()
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}

	switch {
	case game.ID <= 0:
		return nil, missing("game id")
	case strings.TrimSpace(game.Name) == "":
		return nil, missing("game name")
	case math.IsNaN(game.Rating) || math.IsInf(game.Rating, 0):
		return nil, fmt.Errorf("%w: game rating %v", ErrInvalidRating, game.Rating)
	}

	if err := s.checkRating(rating); err != nil {
		return nil, err
	}

	if err := s.UserRepo.StoreGame(ctx, game); err != nil {
		return nil, fmt.Errorf("store game: %w", err)
	}

	if err := s.UserRepo.RateGame(ctx, current.ID, game.ID, rating); err != nil {
		return nil, fmt.Errorf("rate game: %w", err)
	}

	updated, ok, err := s.UserRepo.GetUserByID(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	} else if !ok {
		return nil, domain.ErrUserNotFound
	}

	if !s.Session.Replace(current, updated) {
		log.WarnContext(ctx, "session changed while rating, not refreshed")
	}

	return updated, nil
}

func (s *SessionService) checkRating(rating float64) error {
	if math.IsNaN(rating) || rating < 0 || rating > s.Config.MaxRating {
		return fmt.Errorf("%w: %v not in [0, %v]", ErrInvalidRating, rating, s.Config.MaxRating)
	}

	return nil
}

// LastSession returns the snapshot written at the user's last logout.
// Returns ErrSnapshotNotFound if the user never logged out.
func (s *SessionService) LastSession(ctx context.Context, userID int64) (*domain.SessionSnapshot, error) {
	if s.SnapshotRepo == nil {
		return nil, domain.ErrSnapshotNotFound
	}

	snap, err := s.SnapshotRepo.Fetch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	return snap, nil
}

// Close releases resources held by the service.
func (s *SessionService) Close() error {
	if err := s.UserRepo.Close(); err != nil {
		return fmt.Errorf("close user repo: %w", err)
	}

	return nil
}
