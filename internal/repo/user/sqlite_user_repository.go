package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
	"github.com/mkrupp/homecase-gameapp/internal/infra/logging"
)

// SQLiteUserRepositoryConfig holds configuration for the SQLite user repository.
type SQLiteUserRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/gameapp.db"`

	// BusyTimeout is how long a connection waits for a lock held by another one
	BusyTimeout time.Duration `env:"BUSY_TIMEOUT" default:"5s"`
}

// SQLiteUserRepository implements Repository using SQLite as the storage backend.
type SQLiteUserRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteUserRepository)(nil)

// SQLiteUserRepositoryFactory creates a RepositoryFactory for SQLiteUserRepository.
func SQLiteUserRepositoryFactory(cfg SQLiteUserRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteUserRepository(cfg)
	}
}

// NewSQLiteUserRepository opens the database at cfg.DatabasePath and creates the schema if needed.
func NewSQLiteUserRepository(cfg SQLiteUserRepositoryConfig) (*SQLiteUserRepository, error) {
	log := logging.GetLogger("repo.user.sqlite_user_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// foreign_keys is per connection; a single connection keeps it in effect
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := initializeDB(db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	return &SQLiteUserRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT    UNIQUE NOT NULL,
			email         TEXT    UNIQUE NOT NULL,
			password_hash BLOB    NOT NULL,
			created_at    INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id               INTEGER PRIMARY KEY,
			name             TEXT NOT NULL,
			background_image TEXT NOT NULL DEFAULT '',
			genres           TEXT NOT NULL DEFAULT '',
			released         TEXT NOT NULL DEFAULT '',
			developer        TEXT NOT NULL DEFAULT '',
			rating           REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_games (
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			rating  REAL    NOT NULL,
			PRIMARY KEY (user_id, game_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	return nil
}

func isConstraintErr(err error, codes ...int) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}

	for _, code := range codes {
		if liteErr.Code() == code {
			return true
		}
	}

	return false
}

// CreateUser implements Repository.CreateUser using SQLite.
func (r *SQLiteUserRepository) CreateUser(
	ctx context.Context,
	username, email string,
	passwordHash []byte,
) (_ int64, err error) {
	log := r.log.With(logging.Group("user", "username", username, "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user created")
		}
	}()

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		username,
		email,
		passwordHash,
		time.Now().Unix(),
	)
	if err != nil {
		if isConstraintErr(err, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE) {
			err = errors.Join(domain.ErrUserAlreadyExists, err)
		}

		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	return id, nil
}

func (r *SQLiteUserRepository) getUser(ctx context.Context, where string, arg any) (*domain.User, bool, error) {
	var user domain.User

	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE "+where+" = ?",
		arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return nil, false, fmt.Errorf("query user: %w", err)
	}

	user.Games = []domain.UserGame{}

	return &user, true, nil
}

// GetUserByEmail implements Repository.GetUserByEmail using SQLite.
func (r *SQLiteUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return r.getUser(ctx, "email", email)
}

// GetUserByID implements Repository.GetUserByID using SQLite.
func (r *SQLiteUserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	user, ok, err := r.getUser(ctx, "id", id)
	if err != nil || !ok {
		return user, ok, err
	}

	games, err := r.getUserGames(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("get user games: %w", err)
	}

	user.Games = games

	return user, true, nil
}

func (r *SQLiteUserRepository) getUserGames(ctx context.Context, userID int64) (games []domain.UserGame, err error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.background_image, g.genres, g.released, g.developer, g.rating, ug.rating
		FROM user_games ug
		INNER JOIN games g ON ug.game_id = g.id
		WHERE ug.user_id = ?
		ORDER BY g.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	games = []domain.UserGame{}

	for rows.Next() {
		var game domain.UserGame

		if err := rows.Scan(
			&game.GameID,
			&game.Name,
			&game.BackgroundImage,
			&game.Genres,
			&game.Released,
			&game.Developer,
			&game.GameRating,
			&game.UserRating,
		); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}

		games = append(games, game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}

	return games, nil
}

// EmailExists implements Repository.EmailExists using SQLite.
func (r *SQLiteUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool

	if err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)",
		email,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("query email: %w", err)
	}

	return exists, nil
}

// StoreGame implements Repository.StoreGame using SQLite.
func (r *SQLiteUserRepository) StoreGame(ctx context.Context, game domain.Game) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO games (id, name, background_image, genres, released, developer, rating)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			background_image = excluded.background_image,
			genres = excluded.genres,
			released = excluded.released,
			developer = excluded.developer,
			rating = excluded.rating`,
		game.ID,
		game.Name,
		game.BackgroundImage,
		game.GenreList(),
		game.Released,
		game.Developer,
		game.Rating,
	)
	if err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}

	return nil
}

// RateGame implements Repository.RateGame using SQLite.
func (r *SQLiteUserRepository) RateGame(ctx context.Context, userID, gameID int64, rating float64) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_games (user_id, game_id, rating) VALUES (?, ?, ?)
		ON CONFLICT (user_id, game_id) DO UPDATE SET rating = excluded.rating`,
		userID,
		gameID,
		rating,
	)
	if err != nil {
		if isConstraintErr(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return fmt.Errorf("upsert rating: %w", err)
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteUserRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
