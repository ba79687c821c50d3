package sessionsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
	context_ "github.com/mkrupp/homecase-gameapp/internal/infra/context"
	"github.com/mkrupp/homecase-gameapp/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-gameapp/internal/infra/transport/http"
	"github.com/mkrupp/homecase-gameapp/internal/svc/sessionsvc/catalogclient"
)

// ErrInvalidField is returned when a request field cannot be parsed.
var ErrInvalidField = errors.New("invalid field")

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport exposes the session service over HTTP.
// Requests are form encoded, responses are JSON.
type HTTPTransport struct {
	sessionSvc *SessionService
	log        logging.Logger
	cfg        HTTPTransportConfig
	mux        *http.ServeMux
}

// NewHTTPTransport creates an HTTPTransport serving these routes:
// - POST /session/register: create an account
// - POST /session/login: log in and return the user
// - POST /session/logout: log the current user out
// - GET /session/current: return the current user
// - POST /session/games: rate a game as the current user
// - GET /session/snapshots/{id}: return the current user's last session
// - GET /games: list or search the game catalogue
// - GET /games/{id}: return a game of the catalogue.
func NewHTTPTransport(sessionSvc *SessionService, cfg HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		sessionSvc: sessionSvc,
		log:        logging.GetLogger("svc.sessionsvc.http_transport"),
		cfg:        cfg,
		mux:        http.NewServeMux(),
	}

	ht.mux.HandleFunc("POST /session/register", ht.HandleRegister)
	ht.mux.HandleFunc("POST /session/login", ht.HandleLogin)
	ht.mux.HandleFunc("POST /session/logout", ht.HandleLogout)
	ht.mux.HandleFunc("GET /session/current", ht.HandleCurrent)
	ht.mux.Handle("POST /session/games",
		http_.SessionMiddleware(http.HandlerFunc(ht.HandleRateGame), sessionSvc, ht.log))
	ht.mux.Handle("GET /session/snapshots/{id}",
		http_.SessionMiddleware(http.HandlerFunc(ht.HandleSnapshot), sessionSvc, ht.log))
	ht.mux.HandleFunc("GET /games", ht.HandleBrowseGames)
	ht.mux.HandleFunc("GET /games/{id}", ht.HandleGameDetails)

	return ht
}

func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSnapshotNotFound), errors.Is(err, domain.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, catalogclient.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, ErrMissingField),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrInvalidRating),
		errors.Is(err, ErrPasswordTooLong),
		errors.Is(err, ErrInvalidField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	http.Error(w, http.StatusText(status), status)
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// HandleRegister processes registration requests.
// Expects form parameters: username, email, password, password2.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user register failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("parse form: %w", err)
	}

	log = log.With(logging.Group("user", "username", r.FormValue("username"), "email", r.FormValue("email")))

	if r.FormValue("password") != r.FormValue("password2") {
		writeError(w, ErrPasswordMismatch)

		return ErrPasswordMismatch
	}

	err = ht.sessionSvc.RegisterUser(r.Context(), r.FormValue("username"), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("register user: %w", err)
	}

	w.WriteHeader(http.StatusCreated)

	return nil
}

// HandleLogin processes login requests.
// Expects form parameters: email, password. Returns the logged-in user.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user login failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("parse form: %w", err)
	}

	log = log.With(logging.Group("user", "email", r.FormValue("email")))

	account, err := ht.sessionSvc.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("login user: %w", err)
	}

	return writeJSON(w, account)
}

// HandleLogout logs the current user out. It succeeds when nobody is logged in.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := ht.sessionSvc.Logout(r.Context()); err != nil {
		// the session is cleared even when the snapshot could not be written
		ht.log.WarnContext(r.Context(), "logout incomplete", "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleCurrent returns the current user, or 401 when nobody is logged in.
func (ht *HTTPTransport) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	account, ok := ht.sessionSvc.CurrentUser(r.Context())
	if !ok {
		writeError(w, domain.ErrNotLoggedIn)

		return
	}

	if err := writeJSON(w, account); err != nil {
		ht.log.ErrorContext(r.Context(), "write current user failed", "error", err)
	}
}

// HandleRateGame records the current user's rating of a game.
// Expects form parameters: id, rating and optionally name, background_image,
// genres (comma separated), released, developer, game_rating.
// Without a name the game is looked up in the catalogue.
func (ht *HTTPTransport) HandleRateGame(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRateGame(w, r)
}

func (ht *HTTPTransport) handleRateGame(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "rate game failed", "error", err)
		} else {
			log.DebugContext(ctx, "game rated")
		}
	}(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("parse form: %w", err)
	}

	game, rating, err := parseGameForm(r)
	if err != nil {
		writeError(w, err)

		return err
	}

	if game.Name == "" {
		_, err = ht.sessionSvc.RateCatalogGame(r.Context(), game.ID, rating)
	} else {
		_, err = ht.sessionSvc.RateGame(r.Context(), game, rating)
	}

	if err != nil {
		writeError(w, err)

		return fmt.Errorf("rate game: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

func parseGameForm(r *http.Request) (domain.Game, float64, error) {
	var game domain.Game

	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		return game, 0, fmt.Errorf("%w: id: %w", ErrInvalidField, err)
	}

	rating, err := parseFinite(r.FormValue("rating"))
	if err != nil {
		return game, 0, fmt.Errorf("%w: rating: %w", ErrInvalidField, err)
	}

	game = domain.Game{
		ID:              id,
		Name:            r.FormValue("name"),
		BackgroundImage: r.FormValue("background_image"),
		Released:        r.FormValue("released"),
		Developer:       r.FormValue("developer"),
	}

	for _, genre := range strings.Split(r.FormValue("genres"), ",") {
		if genre = strings.TrimSpace(genre); genre != "" {
			game.Genres = append(game.Genres, genre)
		}
	}

	if v := r.FormValue("game_rating"); v != "" {
		if game.Rating, err = parseFinite(v); err != nil {
			return game, 0, fmt.Errorf("%w: game_rating: %w", ErrInvalidField, err)
		}
	}

	return game, rating, nil
}

var errNotFinite = errors.New("not a finite number")

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err //nolint:wrapcheck
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s", errNotFinite, s)
	}

	return f, nil
}

// HandleSnapshot returns the snapshot written at the current user's last logout.
// Other users' snapshots are reported as not found.
func (ht *HTTPTransport) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleSnapshot(w, r)
}

func (ht *HTTPTransport) handleSnapshot(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get snapshot failed", "error", err)
		} else {
			log.DebugContext(ctx, "snapshot sent")
		}
	}(r.Context())

	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)

		return fmt.Errorf("%w: id: %w", ErrInvalidField, err)
	}

	if current, ok := context_.SessionUserFromContext(r.Context()); !ok || current.ID != userID {
		writeError(w, domain.ErrSnapshotNotFound)

		return fmt.Errorf("snapshot of user %d: %w", userID, domain.ErrSnapshotNotFound)
	}

	snap, err := ht.sessionSvc.LastSession(r.Context(), userID)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("last session: %w", err)
	}

	return writeJSON(w, snap)
}

// HandleBrowseGames lists the game catalogue.
// Query parameters: search (optional), page (optional, from 1).
func (ht *HTTPTransport) HandleBrowseGames(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleBrowseGames(w, r)
}

func (ht *HTTPTransport) handleBrowseGames(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "browse games failed", "error", err)
		} else {
			log.DebugContext(ctx, "games sent")
		}
	}(r.Context())

	page := 1

	if v := r.URL.Query().Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 1 {
			writeError(w, ErrInvalidField)

			return fmt.Errorf("%w: page %q", ErrInvalidField, v)
		}
	}

	games, err := ht.sessionSvc.BrowseGames(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")), page)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("browse games: %w", err)
	}

	return writeJSON(w, games)
}

// HandleGameDetails returns a game of the catalogue.
func (ht *HTTPTransport) HandleGameDetails(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGameDetails(w, r)
}

func (ht *HTTPTransport) handleGameDetails(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "game details failed", "error", err)
		} else {
			log.DebugContext(ctx, "game details sent")
		}
	}(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)

		return fmt.Errorf("%w: id: %w", ErrInvalidField, err)
	}

	game, err := ht.sessionSvc.GameDetails(r.Context(), id)
	if err != nil {
		writeError(w, err)

		return fmt.Errorf("game details: %w", err)
	}

	return writeJSON(w, game)
}
