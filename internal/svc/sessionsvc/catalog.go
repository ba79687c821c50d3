package sessionsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
	"github.com/mkrupp/homecase-gameapp/internal/infra/logging"
)

// ErrCatalogUnavailable is returned when no game catalogue is configured.
var ErrCatalogUnavailable = errors.New("game catalogue unavailable")

// BrowseGames returns one page of the catalogue, filtered by query unless it is empty.
// Fetched games are cached; a failing cache write is logged and does not fail the call.
func (s *SessionService) BrowseGames(ctx context.Context, query string, page int) (_ []domain.Game, err error) {
	log := s.Log.With(logging.Group("catalog", "query", query, "page", page))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "browse games failed", "error", err)
		} else {
			log.DebugContext(ctx, "games browsed")
		}
	}()

	if s.Catalog == nil {
		return nil, ErrCatalogUnavailable
	}

	var games []domain.Game

	if query == "" {
		games, err = s.Catalog.ListGames(ctx, page)
	} else {
		games, err = s.Catalog.SearchGames(ctx, query, page)
	}

	if err != nil {
		return nil, fmt.Errorf("fetch games: %w", err)
	}

	for _, game := range games {
		if err := s.UserRepo.StoreGame(ctx, game); err != nil {
			log.WarnContext(ctx, "cache game failed", "gameId", game.ID, "error", err)
		}
	}

	return games, nil
}

// GameDetails fetches a game from the catalogue and caches it.
// Returns ErrGameNotFound if the catalogue has no such game.
func (s *SessionService) GameDetails(ctx context.Context, id int64) (*domain.Game, error) {
	if s.Catalog == nil {
		return nil, ErrCatalogUnavailable
	}

	game, err := s.Catalog.GameDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch game: %w", err)
	}

	if err := s.UserRepo.StoreGame(ctx, *game); err != nil {
		return nil, fmt.Errorf("store game: %w", err)
	}

	return game, nil
}

// RateCatalogGame rates a game known only by its catalogue ID.
// The rating and the session are checked before the catalogue is asked.
func (s *SessionService) RateCatalogGame(ctx context.Context, gameID int64, rating float64) (*domain.User, error) {
	if !s.Session.LoggedIn() {
		return nil, domain.ErrNotLoggedIn
	}

	if err := s.checkRating(rating); err != nil {
		return nil, err
	}

	game, err := s.GameDetails(ctx, gameID)
	if err != nil {
		return nil, err
	}

	return s.RateGame(ctx, *game, rating)
}
