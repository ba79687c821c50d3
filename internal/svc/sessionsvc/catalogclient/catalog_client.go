// Package catalogclient fetches games from the remote game catalogue.
package catalogclient

import (
	"context"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
)

// CatalogClient defines the interface for reading the remote game catalogue.
type CatalogClient interface {
	// ListGames returns one page of games, pages start at 1.
	ListGames(ctx context.Context, page int) ([]domain.Game, error)

	// SearchGames returns one page of games whose name matches query.
	SearchGames(ctx context.Context, query string, page int) ([]domain.Game, error)

	// GameDetails returns the game with the given ID including its developer.
	// Returns ErrGameNotFound if the catalogue has no such game.
	GameDetails(ctx context.Context, id int64) (*domain.Game, error)
}
