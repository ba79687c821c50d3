package sessionsvc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
	"github.com/mkrupp/homecase-gameapp/internal/svc/sessionsvc"
	"github.com/mkrupp/homecase-gameapp/internal/svc/sessionsvc/catalogclient"
)

// mockCatalogClient implements catalogclient.CatalogClient for testing.
type mockCatalogClient struct {
	games   []domain.Game
	err     error
	queries []string
	calls   int
}

var _ catalogclient.CatalogClient = (*mockCatalogClient)(nil)

func (m *mockCatalogClient) ListGames(_ context.Context, _ int) ([]domain.Game, error) {
	m.calls++

	return m.games, m.err
}

func (m *mockCatalogClient) SearchGames(_ context.Context, query string, _ int) ([]domain.Game, error) {
	m.calls++
	m.queries = append(m.queries, query)

	return m.games, m.err
}

func (m *mockCatalogClient) GameDetails(_ context.Context, id int64) (*domain.Game, error) {
	m.calls++

	if m.err != nil {
		return nil, m.err
	}

	for _, game := range m.games {
		if game.ID == id {
			return &game, nil
		}
	}

	return nil, domain.ErrGameNotFound
}

func testCatalog() *mockCatalogClient {
	return &mockCatalogClient{games: []domain.Game{
		{ID: 3498, Name: "Grand Theft Auto V", Genres: []string{"Action"}, Developer: "Rockstar North", Rating: 4.47},
		{ID: 4200, Name: "Portal 2", Genres: []string{"Shooter", "Puzzle"}, Rating: 4.61},
	}}
}

func TestSessionService_BrowseGames(t *testing.T) {
	t.Parallel()

	svc, userRepo, _ := setupTestService(t)
	catalog := testCatalog()
	svc.Catalog = catalog
	ctx := context.Background()

	games, err := svc.BrowseGames(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, games, 2)
	assert.Len(t, userRepo.games, 2)

	_, err = svc.BrowseGames(ctx, "portal", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"portal"}, catalog.queries)

	catalog.err = catalogclient.ErrUpstream
	_, err = svc.BrowseGames(ctx, "", 1)
	require.ErrorIs(t, err, catalogclient.ErrUpstream)
}

func TestSessionService_BrowseGamesCacheFailure(t *testing.T) {
	t.Parallel()

	svc, userRepo, _ := setupTestService(t)
	svc.Catalog = testCatalog()
	userRepo.setErr(ErrRepoError)

	games, err := svc.BrowseGames(context.Background(), "", 1)
	require.NoError(t, err)
	assert.Len(t, games, 2)
}

func TestSessionService_WithoutCatalog(t *testing.T) {
	t.Parallel()

	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.BrowseGames(ctx, "", 1)
	require.ErrorIs(t, err, sessionsvc.ErrCatalogUnavailable)

	_, err = svc.GameDetails(ctx, 1)
	require.ErrorIs(t, err, sessionsvc.ErrCatalogUnavailable)
}

func TestSessionService_GameDetails(t *testing.T) {
	t.Parallel()

	svc, userRepo, _ := setupTestService(t)
	svc.Catalog = testCatalog()
	ctx := context.Background()

	game, err := svc.GameDetails(ctx, 3498)
	require.NoError(t, err)
	assert.Equal(t, "Rockstar North", game.Developer)
	assert.Contains(t, userRepo.games, int64(3498))

	_, err = svc.GameDetails(ctx, 1)
	require.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestSessionService_RateCatalogGame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		loggedIn  bool
		gameID    int64
		rating    float64
		wantErr   error
		wantCalls int
	}{
		{name: "successful rating", loggedIn: true, gameID: 4200, rating: 5, wantCalls: 1},
		{name: "not logged in", gameID: 4200, rating: 5, wantErr: domain.ErrNotLoggedIn},
		{name: "invalid rating", loggedIn: true, gameID: 4200, rating: 7, wantErr: sessionsvc.ErrInvalidRating},
		{name: "unknown game", loggedIn: true, gameID: 1, rating: 3, wantErr: domain.ErrGameNotFound, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _, _ := setupTestService(t)
			catalog := testCatalog()
			svc.Catalog = catalog

			if tt.loggedIn {
				registerAndLogin(t, svc, "dave", "dave@example.com")
			}

			updated, err := svc.RateCatalogGame(context.Background(), tt.gameID, tt.rating)
			assert.Equal(t, tt.wantCalls, catalog.calls)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			require.Len(t, updated.Games, 1)
			assert.Equal(t, "Portal 2", updated.Games[0].Name)
			assert.Equal(t, "Shooter, Puzzle", updated.Games[0].Genres)
		})
	}
}
