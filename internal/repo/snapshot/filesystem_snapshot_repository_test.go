package snapshot_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-gameapp/internal/domain"

	. "github.com/mkrupp/homecase-gameapp/internal/repo/snapshot"
)

func setupFileSystemSnapshotTestRepo(t *testing.T) *FileSystemRepository {
	t.Helper()

	repo, err := NewFileSystemSnapshotRepository(context.TODO(), FileSystemSnapshotRepositoryConfig{
		Basedir: t.TempDir(),
	})
	require.NoError(t, err)

	return repo
}

func testSnapshot(userID int64) *domain.SessionSnapshot {
	return domain.NewSessionSnapshot(&domain.User{
		ID:           userID,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: []byte("secret-hash"),
		Games: []domain.UserGame{
			{GameID: 3498, Name: "Grand Theft Auto V", UserRating: 4.5},
			{GameID: 4200, Name: "Portal 2", UserRating: 5},
		},
	}, 1700000000, 1700003600)
}

func TestFileSystemSnapshotRepository_StoreFetch(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	repo := setupFileSystemSnapshotTestRepo(t)
	want := testSnapshot(7)

	assert.False(t, repo.Exists(ctx, 7))
	require.NoError(t, repo.Store(ctx, want))
	assert.True(t, repo.Exists(ctx, 7))

	content, err := os.ReadFile(repo.GetFilename(7))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "<?xml"))
	assert.Contains(t, string(content), `<session user="7">`)
	assert.Contains(t, string(content), `<game id="4200">`)
	assert.NotContains(t, string(content), "secret-hash")

	got, err := repo.Fetch(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.Username, got.Username)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.LoggedInAt, got.LoggedInAt)
	assert.Equal(t, want.LoggedOutAt, got.LoggedOutAt)
	assert.Equal(t, want.Games, got.Games)
}

func TestFileSystemSnapshotRepository_StoreReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	repo := setupFileSystemSnapshotTestRepo(t)

	first := testSnapshot(1)
	require.NoError(t, repo.Store(ctx, first))

	second := testSnapshot(1)
	second.LoggedOutAt = first.LoggedOutAt + 60
	second.Games = second.Games[:1]
	require.NoError(t, repo.Store(ctx, second))

	got, err := repo.Fetch(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.LoggedOutAt, got.LoggedOutAt)
	assert.Len(t, got.Games, 1)
}

func TestFileSystemSnapshotRepository_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	repo := setupFileSystemSnapshotTestRepo(t)

	_, err := repo.Fetch(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	err = repo.Delete(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestFileSystemSnapshotRepository_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	repo := setupFileSystemSnapshotTestRepo(t)

	require.NoError(t, repo.Store(ctx, testSnapshot(3)))
	require.NoError(t, repo.Delete(ctx, 3))
	assert.False(t, repo.Exists(ctx, 3))
}

func TestFileSystemSnapshotRepository_Prune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupFileSystemSnapshotTestRepo(t)

	require.NoError(t, repo.Store(ctx, testSnapshot(1)))
	require.NoError(t, repo.Store(ctx, testSnapshot(2)))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(repo.GetFilename(1), old, old))

	removed, err := repo.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.False(t, repo.Exists(ctx, 1))
	assert.True(t, repo.Exists(ctx, 2))

	removed, err = repo.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestFileSystemSnapshotRepository_FetchWithoutGames(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupFileSystemSnapshotTestRepo(t)

	require.NoError(t, repo.Store(ctx, domain.NewSessionSnapshot(&domain.User{ID: 9, Username: "bob"}, 1, 2)))

	snap, err := repo.Fetch(ctx, 9)
	require.NoError(t, err)
	assert.NotNil(t, snap.Games)
	assert.Empty(t, snap.Games)
}
