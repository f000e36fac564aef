package database

import (
	"context"
	"path/filepath"
	"testing"

	"movieverse/models"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(Config{DatabasePath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUser(t *testing.T, db *DB) *models.User {
	t.Helper()

	user, err := db.Users.Create(context.Background(), "viewer@example.com", "hash")
	require.NoError(t, err)
	return user
}

func TestUserCreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := newTestUser(t, db)
	require.NotEmpty(t, created.ID)

	found, err := db.Users.ByEmail(ctx, "viewer@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = db.Users.ByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWatchlistAddRemove(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db)

	item := models.WatchlistItem{ID: 603, MediaType: models.MediaTypeMovie}
	require.NoError(t, db.Watchlist.Add(ctx, user.ID, item))

	// Same (user, id, type) key twice violates the uniqueness constraint.
	require.ErrorIs(t, db.Watchlist.Add(ctx, user.ID, item), ErrDuplicate)

	// Same id under a different media type is a distinct key.
	require.NoError(t, db.Watchlist.Add(ctx, user.ID, models.WatchlistItem{ID: 603, MediaType: models.MediaTypeTV}))

	items, err := db.Watchlist.ByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, db.Watchlist.Remove(ctx, user.ID, item))
	items, err = db.Watchlist.ByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, []models.WatchlistItem{{ID: 603, MediaType: models.MediaTypeTV}}, items)

	// Removing an absent entry is not an error.
	require.NoError(t, db.Watchlist.Remove(ctx, user.ID, item))
}

func TestRatingUpsertOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db)

	require.NoError(t, db.Ratings.Upsert(ctx, user.ID, models.Rating{ID: 42, MediaType: models.MediaTypeTV, Value: 3}))
	require.NoError(t, db.Ratings.Upsert(ctx, user.ID, models.Rating{ID: 42, MediaType: models.MediaTypeTV, Value: 5}))

	ratings, err := db.Ratings.ByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, []models.Rating{{ID: 42, MediaType: models.MediaTypeTV, Value: 5}}, ratings)
}

func TestProfileRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db)

	// A user without a saved profile gets an empty genre list.
	profile, err := db.Profiles.ByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, profile.FavoriteGenres)

	require.NoError(t, db.Profiles.Upsert(ctx, models.Profile{UserID: user.ID, FavoriteGenres: []int{28, 878}}))
	require.NoError(t, db.Profiles.Upsert(ctx, models.Profile{UserID: user.ID, FavoriteGenres: []int{16}}))

	profile, err = db.Profiles.ByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, []int{16}, profile.FavoriteGenres)
}
