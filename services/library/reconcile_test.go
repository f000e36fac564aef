package library

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"movieverse/models"
)

func TestLegacyBareIntegerWatchlistLoadsAsMovies(t *testing.T) {
	f := &storeFixture{
		watch:    newFakeWatchBackend(),
		ratings:  newFakeRatingBackend(),
		identity: &fakeIdentitySource{},
		cache:    newTestCache(t),
	}
	if err := f.cache.Set("movieverse_watchlist", `[7,12]`); err != nil {
		t.Fatalf("seed cache failed: %v", err)
	}

	f.store = NewStore(f.watch, f.ratings, f.cache)
	if err := f.store.Start(context.Background(), f.identity); err != nil {
		t.Fatalf("store start failed: %v", err)
	}
	defer f.store.Close()

	for _, id := range []int{7, 12} {
		if !f.store.IsInWatchlist(id, models.MediaTypeMovie) {
			t.Fatalf("expected legacy id %d to load as a movie entry", id)
		}
		if f.store.IsInWatchlist(id, models.MediaTypeTV) {
			t.Fatalf("legacy id %d must not appear as tv", id)
		}
	}

	watchlist, ratings := f.store.Counts()
	if watchlist != 2 || ratings != 0 {
		t.Fatalf("unexpected counts: watchlist=%d ratings=%d", watchlist, ratings)
	}
}

func TestExplicitAndLegacyFormatsAgreeOnMembership(t *testing.T) {
	legacy := newTestCache(t)
	if err := legacy.Set("movieverse_watchlist", `[7]`); err != nil {
		t.Fatalf("seed cache failed: %v", err)
	}
	explicit := newTestCache(t)
	if err := explicit.Set("movieverse_watchlist", `[{"id":7,"type":"movie"}]`); err != nil {
		t.Fatalf("seed cache failed: %v", err)
	}

	for name, cache := range map[string]deviceCache{"legacy": legacy, "explicit": explicit} {
		store := NewStore(newFakeWatchBackend(), newFakeRatingBackend(), cache)
		if err := store.Start(context.Background(), &fakeIdentitySource{}); err != nil {
			t.Fatalf("%s: store start failed: %v", name, err)
		}
		if !store.IsInWatchlist(7, models.MediaTypeMovie) {
			t.Fatalf("%s: expected id 7 on the watchlist", name)
		}
		store.Close()
	}
}

func TestSignInReplacesGuestStateWithoutMerging(t *testing.T) {
	f := &storeFixture{
		watch:    newFakeWatchBackend(),
		ratings:  newFakeRatingBackend(),
		identity: &fakeIdentitySource{},
		cache:    newTestCache(t),
	}

	// Guest device state: movie 7.
	if err := f.cache.Set("movieverse_watchlist", `[{"id":7,"type":"movie"}]`); err != nil {
		t.Fatalf("seed cache failed: %v", err)
	}

	// Remote account state: tv 42.
	remote := models.WatchlistItem{ID: 42, MediaType: models.MediaTypeTV}
	f.watch.items["user-1"] = map[string]models.WatchlistItem{remote.Key(): remote}

	f.store = NewStore(f.watch, f.ratings, f.cache)
	if err := f.store.Start(context.Background(), f.identity); err != nil {
		t.Fatalf("store start failed: %v", err)
	}
	defer f.store.Close()

	if !f.store.IsInWatchlist(7, models.MediaTypeMovie) {
		t.Fatalf("expected guest entry before sign-in")
	}

	f.identity.switchTo(models.Identity{UserID: "user-1"})

	if f.store.IsInWatchlist(7, models.MediaTypeMovie) {
		t.Fatalf("guest entry must not survive sign-in (remote replaces, no merge)")
	}
	if !f.store.IsInWatchlist(42, models.MediaTypeTV) {
		t.Fatalf("expected remote entry after sign-in")
	}

	// The remote backend never received the guest entry.
	if _, uploaded := f.watch.items["user-1"]["movie-7"]; uploaded {
		t.Fatalf("guest entry must not be uploaded on sign-in")
	}
}

func TestAuthenticatedWatchlistIsMirroredToDeviceCache(t *testing.T) {
	f := newFixture(t, models.Identity{UserID: "user-1"})
	ctx := context.Background()

	if err := f.store.Add(ctx, 603, models.MediaTypeMovie); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	raw, ok := f.cache.Get("movieverse_watchlist")
	if !ok {
		t.Fatalf("expected watchlist mirror in device cache")
	}
	var mirrored []models.WatchlistItem
	if err := json.Unmarshal([]byte(raw), &mirrored); err != nil {
		t.Fatalf("mirror is not valid JSON: %v", err)
	}
	if len(mirrored) != 1 || mirrored[0] != (models.WatchlistItem{ID: 603, MediaType: models.MediaTypeMovie}) {
		t.Fatalf("unexpected mirror contents: %+v", mirrored)
	}

	// Authenticated ratings are not mirrored.
	if err := f.store.SetRating(ctx, 603, models.MediaTypeMovie, 5); err != nil {
		t.Fatalf("set rating returned error: %v", err)
	}
	if _, ok := f.cache.Get("movieverse_ratings"); ok {
		t.Fatalf("authenticated ratings must stay remote-only")
	}
}

func TestGuestRatingsPersistToDeviceCache(t *testing.T) {
	f := newFixture(t, models.Anonymous)
	ctx := context.Background()

	if err := f.store.SetRating(ctx, 603, models.MediaTypeMovie, 4); err != nil {
		t.Fatalf("set rating returned error: %v", err)
	}

	raw, ok := f.cache.Get("movieverse_ratings")
	if !ok {
		t.Fatalf("expected guest ratings in device cache")
	}
	var stored map[string]int
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("ratings payload is not valid JSON: %v", err)
	}
	if stored["movie-603"] != 4 {
		t.Fatalf("unexpected ratings payload: %v", stored)
	}

	// A fresh store over the same cache sees the rating again.
	reloaded := NewStore(newFakeWatchBackend(), newFakeRatingBackend(), f.cache)
	if err := reloaded.Start(ctx, &fakeIdentitySource{}); err != nil {
		t.Fatalf("store start failed: %v", err)
	}
	defer reloaded.Close()
	if got, ok := reloaded.Rating(603, models.MediaTypeMovie); !ok || got != 4 {
		t.Fatalf("expected reloaded rating 4, got %d (present=%t)", got, ok)
	}
}

func TestReconcileFetchFailureClearsSnapshot(t *testing.T) {
	f := newFixture(t, models.Anonymous)
	ctx := context.Background()

	if err := f.store.Add(ctx, 7, models.MediaTypeMovie); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	f.watch.listErr = errors.New("backend down")

	err := f.store.Reconcile(ctx, models.Identity{UserID: "user-1"})
	var persistenceErr *models.PersistenceError
	if !errors.As(err, &persistenceErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}

	// The stale guest snapshot must not leak into the new identity.
	if f.store.IsInWatchlist(7, models.MediaTypeMovie) {
		t.Fatalf("expected snapshot to be cleared after failed reconcile")
	}
}

func TestSignOutRestoresDeviceState(t *testing.T) {
	f := &storeFixture{
		watch:    newFakeWatchBackend(),
		ratings:  newFakeRatingBackend(),
		identity: &fakeIdentitySource{current: models.Identity{UserID: "user-1"}},
		cache:    newTestCache(t),
	}
	remote := models.WatchlistItem{ID: 42, MediaType: models.MediaTypeTV}
	f.watch.items["user-1"] = map[string]models.WatchlistItem{remote.Key(): remote}

	f.store = NewStore(f.watch, f.ratings, f.cache)
	if err := f.store.Start(context.Background(), f.identity); err != nil {
		t.Fatalf("store start failed: %v", err)
	}
	defer f.store.Close()

	// Signing out falls back to the device cache, which holds the mirror
	// written during the authenticated session.
	f.identity.switchTo(models.Anonymous)

	if !f.store.IsInWatchlist(42, models.MediaTypeTV) {
		t.Fatalf("expected mirrored entry to survive sign-out")
	}
}
