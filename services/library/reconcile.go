package library

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strconv"
	"strings"

	"movieverse/models"
)

// Reconcile replaces the in-memory snapshot for the given identity.
//
// Authenticated: the remote sets are fetched and become the snapshot; the
// fetched watchlist is mirrored into the device cache as a backup. Guest
// state already on the device is NOT merged into the account — signing in
// discards it, which mirrors the original product behavior.
//
// Anonymous: the snapshot is whatever the device cache holds, with the
// legacy bare-integer watchlist format migrated to typed entries on load.
func (s *Store) Reconcile(ctx context.Context, identity models.Identity) error {
	if !identity.Authenticated() {
		watch := s.loadLocalWatchlist()
		ratings := s.loadLocalRatings()

		s.mu.Lock()
		s.identity = identity
		s.watch = watch
		s.ratings = ratings
		s.mu.Unlock()

		s.notify()
		return nil
	}

	remoteWatch, err := s.watchBackend.ByUser(ctx, identity.UserID)
	if err != nil {
		s.reset(identity)
		return &models.PersistenceError{Op: "load watchlist", Err: err}
	}
	remoteRatings, err := s.ratingBackend.ByUser(ctx, identity.UserID)
	if err != nil {
		s.reset(identity)
		return &models.PersistenceError{Op: "load ratings", Err: err}
	}

	watch := make(map[string]models.WatchlistItem, len(remoteWatch))
	for _, item := range remoteWatch {
		watch[item.Key()] = item
	}
	ratings := make(map[string]models.Rating, len(remoteRatings))
	for _, rating := range remoteRatings {
		ratings[rating.Key()] = rating
	}

	s.mu.Lock()
	s.identity = identity
	s.watch = watch
	s.ratings = ratings
	s.persistWatchlistLocked() // backup mirror; ratings stay remote-only
	s.mu.Unlock()

	s.notify()
	return nil
}

// reset clears the snapshot when a remote fetch fails. Keeping the
// previous user's entries visible under a new identity would let a later
// mutation write them to the wrong account.
func (s *Store) reset(identity models.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.watch = make(map[string]models.WatchlistItem)
	s.ratings = make(map[string]models.Rating)
	s.mu.Unlock()
}

// loadLocalWatchlist reads the watchlist from the device cache. Two payload
// shapes exist in the wild: the current explicit form
// [{"id":7,"type":"movie"}] and a legacy bare-integer array [7,12] whose
// entries were implicitly movies.
func (s *Store) loadLocalWatchlist() map[string]models.WatchlistItem {
	watch := make(map[string]models.WatchlistItem)

	raw, ok := s.cache.Get(watchlistCacheKey)
	if !ok || raw == "" {
		return watch
	}

	var legacy []int
	if err := json.Unmarshal([]byte(raw), &legacy); err == nil {
		for _, id := range legacy {
			item := models.WatchlistItem{ID: id, MediaType: models.MediaTypeMovie}
			watch[item.Key()] = item
		}
		return watch
	}

	var items []models.WatchlistItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Printf("[library] discarding unreadable cached watchlist: %v", err)
		return watch
	}
	for _, item := range items {
		if models.ValidMediaType(item.MediaType) {
			watch[item.Key()] = item
		}
	}
	return watch
}

// loadLocalRatings reads guest ratings from the device cache. The payload
// is a map keyed "type-id", e.g. {"movie-603":5}.
func (s *Store) loadLocalRatings() map[string]models.Rating {
	ratings := make(map[string]models.Rating)

	raw, ok := s.cache.Get(ratingsCacheKey)
	if !ok || raw == "" {
		return ratings
	}

	var stored map[string]int
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Printf("[library] discarding unreadable cached ratings: %v", err)
		return ratings
	}

	for key, value := range stored {
		mediaType, idStr, ok := strings.Cut(key, "-")
		if !ok || !models.ValidMediaType(mediaType) {
			continue
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		if value < models.RatingMin || value > models.RatingMax {
			continue
		}
		rating := models.Rating{ID: id, MediaType: mediaType, Value: value}
		ratings[rating.Key()] = rating
	}
	return ratings
}

// persistWatchlistLocked mirrors the snapshot into the device cache.
// Device writes are assumed infallible; a failure is logged, not surfaced.
func (s *Store) persistWatchlistLocked() {
	items := make([]models.WatchlistItem, 0, len(s.watch))
	for _, item := range s.watch {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].MediaType != items[j].MediaType {
			return items[i].MediaType < items[j].MediaType
		}
		return items[i].ID < items[j].ID
	})

	raw, err := json.Marshal(items)
	if err != nil {
		log.Printf("[library] encode watchlist for cache: %v", err)
		return
	}
	if err := s.cache.Set(watchlistCacheKey, string(raw)); err != nil {
		log.Printf("[library] write watchlist cache: %v", err)
	}
}

func (s *Store) persistRatingsLocked() {
	stored := make(map[string]int, len(s.ratings))
	for key, rating := range s.ratings {
		stored[key] = rating.Value
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		log.Printf("[library] encode ratings for cache: %v", err)
		return
	}
	if err := s.cache.Set(ratingsCacheKey, string(raw)); err != nil {
		log.Printf("[library] write ratings cache: %v", err)
	}
}
