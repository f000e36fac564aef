package library

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"movieverse/internal/database"
	"movieverse/internal/localcache"
	"movieverse/models"
)

// Device cache keys, kept identical to what the legacy web client wrote to
// localStorage so existing device state loads unchanged.
const (
	watchlistCacheKey = "movieverse_watchlist"
	ratingsCacheKey   = "movieverse_ratings"
)

// ErrMutationInFlight rejects a second mutation on the same entry while an
// earlier one is still waiting on its durable write.
var ErrMutationInFlight = errors.New("mutation already in flight for this entry")

type watchlistBackend interface {
	ByUser(ctx context.Context, userID string) ([]models.WatchlistItem, error)
	Add(ctx context.Context, userID string, item models.WatchlistItem) error
	Remove(ctx context.Context, userID string, item models.WatchlistItem) error
}

type ratingBackend interface {
	ByUser(ctx context.Context, userID string) ([]models.Rating, error)
	Upsert(ctx context.Context, userID string, rating models.Rating) error
}

type deviceCache interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

var (
	_ watchlistBackend = (*database.WatchlistRepository)(nil)
	_ ratingBackend    = (*database.RatingRepository)(nil)
	_ deviceCache      = (*localcache.Cache)(nil)
)

type identitySource interface {
	Current() models.Identity
	Subscribe(fn func(models.Identity)) func()
}

// Store holds the session's watchlist and ratings. Anonymous sessions are
// backed by the device cache alone; authenticated sessions write through to
// the remote store with the watchlist mirrored into the cache as a backup.
//
// Mutations are optimistic: the in-memory snapshot changes first, then the
// durable write runs, and a failed write rolls the snapshot back before the
// error reaches the caller. While a write for one (id, type) key is in
// flight, further mutations on that key are rejected rather than raced.
type Store struct {
	watchBackend  watchlistBackend
	ratingBackend ratingBackend
	cache         deviceCache

	mu        sync.Mutex
	identity  models.Identity
	watch     map[string]models.WatchlistItem
	ratings   map[string]models.Rating
	inflight  map[string]struct{}
	observers map[int]func()
	nextObs   int

	unsubscribe func()
}

// NewStore builds a store over the given backends. Call Start to load the
// initial snapshot and begin tracking identity changes.
func NewStore(watch watchlistBackend, ratings ratingBackend, cache deviceCache) *Store {
	return &Store{
		watchBackend:  watch,
		ratingBackend: ratings,
		cache:         cache,
		watch:         make(map[string]models.WatchlistItem),
		ratings:       make(map[string]models.Rating),
		inflight:      make(map[string]struct{}),
		observers:     make(map[int]func()),
	}
}

// Start performs the initial reconciliation against the provider's current
// identity and subscribes to future identity changes.
func (s *Store) Start(ctx context.Context, provider identitySource) error {
	s.unsubscribe = provider.Subscribe(func(id models.Identity) {
		if err := s.Reconcile(context.Background(), id); err != nil {
			log.Printf("[library] reconcile after identity change failed: %v", err)
		}
	})
	return s.Reconcile(ctx, provider.Current())
}

// Close releases the identity subscription.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Subscribe registers fn to run after every completed mutation and after
// each reconciliation. The returned func removes the registration.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// IsInWatchlist reports membership against the current in-memory snapshot,
// including not-yet-confirmed optimistic mutations.
func (s *Store) IsInWatchlist(id int, mediaType string) bool {
	key := models.WatchlistItem{ID: id, MediaType: mediaType}.Key()
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.watch[key]
	return ok
}

// Watchlist returns a stable-ordered copy of the snapshot.
func (s *Store) Watchlist() []models.WatchlistItem {
	s.mu.Lock()
	items := make([]models.WatchlistItem, 0, len(s.watch))
	for _, item := range s.watch {
		items = append(items, item)
	}
	s.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].MediaType != items[j].MediaType {
			return items[i].MediaType < items[j].MediaType
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// Counts returns the watchlist and rating entry counts.
func (s *Store) Counts() (watchlist, ratings int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watch), len(s.ratings)
}

// Toggle removes the entry when present, adds it otherwise, and reports
// whether the entry is on the watchlist afterwards.
func (s *Store) Toggle(ctx context.Context, id int, mediaType string) (bool, error) {
	if s.IsInWatchlist(id, mediaType) {
		return false, s.Remove(ctx, id, mediaType)
	}
	return true, s.Add(ctx, id, mediaType)
}

// Add puts the entry on the watchlist. Adding an entry that is already
// present is a no-op.
func (s *Store) Add(ctx context.Context, id int, mediaType string) error {
	if !models.ValidMediaType(mediaType) {
		return &models.ValidationError{Field: "type", Reason: "must be movie or tv"}
	}
	item := models.WatchlistItem{ID: id, MediaType: mediaType}
	key := item.Key()

	s.mu.Lock()
	if _, ok := s.watch[key]; ok {
		s.mu.Unlock()
		return nil
	}
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	s.inflight[key] = struct{}{}
	s.watch[key] = item // optimistic
	identity := s.identity
	s.mu.Unlock()

	if identity.Authenticated() {
		if err := s.watchBackend.Add(ctx, identity.UserID, item); err != nil && !errors.Is(err, database.ErrDuplicate) {
			s.mu.Lock()
			delete(s.watch, key) // roll back the optimistic insert
			delete(s.inflight, key)
			s.mu.Unlock()
			return &models.PersistenceError{Op: "add watchlist entry", Err: err}
		}
	}

	s.mu.Lock()
	delete(s.inflight, key)
	s.persistWatchlistLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Remove takes the entry off the watchlist. Removing an absent entry is a
// no-op.
func (s *Store) Remove(ctx context.Context, id int, mediaType string) error {
	if !models.ValidMediaType(mediaType) {
		return &models.ValidationError{Field: "type", Reason: "must be movie or tv"}
	}
	item := models.WatchlistItem{ID: id, MediaType: mediaType}
	key := item.Key()

	s.mu.Lock()
	if _, ok := s.watch[key]; !ok {
		s.mu.Unlock()
		return nil
	}
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	s.inflight[key] = struct{}{}
	delete(s.watch, key) // optimistic
	identity := s.identity
	s.mu.Unlock()

	if identity.Authenticated() {
		if err := s.watchBackend.Remove(ctx, identity.UserID, item); err != nil {
			s.mu.Lock()
			s.watch[key] = item // roll back the optimistic delete
			delete(s.inflight, key)
			s.mu.Unlock()
			return &models.PersistenceError{Op: "remove watchlist entry", Err: err}
		}
	}

	s.mu.Lock()
	delete(s.inflight, key)
	s.persistWatchlistLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetRating upserts the user's star rating for an entry. Values outside
// [1,5] are rejected before any state changes.
func (s *Store) SetRating(ctx context.Context, id int, mediaType string, value int) error {
	if !models.ValidMediaType(mediaType) {
		return &models.ValidationError{Field: "type", Reason: "must be movie or tv"}
	}
	if value < models.RatingMin || value > models.RatingMax {
		return &models.ValidationError{
			Field:  "rating",
			Reason: fmt.Sprintf("must be between %d and %d", models.RatingMin, models.RatingMax),
		}
	}

	rating := models.Rating{ID: id, MediaType: mediaType, Value: value}
	key := "rating:" + rating.Key()

	s.mu.Lock()
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	s.inflight[key] = struct{}{}
	previous, hadPrevious := s.ratings[rating.Key()]
	s.ratings[rating.Key()] = rating // optimistic
	identity := s.identity
	s.mu.Unlock()

	if identity.Authenticated() {
		if err := s.ratingBackend.Upsert(ctx, identity.UserID, rating); err != nil {
			s.mu.Lock()
			if hadPrevious {
				s.ratings[rating.Key()] = previous
			} else {
				delete(s.ratings, rating.Key())
			}
			delete(s.inflight, key)
			s.mu.Unlock()
			return &models.PersistenceError{Op: "save rating", Err: err}
		}
	}

	s.mu.Lock()
	delete(s.inflight, key)
	if !identity.Authenticated() {
		// Guests keep their ratings on the device only.
		s.persistRatingsLocked()
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Rating returns the stored rating for an entry, if any.
func (s *Store) Rating(id int, mediaType string) (int, bool) {
	key := models.Rating{ID: id, MediaType: mediaType}.Key()
	s.mu.Lock()
	defer s.mu.Unlock()
	rating, ok := s.ratings[key]
	return rating.Value, ok
}

func (s *Store) notify() {
	s.mu.Lock()
	observers := make([]func(), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}
