package recommend

import (
	"context"
	"log"
	"sync"
	"time"

	"movieverse/models"
	"movieverse/services/tmdb"

	"github.com/sourcegraph/conc"
)

// Quality floors applied to the candidate pools. TV shows accumulate votes
// more slowly than films, so their floor sits lower.
const (
	movieVoteFloor = 1000
	tvVoteFloor    = 500
)

type profileSource interface {
	ByUser(ctx context.Context, userID string) (*models.Profile, error)
}

type librarySource interface {
	Watchlist() []models.WatchlistItem
	Counts() (watchlist, ratings int)
}

// Service computes one DailyPick per identity per UTC calendar day. Picks
// are deterministic for a fixed (identity, date, watchlist) triple and
// cached until the day rolls over.
type Service struct {
	source   MetadataSource
	profiles profileSource
	library  librarySource
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedPick
}

type cachedPick struct {
	date string
	pick *models.DailyPick
}

// NewService returns a selector over the given metadata source, profile
// store and library store.
func NewService(source MetadataSource, profiles profileSource, library librarySource) *Service {
	return &Service{
		source:   source,
		profiles: profiles,
		library:  library,
		now:      time.Now,
		cache:    make(map[string]cachedPick),
	}
}

// DailyPick returns today's recommendation for the identity, computing and
// caching it on first call of the day. A metadata fetch failure degrades
// the affected field to null instead of failing the whole pick.
func (s *Service) DailyPick(ctx context.Context, identity models.Identity) (*models.DailyPick, error) {
	day := s.now().UTC()
	date := day.Format("2006-01-02")
	cacheKey := identity.Key() + ":" + date

	s.mu.Lock()
	if entry, ok := s.cache[cacheKey]; ok && entry.date == date {
		pick := entry.pick
		s.mu.Unlock()
		return pick, nil
	}
	s.mu.Unlock()

	pick, err := s.compute(ctx, identity, day, date)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// Entries from previous days are dead weight; drop them while we hold
	// the lock anyway.
	for key, entry := range s.cache {
		if entry.date != date {
			delete(s.cache, key)
		}
	}
	s.cache[cacheKey] = cachedPick{date: date, pick: pick}
	s.mu.Unlock()

	return pick, nil
}

func (s *Service) compute(ctx context.Context, identity models.Identity, day time.Time, date string) (*models.DailyPick, error) {
	seed := dailySeed(day)
	page := seedPage(seed)

	prefs := models.UserPreferences{FavoriteGenres: []int{}}
	exclude := make(map[string]struct{})
	sortBy := tmdb.SortPopularityDesc

	if identity.Authenticated() {
		profile, err := s.profiles.ByUser(ctx, identity.UserID)
		if err != nil {
			return nil, &models.PersistenceError{Op: "load profile", Err: err}
		}
		prefs.FavoriteGenres = profile.FavoriteGenres
		prefs.WatchlistCount, prefs.RatingsCount = s.library.Counts()
		for _, item := range s.library.Watchlist() {
			exclude[item.Key()] = struct{}{}
		}
		// Signed-in users get quality-sorted candidates biased toward
		// their favorite genres; anonymous picks ride popularity alone.
		sortBy = tmdb.SortVoteAverageDesc
	}

	var moviePage, tvPage *tmdb.ResultPage
	var wg conc.WaitGroup
	wg.Go(func() {
		result, err := s.source.DiscoverMovies(ctx, tmdb.DiscoverOptions{
			SortBy:       sortBy,
			MinVoteCount: movieVoteFloor,
			Genres:       prefs.FavoriteGenres,
			Page:         page,
		})
		if err != nil {
			log.Printf("[recommend] movie candidates unavailable: %v", err)
			return
		}
		moviePage = result
	})
	wg.Go(func() {
		result, err := s.source.DiscoverTV(ctx, tmdb.DiscoverOptions{
			SortBy:       sortBy,
			MinVoteCount: tvVoteFloor,
			Genres:       prefs.FavoriteGenres,
			Page:         page,
		})
		if err != nil {
			log.Printf("[recommend] tv candidates unavailable: %v", err)
			return
		}
		tvPage = result
	})
	wg.Wait()

	pick := &models.DailyPick{Date: date, UserPreferences: prefs}
	if moviePage != nil {
		pick.Movie = selectCandidate(moviePage.Results, exclude, models.MediaTypeMovie, movieIndexSeed(seed))
	}
	if tvPage != nil {
		pick.TVShow = selectCandidate(tvPage.Results, exclude, models.MediaTypeTV, tvIndexSeed(seed))
	}
	return pick, nil
}

// selectCandidate drops excluded entries, then indexes into the remainder
// modulo its actual length. An emptied-out list falls back to the first
// unfiltered candidate; an empty pool yields nil.
func selectCandidate(results []models.CandidateItem, exclude map[string]struct{}, mediaType string, index int) *models.CandidateItem {
	filtered := make([]models.CandidateItem, 0, len(results))
	for _, candidate := range results {
		key := models.WatchlistItem{ID: candidate.ID, MediaType: mediaType}.Key()
		if _, skip := exclude[key]; !skip {
			filtered = append(filtered, candidate)
		}
	}

	if len(filtered) > 0 {
		picked := filtered[index%len(filtered)]
		return &picked
	}
	if len(results) > 0 {
		picked := results[0]
		return &picked
	}
	return nil
}
