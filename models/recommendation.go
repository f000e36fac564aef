package models

// CandidateItem is a single entry from the metadata source's discover
// results. Field names mirror the upstream API so handler responses stay
// compatible with the web client.
type CandidateItem struct {
	ID           int     `json:"id"`
	Title        string  `json:"title,omitempty"`          // movies
	Name         string  `json:"name,omitempty"`           // tv shows
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`   // movies
	FirstAirDate string  `json:"first_air_date,omitempty"` // tv shows
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
}

// UserPreferences summarizes the signals the daily pick was computed from.
type UserPreferences struct {
	FavoriteGenres []int `json:"favoriteGenres"`
	WatchlistCount int   `json:"watchlistCount"`
	RatingsCount   int   `json:"ratingsCount"`
}

// DailyPick is the day's recommendation for one identity. Either field may
// be nil when the upstream candidate pool for that media type is empty or
// unreachable; a partial pick is a valid degraded result.
type DailyPick struct {
	Date            string          `json:"date"` // UTC calendar day, YYYY-MM-DD
	Movie           *CandidateItem  `json:"movie"`
	TVShow          *CandidateItem  `json:"tvShow"`
	UserPreferences UserPreferences `json:"userPreferences"`
}
