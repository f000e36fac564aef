package models

import "time"

// User models a registered Movieverse account capable of holding watchlist
// and rating data on the server side.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity describes who owns the session's watchlist and rating state.
// An anonymous identity keeps state only in the local device cache; an
// authenticated identity is backed by the remote store.
type Identity struct {
	UserID string `json:"userId,omitempty"`
}

// Anonymous is the identity of a session with no signed-in user.
var Anonymous = Identity{}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Key returns a stable cache key for the identity. Anonymous sessions all
// share one key, which matches the product behavior of anonymous daily
// picks being the same for everyone.
func (i Identity) Key() string {
	if i.UserID == "" {
		return "anonymous"
	}
	return i.UserID
}

// Profile holds per-user preference data consumed by the recommender.
type Profile struct {
	UserID         string `json:"userId"`
	FavoriteGenres []int  `json:"favoriteGenres"`
}
