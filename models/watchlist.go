package models

import "fmt"

const (
	// MediaTypeMovie marks an entry as a film.
	MediaTypeMovie = "movie"
	// MediaTypeTV marks an entry as a television show.
	MediaTypeTV = "tv"
)

// ValidMediaType reports whether t is one of the supported media types.
func ValidMediaType(t string) bool {
	return t == MediaTypeMovie || t == MediaTypeTV
}

// WatchlistItem represents a catalog entry the user wants to track.
// The (ID, MediaType) pair is the identity key; at most one entry exists
// per pair.
type WatchlistItem struct {
	ID        int    `json:"id"`
	MediaType string `json:"type"` // movie | tv
}

// Key returns a stable identifier combining media type and catalog ID.
// The same format is used for local cache payloads, so it must stay in
// sync with what the legacy web client wrote to device storage.
func (w WatchlistItem) Key() string {
	return fmt.Sprintf("%s-%d", w.MediaType, w.ID)
}
