package models

import "fmt"

const (
	// RatingMin is the lowest accepted star rating.
	RatingMin = 1
	// RatingMax is the highest accepted star rating.
	RatingMax = 5
)

// Rating is a user's star rating for a single catalog entry. Ratings follow
// upsert semantics: setting a rating for a (ID, MediaType) pair that already
// has one overwrites the old value.
type Rating struct {
	ID        int    `json:"id"`
	MediaType string `json:"type"` // movie | tv
	Value     int    `json:"rating"`
}

// Key returns a stable identifier combining media type and catalog ID.
func (r Rating) Key() string {
	return fmt.Sprintf("%s-%d", r.MediaType, r.ID)
}
