package recommend

import (
	"strconv"
	"time"
)

// dailySeed derives the deterministic seed for a calendar day: the UTC
// date's digits YYYYMMDD read as a base-10 integer. No random state is
// persisted; recomputing the seed for the same day always agrees.
func dailySeed(day time.Time) int {
	seed, _ := strconv.Atoi(day.UTC().Format("20060102"))
	return seed
}

// seedPage maps the seed onto one of the first five discover pages.
func seedPage(seed int) int {
	return seed%5 + 1
}

// movieIndexSeed is the last two digits of the seed.
func movieIndexSeed(seed int) int {
	return seed % 100
}

// tvIndexSeed is the two digits preceding the last one, so the movie and
// TV picks land on different offsets within their pages.
func tvIndexSeed(seed int) int {
	return (seed / 10) % 100
}
