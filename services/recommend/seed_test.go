package recommend

import (
	"testing"
	"time"
)

func TestDailySeedDerivation(t *testing.T) {
	day := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	seed := dailySeed(day)
	if seed != 20250314 {
		t.Fatalf("expected seed 20250314, got %d", seed)
	}
	if got := seedPage(seed); got != 5 {
		t.Fatalf("expected page 5, got %d", got)
	}
	if got := movieIndexSeed(seed); got != 14 {
		t.Fatalf("expected movie index seed 14, got %d", got)
	}
	if got := tvIndexSeed(seed); got != 31 {
		t.Fatalf("expected tv index seed 31, got %d", got)
	}
}

func TestSeedIsStableWithinADay(t *testing.T) {
	morning := time.Date(2024, 12, 31, 0, 0, 1, 0, time.UTC)
	night := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	if dailySeed(morning) != dailySeed(night) {
		t.Fatalf("seed changed within a calendar day")
	}

	nextDay := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if dailySeed(morning) == dailySeed(nextDay) {
		t.Fatalf("seed did not change across day boundary")
	}
}

func TestSeedUsesUTCDay(t *testing.T) {
	// 23:00 in UTC-5 is already the next day in UTC.
	est := time.FixedZone("EST", -5*3600)
	local := time.Date(2025, 3, 14, 23, 0, 0, 0, est)
	if got := dailySeed(local); got != 20250315 {
		t.Fatalf("expected UTC day seed 20250315, got %d", got)
	}
}

func TestSeedPageStaysInRange(t *testing.T) {
	for day := 0; day < 366; day++ {
		seed := dailySeed(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day))
		page := seedPage(seed)
		if page < 1 || page > 5 {
			t.Fatalf("page %d out of range for seed %d", page, seed)
		}
	}
}
