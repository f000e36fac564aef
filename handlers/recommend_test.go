package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"movieverse/models"
)

type fakeRecommendService struct {
	pick *models.DailyPick
	err  error
	got  models.Identity
}

func (f *fakeRecommendService) DailyPick(ctx context.Context, identity models.Identity) (*models.DailyPick, error) {
	f.got = identity
	if f.err != nil {
		return nil, f.err
	}
	return f.pick, nil
}

type fakeIdentityReader struct {
	current models.Identity
}

func (f *fakeIdentityReader) Current() models.Identity { return f.current }

func TestRecommendHandlerServesPickForSessionIdentity(t *testing.T) {
	svc := &fakeRecommendService{
		pick: &models.DailyPick{
			Date:  "2025-03-14",
			Movie: &models.CandidateItem{ID: 603, Title: "The Matrix"},
		},
	}
	reader := &fakeIdentityReader{current: models.Identity{UserID: "user-1"}}

	router := mux.NewRouter()
	NewRecommendHandler(svc, reader).Register(router)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.got.UserID != "user-1" {
		t.Fatalf("expected session identity forwarded, got %+v", svc.got)
	}

	var pick models.DailyPick
	if err := json.NewDecoder(rec.Body).Decode(&pick); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if pick.Date != "2025-03-14" || pick.Movie == nil || pick.Movie.ID != 603 {
		t.Fatalf("unexpected pick %+v", pick)
	}
	if pick.TVShow != nil {
		t.Fatal("expected null tv pick to survive the round trip")
	}
}

func TestRecommendHandlerUpstreamFailure(t *testing.T) {
	svc := &fakeRecommendService{err: &models.FetchError{Endpoint: "/discover/movie", Status: 503}}
	reader := &fakeIdentityReader{current: models.Anonymous}

	router := mux.NewRouter()
	NewRecommendHandler(svc, reader).Register(router)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
}
