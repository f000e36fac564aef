package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"movieverse/services/tmdb"
)

type catalogService interface {
	TrendingMovies(ctx context.Context, page int) (*tmdb.ResultPage, error)
	TrendingTV(ctx context.Context, page int) (*tmdb.ResultPage, error)
	PopularMovies(ctx context.Context, page int) (*tmdb.ResultPage, error)
	PopularTV(ctx context.Context, page int) (*tmdb.ResultPage, error)
	UpcomingMovies(ctx context.Context, page int) (*tmdb.ResultPage, error)
	SearchMovies(ctx context.Context, query string, page int) (*tmdb.ResultPage, error)
	SearchTV(ctx context.Context, query string, page int) (*tmdb.ResultPage, error)
	DiscoverMovies(ctx context.Context, opts tmdb.DiscoverOptions) (*tmdb.ResultPage, error)
	DiscoverTV(ctx context.Context, opts tmdb.DiscoverOptions) (*tmdb.ResultPage, error)
	MovieDetails(ctx context.Context, id int) (*tmdb.Detail, error)
	TVDetails(ctx context.Context, id int) (*tmdb.Detail, error)
	MovieGenres(ctx context.Context) ([]tmdb.Genre, error)
	TVGenres(ctx context.Context) ([]tmdb.Genre, error)
}

var _ catalogService = (*tmdb.Client)(nil)

// CatalogHandler proxies browse, search and detail lookups to the metadata
// source.
type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(s catalogService) *CatalogHandler {
	return &CatalogHandler{Service: s}
}

// Register mounts the catalog routes.
func (h *CatalogHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/movies/trending", h.trendingMovies).Methods(http.MethodGet)
	r.HandleFunc("/api/movies/popular", h.popularMovies).Methods(http.MethodGet)
	r.HandleFunc("/api/movies/upcoming", h.upcomingMovies).Methods(http.MethodGet)
	r.HandleFunc("/api/movies/search", h.searchMovies).Methods(http.MethodGet)
	r.HandleFunc("/api/movies/discover", h.discoverMovies).Methods(http.MethodGet)
	r.HandleFunc("/api/movies/{id:[0-9]+}", h.movieDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/tv/trending", h.trendingTV).Methods(http.MethodGet)
	r.HandleFunc("/api/tv/popular", h.popularTV).Methods(http.MethodGet)
	r.HandleFunc("/api/tv/search", h.searchTV).Methods(http.MethodGet)
	r.HandleFunc("/api/tv/discover", h.discoverTV).Methods(http.MethodGet)
	r.HandleFunc("/api/tv/{id:[0-9]+}", h.tvDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/genres/movie", h.movieGenres).Methods(http.MethodGet)
	r.HandleFunc("/api/genres/tv", h.tvGenres).Methods(http.MethodGet)
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (h *CatalogHandler) trendingMovies(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.Service.TrendingMovies)
}

func (h *CatalogHandler) popularMovies(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.Service.PopularMovies)
}

func (h *CatalogHandler) upcomingMovies(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.Service.UpcomingMovies)
}

func (h *CatalogHandler) trendingTV(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.Service.TrendingTV)
}

func (h *CatalogHandler) popularTV(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.Service.PopularTV)
}

func (h *CatalogHandler) respondList(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int) (*tmdb.ResultPage, error)) {
	page, err := fetch(r.Context(), pageParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) searchMovies(w http.ResponseWriter, r *http.Request) {
	h.respondSearch(w, r, h.Service.SearchMovies)
}

func (h *CatalogHandler) searchTV(w http.ResponseWriter, r *http.Request) {
	h.respondSearch(w, r, h.Service.SearchTV)
}

func (h *CatalogHandler) respondSearch(w http.ResponseWriter, r *http.Request, search func(context.Context, string, int) (*tmdb.ResultPage, error)) {
	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "missing query parameter", http.StatusBadRequest)
		return
	}
	page, err := search(r.Context(), query, pageParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// discoverOptions reads genre/year filters from the query string.
func discoverOptions(r *http.Request) tmdb.DiscoverOptions {
	opts := tmdb.DiscoverOptions{
		SortBy: tmdb.SortPopularityDesc,
		Page:   pageParam(r),
	}
	if genre, err := strconv.Atoi(r.URL.Query().Get("genre")); err == nil && genre > 0 {
		opts.Genres = []int{genre}
	}
	if year, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && year > 0 {
		opts.ReleaseAfter = strconv.Itoa(year) + "-01-01"
		opts.ReleaseBefore = strconv.Itoa(year) + "-12-31"
	}
	return opts
}

func (h *CatalogHandler) discoverMovies(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.DiscoverMovies(r.Context(), discoverOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) discoverTV(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.DiscoverTV(r.Context(), discoverOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) movieDetails(w http.ResponseWriter, r *http.Request) {
	h.respondDetails(w, r, h.Service.MovieDetails)
}

func (h *CatalogHandler) tvDetails(w http.ResponseWriter, r *http.Request) {
	h.respondDetails(w, r, h.Service.TVDetails)
}

func (h *CatalogHandler) respondDetails(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int) (*tmdb.Detail, error)) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	detail, err := fetch(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *CatalogHandler) movieGenres(w http.ResponseWriter, r *http.Request) {
	h.respondGenres(w, r, h.Service.MovieGenres)
}

func (h *CatalogHandler) tvGenres(w http.ResponseWriter, r *http.Request) {
	h.respondGenres(w, r, h.Service.TVGenres)
}

func (h *CatalogHandler) respondGenres(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]tmdb.Genre, error)) {
	genres, err := fetch(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]tmdb.Genre{"genres": genres})
}
