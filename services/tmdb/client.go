package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"movieverse/models"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Sort orders accepted by the discover endpoints.
const (
	SortPopularityDesc  = "popularity.desc"
	SortVoteAverageDesc = "vote_average.desc"
)

// Client handles requests to the TMDB v3 API for catalog metadata.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// Genre lists change rarely; cache them to avoid repeated API calls.
	genreMu       sync.RWMutex
	genreCache    map[string]genreCacheEntry
	genreCacheTTL time.Duration
}

type genreCacheEntry struct {
	genres    []Genre
	fetchedAt time.Time
}

// NewClient returns a TMDB client. An empty baseURL selects the production
// API; tests point it at a local fake server.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		genreCache:    make(map[string]genreCacheEntry),
		genreCacheTTL: 24 * time.Hour,
	}
}

// Genre is a TMDB genre list entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ResultPage is one page of a paginated list response.
type ResultPage struct {
	Page         int                    `json:"page"`
	Results      []models.CandidateItem `json:"results"`
	TotalPages   int                    `json:"total_pages"`
	TotalResults int                    `json:"total_results"`
}

// Detail is the response for a single title lookup. Unlike list entries,
// detail responses carry resolved genre objects.
type Detail struct {
	ID           int     `json:"id"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	Tagline      string  `json:"tagline,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Runtime      int     `json:"runtime,omitempty"`
	Genres       []Genre `json:"genres,omitempty"`
	IMDBID       string  `json:"imdb_id,omitempty"`
}

// DiscoverOptions narrows a discover query.
type DiscoverOptions struct {
	SortBy        string
	MinVoteCount  int
	Genres        []int
	Page          int
	ReleaseAfter  string // YYYY-MM-DD, movies only
	ReleaseBefore string // YYYY-MM-DD, movies only
}

func (o DiscoverOptions) values(movie bool) url.Values {
	q := url.Values{}
	if o.SortBy != "" {
		q.Set("sort_by", o.SortBy)
	}
	if o.MinVoteCount > 0 {
		q.Set("vote_count.gte", strconv.Itoa(o.MinVoteCount))
	}
	if len(o.Genres) > 0 {
		ids := make([]string, len(o.Genres))
		for i, id := range o.Genres {
			ids[i] = strconv.Itoa(id)
		}
		q.Set("with_genres", strings.Join(ids, ","))
	}
	page := o.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	if movie {
		if o.ReleaseAfter != "" {
			q.Set("primary_release_date.gte", o.ReleaseAfter)
		}
		if o.ReleaseBefore != "" {
			q.Set("primary_release_date.lte", o.ReleaseBefore)
		}
	}
	return q
}

// DiscoverMovies queries /discover/movie with the supplied filters.
func (c *Client) DiscoverMovies(ctx context.Context, opts DiscoverOptions) (*ResultPage, error) {
	var page ResultPage
	if err := c.get(ctx, "/discover/movie", opts.values(true), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// DiscoverTV queries /discover/tv with the supplied filters.
func (c *Client) DiscoverTV(ctx context.Context, opts DiscoverOptions) (*ResultPage, error) {
	var page ResultPage
	if err := c.get(ctx, "/discover/tv", opts.values(false), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TrendingMovies returns this week's trending movies.
func (c *Client) TrendingMovies(ctx context.Context, page int) (*ResultPage, error) {
	return c.list(ctx, "/trending/movie/week", page)
}

// TrendingTV returns this week's trending TV shows.
func (c *Client) TrendingTV(ctx context.Context, page int) (*ResultPage, error) {
	return c.list(ctx, "/trending/tv/week", page)
}

// PopularMovies returns the popular movie list.
func (c *Client) PopularMovies(ctx context.Context, page int) (*ResultPage, error) {
	return c.list(ctx, "/movie/popular", page)
}

// PopularTV returns the popular TV list.
func (c *Client) PopularTV(ctx context.Context, page int) (*ResultPage, error) {
	return c.list(ctx, "/tv/popular", page)
}

// UpcomingMovies returns movies releasing between now and two years out,
// most popular first.
func (c *Client) UpcomingMovies(ctx context.Context, page int) (*ResultPage, error) {
	today := time.Now().UTC()
	return c.DiscoverMovies(ctx, DiscoverOptions{
		SortBy:        SortPopularityDesc,
		Page:          page,
		ReleaseAfter:  today.Format("2006-01-02"),
		ReleaseBefore: today.AddDate(2, 0, 0).Format("2006-01-02"),
	})
}

// SearchMovies queries /search/movie.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*ResultPage, error) {
	return c.search(ctx, "/search/movie", query, page)
}

// SearchTV queries /search/tv.
func (c *Client) SearchTV(ctx context.Context, query string, page int) (*ResultPage, error) {
	return c.search(ctx, "/search/tv", query, page)
}

// MovieDetails returns the full record for a single movie.
func (c *Client) MovieDetails(ctx context.Context, id int) (*Detail, error) {
	var detail Detail
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// TVDetails returns the full record for a single TV show.
func (c *Client) TVDetails(ctx context.Context, id int) (*Detail, error) {
	var detail Detail
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// MovieGenres returns the movie genre list, cached for 24 hours.
func (c *Client) MovieGenres(ctx context.Context) ([]Genre, error) {
	return c.genres(ctx, "/genre/movie/list")
}

// TVGenres returns the TV genre list, cached for 24 hours.
func (c *Client) TVGenres(ctx context.Context) ([]Genre, error) {
	return c.genres(ctx, "/genre/tv/list")
}

func (c *Client) genres(ctx context.Context, path string) ([]Genre, error) {
	c.genreMu.RLock()
	entry, ok := c.genreCache[path]
	c.genreMu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < c.genreCacheTTL {
		return entry.genres, nil
	}

	var response struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, path, nil, &response); err != nil {
		return nil, err
	}

	c.genreMu.Lock()
	c.genreCache[path] = genreCacheEntry{genres: response.Genres, fetchedAt: time.Now()}
	c.genreMu.Unlock()

	return response.Genres, nil
}

func (c *Client) list(ctx context.Context, path string, page int) (*ResultPage, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	var result ResultPage
	if err := c.get(ctx, path, q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) search(ctx context.Context, path, query string, page int) (*ResultPage, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))

	var result ResultPage
	if err := c.get(ctx, path, q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// get performs a GET against the API and decodes the JSON body into out.
// Transport failures and non-2xx statuses come back as *models.FetchError.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	query.Set("language", "en-US")

	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.FetchError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &models.FetchError{Endpoint: path, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.FetchError{Endpoint: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
