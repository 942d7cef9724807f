package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Per-endpoint request deadlines. Detail lookups stay tight so a slow
// upstream degrades to the local catalog quickly; bulk fetches get more room.
const (
	detailsTimeout  = 6 * time.Second
	enhancedTimeout = 10 * time.Second
	searchTimeout   = 8 * time.Second
	discoverTimeout = 10 * time.Second
	trendingTimeout = 8 * time.Second
	genresTimeout   = 8 * time.Second
	listTimeout     = 15 * time.Second

	detailsRetries = 2
	retryBackoff   = 100 * time.Millisecond
)

// Movie represents a single TMDB movie entry as returned by list endpoints.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	GenreIDs         []int64 `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
}

// Page models the TMDB paginated list response.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Genre is a single TMDB genre entry.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Video is a single entry from a movie's videos collection.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// CastMember is a single credited cast entry.
type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

// Details is the full movie detail payload. The appended collections
// (videos, credits, similar) are only populated by GetEnhancedDetails.
type Details struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	Genres           []Genre `json:"genres"`
	OriginalLanguage string  `json:"original_language"`
	Runtime          int     `json:"runtime"`
	Tagline          string  `json:"tagline"`
	Status           string  `json:"status"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`

	Videos *struct {
		Results []Video `json:"results"`
	} `json:"videos,omitempty"`
	Credits *struct {
		Cast []CastMember `json:"cast"`
	} `json:"credits,omitempty"`
	Similar *Page `json:"similar,omitempty"`
}

// GenreIDList flattens the detail payload's genre objects to bare IDs,
// matching the shape list endpoints return.
func (d *Details) GenreIDList() []int64 {
	if d == nil || len(d.Genres) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(d.Genres))
	for _, genre := range d.Genres {
		ids = append(ids, genre.ID)
	}
	return ids
}

// TrailerURL returns the watch URL of the first YouTube trailer in the
// appended videos collection, or empty when none exists.
func (d *Details) TrailerURL() string {
	if d == nil || d.Videos == nil {
		return ""
	}
	for _, video := range d.Videos.Results {
		if video.Site == "YouTube" && video.Type == "Trailer" && video.Key != "" {
			return "https://www.youtube.com/watch?v=" + video.Key
		}
	}
	return ""
}

// Provider defines the TMDB operations consumed by the movie service.
type Provider interface {
	ListMovies(ctx context.Context, category string, page int) (*Page, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*Details, error)
	GetEnhancedDetails(ctx context.Context, movieID int64) (*Details, error)
	SearchMovies(ctx context.Context, query string, page int) (*Page, error)
	DiscoverByGenre(ctx context.Context, genreID int64, page int) (*Page, error)
	Trending(ctx context.Context) (*Page, error)
	ListGenres(ctx context.Context) ([]Genre, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRequestsPerSecond caps the outbound request rate. Zero or negative
// disables the limiter.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 20 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(4), 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// categoryPath maps catalog browse categories onto TMDB list endpoints.
// Unknown categories fall back to the popular listing.
func categoryPath(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "top_rated":
		return "/movie/top_rated"
	case "now_playing":
		return "/movie/now_playing"
	case "upcoming":
		return "/movie/upcoming"
	default:
		return "/movie/popular"
	}
}

// ListMovies fetches one page of a TMDB curated movie list.
func (c *Client) ListMovies(ctx context.Context, category string, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	var payload Page
	if err := c.get(ctx, categoryPath(category), params, listTimeout, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMovieDetails fetches movie details by TMDB ID, retrying transient
// failures before giving up.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*Details, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}

	var lastErr error
	for attempt := 0; attempt <= detailsRetries; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, retryBackoff); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
		}
		// Each attempt decodes into its own payload so nothing a failed
		// attempt wrote can leak into a later successful one.
		var payload Details
		lastErr = c.get(ctx, fmt.Sprintf("/movie/%d", movieID), nil, detailsTimeout, &payload)
		if lastErr == nil {
			return &payload, nil
		}
		if !isRetriable(lastErr) {
			break
		}
	}
	return nil, lastErr
}

// GetEnhancedDetails fetches movie details with the videos, credits, and
// similar collections appended in a single round trip.
func (c *Client) GetEnhancedDetails(ctx context.Context, movieID int64) (*Details, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	params := url.Values{}
	params.Set("append_to_response", "videos,credits,similar")

	var payload Details
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", movieID), params, enhancedTimeout, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SearchMovies performs a TMDB movie title search.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var payload Page
	if err := c.get(ctx, "/search/movie", params, searchTimeout, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DiscoverByGenre fetches one page of movies belonging to a genre, most
// popular first.
func (c *Client) DiscoverByGenre(ctx context.Context, genreID int64, page int) (*Page, error) {
	if genreID <= 0 {
		return nil, errors.New("genre id must be positive")
	}
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("with_genres", strconv.FormatInt(genreID, 10))
	params.Set("sort_by", "popularity.desc")
	params.Set("page", strconv.Itoa(page))

	var payload Page
	if err := c.get(ctx, "/discover/movie", params, discoverTimeout, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Trending fetches the weekly trending movie list.
func (c *Client) Trending(ctx context.Context) (*Page, error) {
	var payload Page
	if err := c.get(ctx, "/trending/movie/week", nil, trendingTimeout, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ListGenres fetches the canonical movie genre list.
func (c *Client) ListGenres(ctx context.Context) ([]Genre, error) {
	var payload struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/movie/list", nil, genresTimeout, &payload); err != nil {
		return nil, err
	}
	return payload.Genres, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, timeout time.Duration, target any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limit wait: %w", ErrUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("%w: execute request (latency=%v): %w", ErrUnavailable, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %w", ErrUnavailable, &statusError{
			status: resp.StatusCode,
			msg:    fmt.Sprintf("tmdb %s returned %d (latency=%v)", path, resp.StatusCode, latency),
		})
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: decode tmdb response: %w", ErrUnavailable, err)
	}
	return nil
}
