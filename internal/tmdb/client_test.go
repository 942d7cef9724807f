package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"marquee/internal/tmdb"
)

func newTestClient(t *testing.T, handler http.Handler) *tmdb.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "en-US", tmdb.WithRequestsPerSecond(0))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestListMoviesMapsCategories(t *testing.T) {
	var gotPath atomic.Value
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		if r.URL.Query().Get("api_key") != "key" {
			t.Errorf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":2,"results":[{"id":603,"title":"The Matrix"}],"total_pages":10}`))
	}))

	cases := []struct {
		category string
		path     string
	}{
		{"popular", "/movie/popular"},
		{"top_rated", "/movie/top_rated"},
		{"now_playing", "/movie/now_playing"},
		{"upcoming", "/movie/upcoming"},
		{"unknown_category", "/movie/popular"},
		{"", "/movie/popular"},
	}
	for _, tc := range cases {
		page, err := client.ListMovies(context.Background(), tc.category, 2)
		if err != nil {
			t.Fatalf("ListMovies(%q) returned error: %v", tc.category, err)
		}
		if gotPath.Load() != tc.path {
			t.Fatalf("ListMovies(%q) hit %v, want %s", tc.category, gotPath.Load(), tc.path)
		}
		if len(page.Results) != 1 || page.Results[0].Title != "The Matrix" {
			t.Fatalf("unexpected page: %#v", page)
		}
	}
}

func TestGetMovieDetailsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","overview":"A hacker learns the truth."}`))
	}))

	details, err := client.GetMovieDetails(context.Background(), 603)
	if err != nil {
		t.Fatalf("GetMovieDetails returned error: %v", err)
	}
	if details.Title != "The Matrix" {
		t.Fatalf("unexpected details: %#v", details)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestGetMovieDetailsRetryDecodesFreshPayload(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			// Stall mid-body so the first attempt times out after fields
			// are already on the wire.
			_, _ = w.Write([]byte(`{"id":603,"overview":"stale overview"`))
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
			time.Sleep(250 * time.Millisecond)
			return
		}
		_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix"}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "en-US",
		tmdb.WithRequestsPerSecond(0),
		tmdb.WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	details, err := client.GetMovieDetails(context.Background(), 603)
	if err != nil {
		t.Fatalf("GetMovieDetails returned error: %v", err)
	}
	if details.Overview != "" {
		t.Fatalf("failed attempt's fields leaked into the retried result: %q", details.Overview)
	}
	if details.Title != "The Matrix" || calls.Load() != 2 {
		t.Fatalf("details=%#v calls=%d", details, calls.Load())
	}
}

func TestGetMovieDetailsDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetMovieDetails(context.Background(), 603)
	if !errors.Is(err, tmdb.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("404 should not be retried, got %d attempts", calls.Load())
	}
}

func TestGetEnhancedDetailsAppendsCollections(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("append_to_response"); got != "videos,credits,similar" {
			t.Errorf("append_to_response = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":603,
			"title":"The Matrix",
			"genres":[{"id":878,"name":"Science Fiction"},{"id":28,"name":"Action"}],
			"videos":{"results":[
				{"key":"clip1","site":"YouTube","type":"Clip"},
				{"key":"trailer1","site":"YouTube","type":"Trailer"}
			]},
			"credits":{"cast":[{"id":6384,"name":"Keanu Reeves","character":"Neo","order":0}]}
		}`))
	}))

	details, err := client.GetEnhancedDetails(context.Background(), 603)
	if err != nil {
		t.Fatalf("GetEnhancedDetails returned error: %v", err)
	}
	if got := details.TrailerURL(); got != "https://www.youtube.com/watch?v=trailer1" {
		t.Fatalf("TrailerURL = %q", got)
	}
	ids := details.GenreIDList()
	if len(ids) != 2 || ids[0] != 878 || ids[1] != 28 {
		t.Fatalf("GenreIDList = %v", ids)
	}
	if details.Credits == nil || len(details.Credits.Cast) != 1 || details.Credits.Cast[0].Name != "Keanu Reeves" {
		t.Fatalf("unexpected credits: %#v", details.Credits)
	}
}

func TestSearchMoviesEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovies(context.Background(), "  ", 1); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestDiscoverByGenreSetsFilters(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("with_genres") != "27" {
			t.Errorf("with_genres = %q", query.Get("with_genres"))
		}
		if query.Get("sort_by") != "popularity.desc" {
			t.Errorf("sort_by = %q", query.Get("sort_by"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	}))

	if _, err := client.DiscoverByGenre(context.Background(), 27, 1); err != nil {
		t.Fatalf("DiscoverByGenre returned error: %v", err)
	}
}

func TestTrendingUsesWeeklyWindow(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trending/movie/week" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"One"}]}`))
	}))

	page, err := client.Trending(context.Background())
	if err != nil {
		t.Fatalf("Trending returned error: %v", err)
	}
	if len(page.Results) != 1 {
		t.Fatalf("unexpected results: %#v", page.Results)
	}
}

func TestListGenresUnwrapsEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/genre/movie/list" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":35,"name":"Comedy"}]}`))
	}))

	genres, err := client.ListGenres(context.Background())
	if err != nil {
		t.Fatalf("ListGenres returned error: %v", err)
	}
	if len(genres) != 2 || genres[1].Name != "Comedy" {
		t.Fatalf("unexpected genres: %#v", genres)
	}
}

func TestTransportFailureWrapsErrUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := tmdb.New("key", server.URL, "", tmdb.WithRequestsPerSecond(0))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Trending(context.Background()); !errors.Is(err, tmdb.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
