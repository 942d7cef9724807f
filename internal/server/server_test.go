package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"marquee/internal/catalog"
	"marquee/internal/movies"
	"marquee/internal/server"
	"marquee/internal/testsupport"
)

type testEnvelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		CurrentPage int `json:"current_page"`
		TotalPages  int `json:"total_pages"`
	} `json:"pagination"`
	Source string `json:"source"`
	Error  string `json:"error"`
}

func newTestServer(t *testing.T, seedMovies ...*catalog.Movie) *server.Server {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Cache.BackfillDepth = 0
	store := testsupport.MustOpenStore(t, cfg)
	for _, movie := range seedMovies {
		testsupport.SeedMovie(t, store, movie)
	}

	svc := movies.NewService(cfg, store, nil, nil)
	t.Cleanup(svc.Close)

	srv, err := server.New(cfg, svc, nil)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return srv
}

func doRequest(t *testing.T, srv *server.Server, method, target string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	recorder := httptest.NewRecorder()
	srv.Handler().ServeHTTP(recorder, req)

	var env testEnvelope
	if recorder.Body.Len() > 0 && recorder.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(recorder.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope from %s: %v (%s)", target, err, recorder.Body.String())
		}
	}
	return recorder, env
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	recorder, env := doRequest(t, srv, http.MethodGet, "/api/health")
	if recorder.Code != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", recorder.Code, env)
	}
	if recorder.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
	var body struct {
		Status string          `json:"status"`
		Movies int64           `json:"movies"`
		Cache  json.RawMessage `json:"cache"`
	}
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body.Status != "ok" || len(body.Cache) == 0 {
		t.Fatalf("health body = %+v", body)
	}
}

func TestListMoviesEnvelope(t *testing.T) {
	srv := newTestServer(t,
		&catalog.Movie{TMDBID: 1, Title: "High", Popularity: 90},
		&catalog.Movie{TMDBID: 2, Title: "Low", Popularity: 10},
	)

	recorder, env := doRequest(t, srv, http.MethodGet, "/api/movies?category=popular")
	if recorder.Code != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", recorder.Code, env)
	}
	if env.Pagination == nil || env.Pagination.CurrentPage != 1 || env.Pagination.TotalPages != 1 {
		t.Fatalf("pagination = %+v", env.Pagination)
	}
	if env.Source != "database" {
		t.Fatalf("source = %q", env.Source)
	}

	var rows []catalog.Movie
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 2 || rows[0].Title != "High" {
		t.Fatalf("rows = %#v", rows)
	}
}

func TestSearchValidation(t *testing.T) {
	srv := newTestServer(t)

	recorder, env := doRequest(t, srv, http.MethodGet, "/api/movies/search?q=a")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", recorder.Code)
	}
	if env.Success || env.Error == "" {
		t.Fatalf("env = %+v", env)
	}
}

func TestSearchReturnsMatches(t *testing.T) {
	srv := newTestServer(t, &catalog.Movie{TMDBID: 603, Title: "The Matrix", Popularity: 90})

	recorder, env := doRequest(t, srv, http.MethodGet, "/api/movies/search?q=matrix")
	if recorder.Code != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", recorder.Code, env)
	}

	var rows []catalog.Movie
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 1 || rows[0].TMDBID != 603 {
		t.Fatalf("rows = %#v", rows)
	}
}

func TestQuickSearchLimit(t *testing.T) {
	srv := newTestServer(t,
		&catalog.Movie{TMDBID: 1, Title: "Alien", Popularity: 3},
		&catalog.Movie{TMDBID: 2, Title: "Aliens", Popularity: 2},
		&catalog.Movie{TMDBID: 3, Title: "Alien 3", Popularity: 1},
	)

	_, env := doRequest(t, srv, http.MethodGet, "/api/movies/quick-search?q=alien&limit=2")
	var rows []catalog.Movie
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("limit ignored, rows = %d", len(rows))
	}
}

func TestMovieDetailsByTMDBID(t *testing.T) {
	srv := newTestServer(t, &catalog.Movie{TMDBID: 603, Title: "The Matrix", Overview: "A hacker learns the truth."})

	recorder, env := doRequest(t, srv, http.MethodGet, "/api/movies/603")
	if recorder.Code != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", recorder.Code, env)
	}
	if env.Source != "database" {
		t.Fatalf("source = %q", env.Source)
	}
}

func TestMovieDetailsPlaceholderForUnknown(t *testing.T) {
	srv := newTestServer(t)

	recorder, env := doRequest(t, srv, http.MethodGet, "/api/movies/999")
	if recorder.Code != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", recorder.Code, env)
	}
	if env.Source != "fallback" {
		t.Fatalf("source = %q", env.Source)
	}
	var movie catalog.Movie
	if err := json.Unmarshal(env.Data, &movie); err != nil {
		t.Fatalf("decode movie: %v", err)
	}
	if movie.Title != "Movie Not Found" {
		t.Fatalf("title = %q", movie.Title)
	}
}

func TestMovieDetailsLocalSource(t *testing.T) {
	srv := newTestServer(t, &catalog.Movie{TMDBID: 603, Title: "The Matrix"})

	// Surrogate IDs start at 1 in a fresh catalog.
	recorder, env := doRequest(t, srv, http.MethodGet, "/api/movies/1?source=local")
	if recorder.Code != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", recorder.Code, env)
	}

	recorder, _ = doRequest(t, srv, http.MethodGet, "/api/movies/424242?source=local")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("missing local row: status = %d", recorder.Code)
	}
}

func TestMovieDetailsInvalidID(t *testing.T) {
	srv := newTestServer(t)

	recorder, _ := doRequest(t, srv, http.MethodGet, "/api/movies/not-a-number")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestEnhancedDetailsEndpoint(t *testing.T) {
	srv := newTestServer(t, &catalog.Movie{
		TMDBID:   603,
		Title:    "The Matrix",
		Overview: "A hacker learns the truth.",
		CastJSON: `[{"id":6384,"name":"Keanu Reeves","character":"Neo"}]`,
	})

	recorder, env := doRequest(t, srv, http.MethodGet, "/api/movies/603/enhanced")
	if recorder.Code != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", recorder.Code, env)
	}
	var enhanced struct {
		Title string `json:"title"`
		Cast  []struct {
			Name string `json:"name"`
		} `json:"cast"`
	}
	if err := json.Unmarshal(env.Data, &enhanced); err != nil {
		t.Fatalf("decode enhanced: %v", err)
	}
	if enhanced.Title != "The Matrix" || len(enhanced.Cast) != 1 {
		t.Fatalf("enhanced = %+v", enhanced)
	}
}

func TestGenresEndpoint(t *testing.T) {
	srv := newTestServer(t)

	recorder, env := doRequest(t, srv, http.MethodGet, "/api/genres")
	if recorder.Code != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", recorder.Code, env)
	}
	var genres []catalog.Genre
	if err := json.Unmarshal(env.Data, &genres); err != nil {
		t.Fatalf("decode genres: %v", err)
	}
	if len(genres) != 18 {
		t.Fatalf("expected built-in genre list, got %d entries", len(genres))
	}
}

func TestGenreMoviesEndpoint(t *testing.T) {
	srv := newTestServer(t,
		&catalog.Movie{TMDBID: 1, Title: "Scary", GenreIDs: []int64{27}},
		&catalog.Movie{TMDBID: 2, Title: "Funny", GenreIDs: []int64{35}},
	)

	_, env := doRequest(t, srv, http.MethodGet, "/api/genres/27/movies")
	var rows []catalog.Movie
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 1 || rows[0].Title != "Scary" {
		t.Fatalf("rows = %#v", rows)
	}
}

func TestFilterEndpoint(t *testing.T) {
	srv := newTestServer(t,
		&catalog.Movie{TMDBID: 1, Title: "Recent Hit", ReleaseDate: "2020-03-01", VoteAverage: 8},
		&catalog.Movie{TMDBID: 2, Title: "Old", ReleaseDate: "1995-01-01", VoteAverage: 9},
	)

	_, env := doRequest(t, srv, http.MethodGet, "/api/movies/filter?year_from=2000&year_to=2021&min_rating=7&max_rating=8.5")
	var rows []catalog.Movie
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 1 || rows[0].Title != "Recent Hit" {
		t.Fatalf("rows = %#v", rows)
	}

	_, env = doRequest(t, srv, http.MethodGet, "/api/movies/filter?per_page=1")
	if env.Pagination == nil || env.Pagination.TotalPages != 2 {
		t.Fatalf("pagination = %+v", env.Pagination)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, &catalog.Movie{TMDBID: 1, Title: "One"})

	recorder, env := doRequest(t, srv, http.MethodGet, "/api/stats")
	if recorder.Code != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", recorder.Code, env)
	}
	var stats struct {
		Catalog struct {
			TotalMovies int64 `json:"total_movies"`
		} `json:"catalog"`
	}
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Catalog.TotalMovies != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestCacheClearRequiresPost(t *testing.T) {
	srv := newTestServer(t)

	recorder, _ := doRequest(t, srv, http.MethodGet, "/api/cache/clear")
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET should be rejected, status = %d", recorder.Code)
	}

	recorder, env := doRequest(t, srv, http.MethodPost, "/api/cache/clear")
	if recorder.Code != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", recorder.Code, env)
	}
}
