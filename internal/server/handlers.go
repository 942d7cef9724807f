package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"marquee/internal/catalog"
	"marquee/internal/movies"
)

func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parsePathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "health check failed", err)
		return
	}
	s.writeData(w, map[string]any{
		"status": "ok",
		"movies": stats.Catalog.TotalMovies,
		"cache":  stats.Cache,
	}, "")
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	result, err := s.svc.ListMovies(r.Context(), category, parsePage(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list movies", err)
		return
	}
	s.writeList(w, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		query = r.URL.Query().Get("q")
	}
	result, err := s.svc.Search(r.Context(), query, parsePage(r))
	if errors.Is(err, movies.ErrQueryTooShort) {
		s.writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "search failed", err)
		return
	}
	s.writeList(w, result)
}

func (s *Server) handleQuickSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 5
	}
	result, err := s.svc.QuickSearch(r.Context(), query, limit)
	if errors.Is(err, movies.ErrQueryTooShort) {
		s.writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "quick search failed", err)
		return
	}
	s.writeData(w, result.Movies, result.Source)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = catalog.PageSize
	}
	result, err := s.svc.Trending(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load trending movies", err)
		return
	}
	s.writeList(w, result)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := catalog.FilterOptions{
		Language:  query.Get("language"),
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
		Page:      parsePage(r),
	}
	if year, err := strconv.Atoi(query.Get("year_from")); err == nil {
		opts.YearFrom = year
	}
	if year, err := strconv.Atoi(query.Get("year_to")); err == nil {
		opts.YearTo = year
	}
	if rating, err := strconv.ParseFloat(query.Get("min_rating"), 64); err == nil {
		opts.MinRating = rating
	}
	if rating, err := strconv.ParseFloat(query.Get("max_rating"), 64); err == nil {
		opts.MaxRating = rating
	}
	if genreID, err := strconv.ParseInt(query.Get("genre"), 10, 64); err == nil {
		opts.GenreID = genreID
	}
	if perPage, err := strconv.Atoi(query.Get("per_page")); err == nil {
		opts.PerPage = perPage
	}

	result, err := s.svc.Filter(r.Context(), opts)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "filter failed", err)
		return
	}
	s.writeList(w, result)
}

func (s *Server) handleMovieDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid movie id", nil)
		return
	}

	// ?source=local resolves the catalog's own surrogate key instead of a
	// TMDB identifier, and never reaches upstream.
	if strings.EqualFold(r.URL.Query().Get("source"), "local") {
		result, err := s.svc.GetLocalDetails(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to load movie", err)
			return
		}
		if !result.Found {
			s.writeError(w, http.StatusNotFound, "movie not found", nil)
			return
		}
		s.writeData(w, result.Movie, result.Source)
		return
	}

	result, err := s.svc.GetDetails(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load movie", err)
		return
	}
	s.writeData(w, result.Movie, result.Source)
}

func (s *Server) handleMovieEnhanced(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid movie id", nil)
		return
	}
	result, err := s.svc.GetEnhanced(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load movie details", err)
		return
	}
	s.writeData(w, result.Movie, result.Source)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Genres(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load genres", err)
		return
	}
	s.writeData(w, result.Genres, result.Source)
}

func (s *Server) handleGenreMovies(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid genre id", nil)
		return
	}
	result, err := s.svc.MoviesByGenre(r.Context(), id, parsePage(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load genre movies", err)
		return
	}
	s.writeList(w, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load stats", err)
		return
	}
	s.writeData(w, stats, "")
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	removed := s.svc.ClearCache()
	s.writeData(w, map[string]int{"removed": removed}, "")
}
