package movies

import (
	"context"
	"strings"

	"marquee/internal/catalog"
	"marquee/internal/logging"
)

// normalizeCategory collapses unknown browse categories to the popular
// listing so cache keys and store queries always agree.
func normalizeCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "top_rated":
		return "top_rated"
	case "now_playing":
		return "now_playing"
	case "upcoming":
		return "upcoming"
	default:
		return "popular"
	}
}

// ListMovies returns one page of a browse category. Listings are served
// from the cache and catalog only; an empty catalog schedules a background
// backfill instead of blocking the request on the upstream.
func (s *Service) ListMovies(ctx context.Context, category string, page int) (*ListResult, error) {
	category = normalizeCategory(category)
	if page < 1 {
		page = 1
	}

	value, hit, err := s.cached(ctx, listKey(category, page), listTTL, func(ctx context.Context) (any, error) {
		records, total, err := s.store.ListByCategory(ctx, category, page)
		if err != nil {
			return nil, err
		}
		if total == 0 {
			s.scheduleBackfill(backfillJob{kind: backfillList, category: category, page: page})
		}
		return &ListResult{
			Movies:     records,
			Page:       page,
			TotalPages: totalPages(total),
			Source:     SourceDatabase,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	result := value.(*ListResult)
	if hit {
		tagged := *result
		tagged.Source = SourceCache
		return &tagged, nil
	}
	return result, nil
}

// Trending returns up to limit movies from the upstream weekly trending
// list, falling back to the most popular catalog rows.
func (s *Service) Trending(ctx context.Context, limit int) (*ListResult, error) {
	if limit <= 0 || limit > catalog.PageSize {
		limit = catalog.PageSize
	}

	value, hit, err := s.cached(ctx, trendingKey(limit), trendingTTL, func(ctx context.Context) (any, error) {
		if s.provider != nil {
			page, err := s.provider.Trending(ctx)
			if err == nil {
				entries := page.Results
				if len(entries) > limit {
					entries = entries[:limit]
				}
				records := make([]*catalog.Movie, 0, len(entries))
				for _, entry := range entries {
					records = append(records, catalog.FromTMDBMovie(entry))
				}
				if _, err := s.store.UpsertAll(ctx, records); err != nil {
					s.logger.Warn("persist trending results", logging.Error(err))
				}
				return &ListResult{Movies: records, Page: 1, TotalPages: 1, Source: SourceTMDB}, nil
			}
			s.logger.Warn("trending unavailable upstream", logging.Error(err))
		}

		records, err := s.store.TopByPopularity(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &ListResult{Movies: records, Page: 1, TotalPages: 1, Source: SourceDatabase}, nil
	})
	if err != nil {
		return nil, err
	}

	result := value.(*ListResult)
	if hit {
		tagged := *result
		tagged.Source = SourceCache
		return &tagged, nil
	}
	return result, nil
}

// MoviesByGenre returns one page of movies for a genre, preferring the
// upstream discover listing and falling back to catalog genre tags.
func (s *Service) MoviesByGenre(ctx context.Context, genreID int64, page int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}

	value, hit, err := s.cached(ctx, genreMoviesKey(genreID, page), genreMoviesTTL, func(ctx context.Context) (any, error) {
		if s.provider != nil {
			remote, err := s.provider.DiscoverByGenre(ctx, genreID, page)
			if err == nil {
				records := make([]*catalog.Movie, 0, len(remote.Results))
				for _, entry := range remote.Results {
					records = append(records, catalog.FromTMDBMovie(entry))
				}
				if _, err := s.store.UpsertAll(ctx, records); err != nil {
					s.logger.Warn("persist genre results", logging.Error(err))
				}
				return &ListResult{
					Movies:     records,
					Page:       remote.Page,
					TotalPages: remote.TotalPages,
					Source:     SourceTMDB,
				}, nil
			}
			s.logger.Warn("genre discover unavailable upstream",
				logging.Int64("genre_id", genreID), logging.Error(err))
		}

		records, total, err := s.store.ByGenre(ctx, genreID, page)
		if err != nil {
			return nil, err
		}
		return &ListResult{
			Movies:     records,
			Page:       page,
			TotalPages: totalPages(total),
			Source:     SourceDatabase,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	result := value.(*ListResult)
	if hit {
		tagged := *result
		tagged.Source = SourceCache
		return &tagged, nil
	}
	return result, nil
}

// Genres returns the movie genre catalog, preferring the upstream list and
// falling back to the built-in mapping.
func (s *Service) Genres(ctx context.Context) (*GenresResult, error) {
	value, hit, err := s.cached(ctx, genreListKey(), genresTTL, func(ctx context.Context) (any, error) {
		if s.provider != nil {
			remote, err := s.provider.ListGenres(ctx)
			if err == nil && len(remote) > 0 {
				genres := make([]catalog.Genre, 0, len(remote))
				for _, genre := range remote {
					genres = append(genres, catalog.Genre{ID: genre.ID, Name: genre.Name})
				}
				return &GenresResult{Genres: genres, Source: SourceTMDB}, nil
			}
			if err != nil {
				s.logger.Warn("genre list unavailable upstream", logging.Error(err))
			}
		}
		return &GenresResult{Genres: catalog.AllGenres(), Source: SourceFallback}, nil
	})
	if err != nil {
		return nil, err
	}

	result := value.(*GenresResult)
	if hit {
		tagged := *result
		tagged.Source = SourceCache
		return &tagged, nil
	}
	return result, nil
}

// Filter returns one page of catalog rows matching the filter dimensions.
// Filtering is a catalog-only operation.
func (s *Service) Filter(ctx context.Context, opts catalog.FilterOptions) (*ListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	opts.PerPage = catalog.NormalizePageSize(opts.PerPage)
	records, total, err := s.store.Filter(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Movies:     records,
		Page:       opts.Page,
		TotalPages: totalPagesSized(total, opts.PerPage),
		Source:     SourceDatabase,
	}, nil
}
