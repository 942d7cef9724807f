package movies

import (
	"context"
	"errors"
	"strings"

	"marquee/internal/catalog"
	"marquee/internal/logging"
)

// MinQueryLength is the shortest accepted search query after trimming.
const MinQueryLength = 2

// ErrQueryTooShort rejects queries below the minimum length.
var ErrQueryTooShort = errors.New("search query must be at least 2 characters")

// Search returns one page of title matches, preferring the upstream search
// index and falling back to a catalog scan.
func (s *Service) Search(ctx context.Context, query string, page int) (*ListResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	if page < 1 {
		page = 1
	}

	value, hit, err := s.cached(ctx, searchKey(query, page), searchTTL, func(ctx context.Context) (any, error) {
		if s.provider != nil {
			remote, err := s.provider.SearchMovies(ctx, query, page)
			if err == nil {
				records := make([]*catalog.Movie, 0, len(remote.Results))
				for _, entry := range remote.Results {
					records = append(records, catalog.FromTMDBMovie(entry))
				}
				if _, err := s.store.UpsertAll(ctx, records); err != nil {
					s.logger.Warn("persist search results", logging.Error(err))
				}
				return &ListResult{
					Movies:     records,
					Page:       remote.Page,
					TotalPages: remote.TotalPages,
					Source:     SourceTMDB,
				}, nil
			}
			s.logger.Warn("search unavailable upstream",
				logging.String("query", query), logging.Error(err))
		}

		records, total, err := s.store.Search(ctx, query, page)
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

// QuickSearch returns up to limit catalog title matches for typeahead
// suggestions. It never consults the upstream.
func (s *Service) QuickSearch(ctx context.Context, query string, limit int) (*ListResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, ErrQueryTooShort
	}

	records, err := s.store.QuickSearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return &ListResult{Movies: records, Page: 1, TotalPages: 1, Source: SourceDatabase}, nil
}
