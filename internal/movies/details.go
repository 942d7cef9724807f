package movies

import (
	"context"
	"encoding/json"

	"marquee/internal/catalog"
	"marquee/internal/logging"
	"marquee/internal/tmdb"
)

// GetDetails resolves a movie by TMDB ID through the full lookup chain:
// cache, catalog, upstream, degraded catalog record, then a placeholder.
// Degraded and placeholder outcomes are never cached so a recovered
// upstream can repair them on the next request.
func (s *Service) GetDetails(ctx context.Context, tmdbID int64) (*DetailResult, error) {
	key := detailsKey(tmdbID)
	if s.cache != nil {
		if value, ok := s.cache.Get(key); ok {
			cached := value.(*DetailResult)
			return &DetailResult{Movie: cached.Movie, Source: SourceCache, Found: cached.Found}, nil
		}
	}

	row, err := s.store.GetByTMDBID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if row != nil && row.Overview != "" {
		result := &DetailResult{Movie: row, Source: SourceDatabase, Found: true}
		s.cacheDetail(key, result)
		return result, nil
	}

	if s.provider != nil {
		details, remoteErr := s.provider.GetMovieDetails(ctx, tmdbID)
		if remoteErr == nil {
			record := catalog.FromTMDBDetails(details)
			s.persistDetail(ctx, record)
			result := &DetailResult{Movie: record, Source: SourceTMDB, Found: true}
			s.cacheDetail(key, result)
			return result, nil
		}
		s.logger.Warn("movie details unavailable upstream",
			logging.Int64(logging.FieldTMDBID, tmdbID), logging.Error(remoteErr))
	}

	if row != nil {
		return &DetailResult{Movie: degradeBasicRecord(row), Source: SourceDatabaseBasic, Found: true}, nil
	}
	return &DetailResult{Movie: placeholderMovie(tmdbID), Source: SourceFallback, Found: false}, nil
}

// GetLocalDetails resolves a movie by its surrogate catalog key without
// touching the upstream.
func (s *Service) GetLocalDetails(ctx context.Context, localID int64) (*DetailResult, error) {
	row, err := s.store.GetByLocalID(ctx, localID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return &DetailResult{Movie: placeholderMovie(0), Source: SourceNotFound, Found: false}, nil
	}
	return &DetailResult{Movie: row, Source: SourceDatabase, Found: true}, nil
}

func (s *Service) cacheDetail(key string, result *DetailResult) {
	if s.cache != nil {
		s.cache.Set(key, result, detailsTTL)
	}
}

// persistDetail writes a freshly fetched record back to the catalog without
// holding up the response: the backfill worker takes a copy of the record.
// When backfill is disabled the write happens inline, still best-effort.
func (s *Service) persistDetail(ctx context.Context, record *catalog.Movie) {
	if s.backfill != nil {
		queued := *record
		s.backfill.enqueue(backfillJob{kind: backfillDetail, tmdbID: record.TMDBID, record: &queued})
		return
	}
	if _, err := s.store.Upsert(ctx, record); err != nil {
		s.logger.Warn("persist movie details",
			logging.Int64(logging.FieldTMDBID, record.TMDBID), logging.Error(err))
	}
}

// GetEnhanced resolves a movie with cast, trailer, and similar titles.
// Fresh upstream payloads are persisted so later outages can still serve
// the richer shape from the catalog.
func (s *Service) GetEnhanced(ctx context.Context, tmdbID int64) (*EnhancedResult, error) {
	key := enhancedKey(tmdbID)
	if s.cache != nil {
		if value, ok := s.cache.Get(key); ok {
			cached := value.(*EnhancedResult)
			return &EnhancedResult{Movie: cached.Movie, Source: SourceCache, Found: cached.Found}, nil
		}
	}

	if s.provider != nil {
		details, remoteErr := s.provider.GetEnhancedDetails(ctx, tmdbID)
		if remoteErr == nil {
			enhanced := enhancedFromDetails(details)
			if err := s.persistEnhanced(ctx, details, enhanced); err != nil {
				s.logger.Warn("persist enhanced details",
					logging.Int64(logging.FieldTMDBID, tmdbID), logging.Error(err))
			}
			result := &EnhancedResult{Movie: enhanced, Source: SourceTMDB, Found: true}
			if s.cache != nil {
				s.cache.Set(key, result, enhancedTTL)
			}
			return result, nil
		}
		s.logger.Warn("enhanced details unavailable upstream",
			logging.Int64(logging.FieldTMDBID, tmdbID), logging.Error(remoteErr))
	}

	row, err := s.store.GetByTMDBID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if row != nil {
		source := SourceDatabase
		movie := row
		if row.Overview == "" && row.DetailsJSON == "" {
			source = SourceDatabaseBasic
			movie = degradeBasicRecord(row)
		}
		return &EnhancedResult{Movie: enhancedFromRecord(movie), Source: source, Found: true}, nil
	}

	placeholder := &EnhancedMovie{Movie: *placeholderMovie(tmdbID), Cast: []tmdb.CastMember{}}
	return &EnhancedResult{Movie: placeholder, Source: SourceFallback, Found: false}, nil
}

// persistEnhanced upserts the core record then attaches the enhanced
// columns: truncated cast, trailer URL, and the raw detail payload.
func (s *Service) persistEnhanced(ctx context.Context, details *tmdb.Details, enhanced *EnhancedMovie) error {
	record := catalog.FromTMDBDetails(details)
	if _, err := s.store.Upsert(ctx, record); err != nil {
		return err
	}

	castJSON, err := json.Marshal(enhanced.Cast)
	if err != nil {
		return err
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return s.store.SaveEnhancedDetails(ctx, details.ID, string(castJSON), enhanced.TrailerURL, string(detailsJSON))
}
