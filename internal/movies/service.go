package movies

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"marquee/internal/cache"
	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/tmdb"
)

const populateTimeout = 15 * time.Second

// Service answers catalog queries by walking the lookup chain: in-process
// cache, local catalog, upstream API, then static fallbacks. Every result
// carries the tier that produced it.
type Service struct {
	store    *catalog.Store
	provider tmdb.Provider
	cache    *cache.Cache
	metrics  *cache.Metrics
	logger   *slog.Logger
	backfill *backfillWorker
}

// NewService wires a service from its collaborators. The provider may be
// nil, in which case only cache and catalog tiers are consulted.
func NewService(cfg *config.Config, store *catalog.Store, provider tmdb.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "movies")

	metrics := &cache.Metrics{}
	var responseCache *cache.Cache
	if cfg == nil || cfg.Cache.Enabled {
		sweep := time.Minute
		if cfg != nil && cfg.Cache.SweepInterval > 0 {
			sweep = time.Duration(cfg.Cache.SweepInterval) * time.Second
		}
		responseCache = cache.New(cache.Options{SweepInterval: sweep, Metrics: metrics})
	}

	svc := &Service{
		store:    store,
		provider: provider,
		cache:    responseCache,
		metrics:  metrics,
		logger:   logger,
	}

	depth := 0
	if cfg != nil {
		depth = cfg.Cache.BackfillDepth
	}
	if provider != nil && depth > 0 {
		svc.backfill = newBackfillWorker(svc, depth, logger)
	}
	return svc
}

// Close stops the backfill worker and cache sweeper.
func (s *Service) Close() {
	if s.backfill != nil {
		s.backfill.Close()
	}
	if s.cache != nil {
		s.cache.Close()
	}
}

// cached wraps a producer with the response cache when it is enabled.
func (s *Service) cached(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) (any, error)) (any, bool, error) {
	if s.cache == nil {
		value, err := producer(ctx)
		return value, false, err
	}
	return s.cache.GetOrCompute(ctx, key, ttl, producer)
}

// Populate seeds the catalog from the upstream popular listing. It returns
// the number of rows written.
func (s *Service) Populate(ctx context.Context) (int, error) {
	if s.provider == nil {
		return 0, errors.New("no tmdb provider configured")
	}

	ctx, cancel := context.WithTimeout(ctx, populateTimeout)
	defer cancel()

	page, err := s.provider.ListMovies(ctx, "popular", 1)
	if err != nil {
		return 0, err
	}

	records := make([]*catalog.Movie, 0, len(page.Results))
	for _, entry := range page.Results {
		records = append(records, catalog.FromTMDBMovie(entry))
	}
	stored, err := s.store.UpsertAll(ctx, records)
	if err != nil {
		return stored, err
	}
	s.logger.Info("catalog populated", logging.Int("stored", stored))
	return stored, nil
}

// ServiceStats bundles catalog and cache state for reporting.
type ServiceStats struct {
	Catalog catalog.Stats  `json:"catalog"`
	Cache   cache.Snapshot `json:"cache"`
}

// Stats reports catalog contents and cache activity.
func (s *Service) Stats(ctx context.Context) (ServiceStats, error) {
	catalogStats, err := s.store.CatalogStats(ctx)
	if err != nil {
		return ServiceStats{}, err
	}
	return ServiceStats{
		Catalog: catalogStats,
		Cache:   s.metrics.Snapshot(),
	}, nil
}

// ClearCache drops every cached response and reports how many were removed.
func (s *Service) ClearCache() int {
	if s.cache == nil {
		return 0
	}
	removed := s.cache.Flush()
	s.logger.Info("response cache cleared", logging.Int("removed", removed))
	return removed
}

// totalPages converts a row count into a one-based page count.
func totalPages(total int) int {
	return totalPagesSized(total, catalog.PageSize)
}

func totalPagesSized(total, perPage int) int {
	if total <= 0 {
		return 0
	}
	if perPage < 1 {
		perPage = catalog.PageSize
	}
	pages := total / perPage
	if total%perPage != 0 {
		pages++
	}
	return pages
}
