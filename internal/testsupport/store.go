package testsupport

import (
	"context"
	"testing"

	"marquee/internal/catalog"
	"marquee/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedMovie stores a movie for tests using the provided store.
func SeedMovie(t testing.TB, store *catalog.Store, movie *catalog.Movie) *catalog.Movie {
	t.Helper()

	stored, err := store.Upsert(context.Background(), movie)
	if err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
	// Upsert never touches the enhanced columns, so persist any the seed
	// supplies separately.
	if movie.CastJSON != "" || movie.TrailerURL != "" || movie.DetailsJSON != "" {
		if err := store.SaveEnhancedDetails(context.Background(), movie.TMDBID, movie.CastJSON, movie.TrailerURL, movie.DetailsJSON); err != nil {
			t.Fatalf("store.SaveEnhancedDetails: %v", err)
		}
		stored, err = store.GetByTMDBID(context.Background(), movie.TMDBID)
		if err != nil {
			t.Fatalf("store.GetByTMDBID: %v", err)
		}
	}
	return stored
}
