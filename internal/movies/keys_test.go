package movies

import (
	"testing"
	"time"
)

func TestSearchKeyHashesQueryVerbatim(t *testing.T) {
	if searchKey("matrix", 1) != searchKey("matrix", 1) {
		t.Fatal("identical queries must share a key")
	}
	if searchKey("Matrix", 1) == searchKey("matrix", 1) {
		t.Fatal("case-differing queries must produce distinct keys")
	}
	if searchKey(" matrix", 1) == searchKey("matrix", 1) {
		t.Fatal("whitespace-differing queries must produce distinct keys")
	}
	if searchKey("matrix", 1) == searchKey("matrix", 2) {
		t.Fatal("pages must not share a key")
	}
}

func TestGenreListingCacheLifetime(t *testing.T) {
	if genreMoviesTTL != 30*time.Minute {
		t.Fatalf("genre listing TTL = %v, want 30m", genreMoviesTTL)
	}
}
