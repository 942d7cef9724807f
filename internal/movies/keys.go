package movies

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache lifetimes per response family. Browse listings move often; the
// genre catalog is effectively static.
const (
	listTTL        = 15 * time.Minute
	detailsTTL     = 30 * time.Minute
	enhancedTTL    = time.Hour
	searchTTL      = 10 * time.Minute
	trendingTTL    = 30 * time.Minute
	genreMoviesTTL = 30 * time.Minute
	genresTTL      = 12 * time.Hour
)

func listKey(category string, page int) string {
	return fmt.Sprintf("movies_%s_%d", category, page)
}

func detailsKey(tmdbID int64) string {
	return fmt.Sprintf("movie_details_%d", tmdbID)
}

func enhancedKey(tmdbID int64) string {
	return fmt.Sprintf("movie_enhanced_%d", tmdbID)
}

// searchKey hashes the query verbatim so arbitrary user input cannot
// produce unbounded key text. Callers normalize the query before lookup;
// the key derivation itself never rewrites it.
func searchKey(query string, page int) string {
	sum := md5.Sum([]byte(query))
	return fmt.Sprintf("search_%s_%d", hex.EncodeToString(sum[:]), page)
}

func trendingKey(limit int) string {
	return fmt.Sprintf("trending_movies_%d", limit)
}

func genreListKey() string {
	return "movie_genres"
}

func genreMoviesKey(genreID int64, page int) string {
	return fmt.Sprintf("movies_genre_%d_%d", genreID, page)
}
