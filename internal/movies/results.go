package movies

import (
	"encoding/json"

	"marquee/internal/catalog"
	"marquee/internal/tmdb"
)

// Source tags which tier of the lookup chain produced a result.
type Source string

const (
	// SourceCache means the in-process cache answered.
	SourceCache Source = "cache"
	// SourceDatabase means the local catalog answered with a full record.
	SourceDatabase Source = "database"
	// SourceTMDB means the upstream API answered.
	SourceTMDB Source = "tmdb"
	// SourceDatabaseBasic means the catalog only held a skeletal record and
	// the upstream could not fill it in.
	SourceDatabaseBasic Source = "database_basic"
	// SourceFallback means every tier failed and a static placeholder or
	// built-in dataset was served.
	SourceFallback Source = "fallback"
	// SourceNotFound means a local-only lookup had no row to serve.
	SourceNotFound Source = "not_found"
)

// ListResult is one page of movies plus where it came from.
type ListResult struct {
	Movies     []*catalog.Movie
	Page       int
	TotalPages int
	Source     Source
}

// DetailResult is a single movie lookup outcome.
type DetailResult struct {
	Movie  *catalog.Movie
	Source Source
	// Found is false when the result is a placeholder or the row is absent.
	Found bool
}

// EnhancedMovie is a movie record with its appended collections.
type EnhancedMovie struct {
	catalog.Movie
	Cast    []tmdb.CastMember `json:"cast"`
	Similar []*catalog.Movie  `json:"similar,omitempty"`
}

// EnhancedResult is an enhanced lookup outcome.
type EnhancedResult struct {
	Movie  *EnhancedMovie
	Source Source
	Found  bool
}

// GenresResult is the genre catalog plus its origin.
type GenresResult struct {
	Genres []catalog.Genre
	Source Source
}

const maxStoredCast = 10

// enhancedFromDetails assembles the response shape from a fresh upstream
// detail payload, truncating cast to the stored maximum.
func enhancedFromDetails(details *tmdb.Details) *EnhancedMovie {
	enhanced := &EnhancedMovie{Movie: *catalog.FromTMDBDetails(details)}
	if details.Credits != nil {
		cast := details.Credits.Cast
		if len(cast) > maxStoredCast {
			cast = cast[:maxStoredCast]
		}
		enhanced.Cast = cast
	}
	if enhanced.Cast == nil {
		enhanced.Cast = []tmdb.CastMember{}
	}
	enhanced.TrailerURL = details.TrailerURL()
	if details.Similar != nil {
		for _, entry := range details.Similar.Results {
			if len(enhanced.Similar) >= maxStoredCast {
				break
			}
			enhanced.Similar = append(enhanced.Similar, catalog.FromTMDBMovie(entry))
		}
	}
	return enhanced
}

// enhancedFromRecord rebuilds the response shape from persisted catalog
// columns, tolerating missing or malformed stored JSON.
func enhancedFromRecord(movie *catalog.Movie) *EnhancedMovie {
	enhanced := &EnhancedMovie{Movie: *movie, Cast: []tmdb.CastMember{}}
	if movie.CastJSON != "" {
		var cast []tmdb.CastMember
		if err := json.Unmarshal([]byte(movie.CastJSON), &cast); err == nil {
			enhanced.Cast = cast
		}
	}
	if movie.DetailsJSON != "" {
		var details tmdb.Details
		if err := json.Unmarshal([]byte(movie.DetailsJSON), &details); err == nil && details.Similar != nil {
			for _, entry := range details.Similar.Results {
				if len(enhanced.Similar) >= maxStoredCast {
					break
				}
				enhanced.Similar = append(enhanced.Similar, catalog.FromTMDBMovie(entry))
			}
		}
	}
	return enhanced
}

// Degraded and placeholder copy reused whenever richer tiers cannot answer.
const (
	degradedOverview    = "Description not available at the moment."
	placeholderTitle    = "Movie Not Found"
	placeholderOverview = "This movie is not available in our database."
)

// degradeBasicRecord strips fields a skeletal row cannot vouch for while
// keeping whatever identity the catalog does hold.
func degradeBasicRecord(movie *catalog.Movie) *catalog.Movie {
	degraded := *movie
	degraded.Overview = degradedOverview
	degraded.VoteCount = 0
	degraded.Popularity = 0
	degraded.GenreIDs = []int64{}
	return &degraded
}

func placeholderMovie(tmdbID int64) *catalog.Movie {
	return &catalog.Movie{
		TMDBID:           tmdbID,
		Title:            placeholderTitle,
		Overview:         placeholderOverview,
		GenreIDs:         []int64{},
		OriginalLanguage: "en",
	}
}
