package catalog

import (
	"encoding/json"
	"time"

	"marquee/internal/tmdb"
)

// PageSize is the fixed number of movies per listing page.
const PageSize = 20

// MaxPageSize caps caller-chosen page sizes on the filter surface.
const MaxPageSize = 100

// NormalizePageSize clamps a caller-supplied page size to the accepted
// range, falling back to the default. Every layer that paginates with a
// custom size must use the same clamp so row windows and page counts agree.
func NormalizePageSize(perPage int) int {
	if perPage < 1 || perPage > MaxPageSize {
		return PageSize
	}
	return perPage
}

// Movie is a catalog movie record. ID is the local surrogate key; TMDBID is
// the upstream identifier every lookup and upsert is keyed on.
type Movie struct {
	ID               int64     `json:"id"`
	TMDBID           int64     `json:"tmdb_id"`
	Title            string    `json:"title"`
	OriginalTitle    string    `json:"original_title,omitempty"`
	Overview         string    `json:"overview"`
	PosterPath       string    `json:"poster_path,omitempty"`
	BackdropPath     string    `json:"backdrop_path,omitempty"`
	ReleaseDate      string    `json:"release_date,omitempty"`
	VoteAverage      float64   `json:"vote_average"`
	VoteCount        int64     `json:"vote_count"`
	Popularity       float64   `json:"popularity"`
	GenreIDs         []int64   `json:"genre_ids"`
	OriginalLanguage string    `json:"original_language"`
	Adult            bool      `json:"adult"`
	Video            bool      `json:"video"`
	CastJSON         string    `json:"-"`
	TrailerURL       string    `json:"trailer_url,omitempty"`
	DetailsJSON      string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GenreNames resolves the record's genre IDs to display names, omitting
// IDs without a known mapping.
func (m *Movie) GenreNames() []string {
	return NamesForIDs(m.GenreIDs)
}

// FromTMDBMovie converts an upstream list entry into a catalog record.
// Missing upstream fields receive catalog defaults.
func FromTMDBMovie(entry tmdb.Movie) *Movie {
	movie := &Movie{
		TMDBID:           entry.ID,
		Title:            entry.Title,
		OriginalTitle:    entry.OriginalTitle,
		Overview:         entry.Overview,
		PosterPath:       entry.PosterPath,
		BackdropPath:     entry.BackdropPath,
		ReleaseDate:      entry.ReleaseDate,
		VoteAverage:      entry.VoteAverage,
		VoteCount:        entry.VoteCount,
		Popularity:       entry.Popularity,
		GenreIDs:         entry.GenreIDs,
		OriginalLanguage: entry.OriginalLanguage,
		Adult:            entry.Adult,
		Video:            entry.Video,
	}
	applyDefaults(movie)
	return movie
}

// FromTMDBDetails converts an upstream detail payload into a catalog record.
func FromTMDBDetails(details *tmdb.Details) *Movie {
	movie := &Movie{
		TMDBID:           details.ID,
		Title:            details.Title,
		OriginalTitle:    details.OriginalTitle,
		Overview:         details.Overview,
		PosterPath:       details.PosterPath,
		BackdropPath:     details.BackdropPath,
		ReleaseDate:      details.ReleaseDate,
		VoteAverage:      details.VoteAverage,
		VoteCount:        details.VoteCount,
		Popularity:       details.Popularity,
		GenreIDs:         details.GenreIDList(),
		OriginalLanguage: details.OriginalLanguage,
		Adult:            details.Adult,
		Video:            details.Video,
	}
	applyDefaults(movie)
	return movie
}

func applyDefaults(movie *Movie) {
	if movie.OriginalLanguage == "" {
		movie.OriginalLanguage = "en"
	}
	if movie.GenreIDs == nil {
		movie.GenreIDs = []int64{}
	}
}

func marshalGenreIDs(ids []int64) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalGenreIDs(raw string) []int64 {
	if raw == "" {
		return []int64{}
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return []int64{}
	}
	return ids
}

// Stats summarizes catalog contents for diagnostics and the stats command.
type Stats struct {
	TotalMovies   int64            `json:"total_movies"`
	WithDetails   int64            `json:"with_details"`
	AverageVote   float64          `json:"average_vote"`
	ByLanguage    map[string]int64 `json:"by_language"`
	NewestUpdated time.Time        `json:"newest_updated"`
}

// FilterOptions narrows a catalog listing. Zero values of each field leave
// that dimension unfiltered.
type FilterOptions struct {
	YearFrom  int
	YearTo    int
	MinRating float64
	MaxRating float64
	Language  string
	GenreID   int64
	SortBy    string
	SortOrder string
	Page      int
	PerPage   int
}
