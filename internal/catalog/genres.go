package catalog

import "sort"

// Genre pairs a TMDB genre identifier with its display name.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// genreNames is the canonical TMDB movie genre mapping, kept locally so
// genre browsing works without an upstream round trip.
var genreNames = map[int64]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// GenreName returns the display name for a genre ID, or empty when unknown.
func GenreName(id int64) string {
	return genreNames[id]
}

// AllGenres returns every known genre ordered by name.
func AllGenres() []Genre {
	genres := make([]Genre, 0, len(genreNames))
	for id, name := range genreNames {
		genres = append(genres, Genre{ID: id, Name: name})
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].Name < genres[j].Name })
	return genres
}

// NamesForIDs resolves genre IDs to names, omitting unknown IDs.
func NamesForIDs(ids []int64) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := genreNames[id]; ok {
			names = append(names, name)
		}
	}
	return names
}
