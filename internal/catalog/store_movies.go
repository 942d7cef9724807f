package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const movieColumns = "id, tmdb_id, title, original_title, overview, poster_path, backdrop_path, release_date, vote_average, vote_count, popularity, genre_ids, original_language, adult, video, cast_json, trailer_url, details_json, created_at, updated_at"

// Upsert inserts a movie keyed on its TMDB ID, or refreshes the core fields
// of an existing row. Enhanced columns (cast, trailer, details) survive the
// refresh so listing updates never erase richer data.
func (s *Store) Upsert(ctx context.Context, movie *Movie) (*Movie, error) {
	if movie == nil {
		return nil, errors.New("movie is nil")
	}
	if movie.TMDBID <= 0 {
		return nil, errors.New("movie tmdb id must be positive")
	}
	applyDefaults(movie)

	genreIDs, err := marshalGenreIDs(movie.GenreIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal genre ids: %w", err)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO movies (
            tmdb_id, title, original_title, overview, poster_path, backdrop_path,
            release_date, vote_average, vote_count, popularity, genre_ids,
            original_language, adult, video, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(tmdb_id) DO UPDATE SET
            title = excluded.title,
            original_title = excluded.original_title,
            overview = excluded.overview,
            poster_path = excluded.poster_path,
            backdrop_path = excluded.backdrop_path,
            release_date = excluded.release_date,
            vote_average = excluded.vote_average,
            vote_count = excluded.vote_count,
            popularity = excluded.popularity,
            genre_ids = excluded.genre_ids,
            original_language = excluded.original_language,
            adult = excluded.adult,
            video = excluded.video,
            updated_at = excluded.updated_at`,
		movie.TMDBID,
		movie.Title,
		nullableString(movie.OriginalTitle),
		movie.Overview,
		nullableString(movie.PosterPath),
		nullableString(movie.BackdropPath),
		nullableString(movie.ReleaseDate),
		movie.VoteAverage,
		movie.VoteCount,
		movie.Popularity,
		genreIDs,
		movie.OriginalLanguage,
		boolToInt(movie.Adult),
		boolToInt(movie.Video),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert movie: %w", err)
	}

	return s.GetByTMDBID(ctx, movie.TMDBID)
}

// UpsertAll stores a batch of movies in a single transaction and reports how
// many rows were written.
func (s *Store) UpsertAll(ctx context.Context, movies []*Movie) (int, error) {
	if len(movies) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO movies (
            tmdb_id, title, original_title, overview, poster_path, backdrop_path,
            release_date, vote_average, vote_count, popularity, genre_ids,
            original_language, adult, video, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(tmdb_id) DO UPDATE SET
            title = excluded.title,
            original_title = excluded.original_title,
            overview = excluded.overview,
            poster_path = excluded.poster_path,
            backdrop_path = excluded.backdrop_path,
            release_date = excluded.release_date,
            vote_average = excluded.vote_average,
            vote_count = excluded.vote_count,
            popularity = excluded.popularity,
            genre_ids = excluded.genre_ids,
            original_language = excluded.original_language,
            adult = excluded.adult,
            video = excluded.video,
            updated_at = excluded.updated_at`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	stored := 0
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	for _, movie := range movies {
		if movie == nil || movie.TMDBID <= 0 {
			continue
		}
		applyDefaults(movie)
		genreIDs, err := marshalGenreIDs(movie.GenreIDs)
		if err != nil {
			return stored, fmt.Errorf("marshal genre ids: %w", err)
		}
		if _, err := stmt.ExecContext(
			ctx,
			movie.TMDBID,
			movie.Title,
			nullableString(movie.OriginalTitle),
			movie.Overview,
			nullableString(movie.PosterPath),
			nullableString(movie.BackdropPath),
			nullableString(movie.ReleaseDate),
			movie.VoteAverage,
			movie.VoteCount,
			movie.Popularity,
			genreIDs,
			movie.OriginalLanguage,
			boolToInt(movie.Adult),
			boolToInt(movie.Video),
			timestamp,
			timestamp,
		); err != nil {
			return stored, fmt.Errorf("upsert movie %d: %w", movie.TMDBID, err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return stored, fmt.Errorf("commit upserts: %w", err)
	}
	return stored, nil
}

// SaveEnhancedDetails attaches the cast list, trailer URL, and raw detail
// payload to an existing movie row.
func (s *Store) SaveEnhancedDetails(ctx context.Context, tmdbID int64, castJSON, trailerURL, detailsJSON string) error {
	if tmdbID <= 0 {
		return errors.New("tmdb id must be positive")
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE movies SET cast_json = ?, trailer_url = ?, details_json = ?, updated_at = ? WHERE tmdb_id = ?`,
		nullableString(castJSON),
		nullableString(trailerURL),
		nullableString(detailsJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
		tmdbID,
	)
	if err != nil {
		return fmt.Errorf("save enhanced details: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("movie %d not in catalog", tmdbID)
	}
	return nil
}

// GetByTMDBID fetches a movie by its upstream identifier. A missing row
// yields (nil, nil).
func (s *Store) GetByTMDBID(ctx context.Context, tmdbID int64) (*Movie, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE tmdb_id = ?`, tmdbID)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return movie, nil
}

// GetByLocalID fetches a movie by its surrogate catalog key.
func (s *Store) GetByLocalID(ctx context.Context, id int64) (*Movie, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movie by local id: %w", err)
	}
	return movie, nil
}

// categoryClause maps a browse category onto its filter and ordering.
// Unknown categories fall back to the popularity ordering.
func categoryClause(category string) (where string, order string) {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "top_rated":
		return "WHERE vote_count > 10", "ORDER BY vote_average DESC"
	case "now_playing":
		return "WHERE release_date >= date('now', '-3 months') AND release_date <= date('now')", "ORDER BY release_date DESC"
	case "upcoming":
		return "WHERE release_date > date('now')", "ORDER BY release_date ASC"
	default:
		return "", "ORDER BY popularity DESC"
	}
}

// ListByCategory returns one page of movies for a browse category along with
// the total row count for that category.
func (s *Store) ListByCategory(ctx context.Context, category string, page int) ([]*Movie, int, error) {
	where, order := categoryClause(category)
	return s.listPage(ctx, where, order, nil, page)
}

// Search returns one page of movies whose title or overview contains the
// query, most popular first.
func (s *Store) Search(ctx context.Context, query string, page int) ([]*Movie, int, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	return s.listPage(
		ctx,
		"WHERE title LIKE ? OR overview LIKE ?",
		"ORDER BY popularity DESC",
		[]any{pattern, pattern},
		page,
	)
}

// QuickSearch returns up to limit title matches for typeahead suggestions.
func (s *Store) QuickSearch(ctx context.Context, query string, limit int) ([]*Movie, error) {
	if limit <= 0 {
		limit = 5
	}
	pattern := strings.TrimSpace(query) + "%"
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+movieColumns+` FROM movies WHERE title LIKE ? ORDER BY popularity DESC LIMIT ?`,
		pattern,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("quick search: %w", err)
	}
	defer rows.Close()
	return collectMovies(rows)
}

// ByGenre returns one page of movies tagged with the genre, most popular
// first.
func (s *Store) ByGenre(ctx context.Context, genreID int64, page int) ([]*Movie, int, error) {
	return s.listPage(
		ctx,
		"WHERE EXISTS (SELECT 1 FROM json_each(movies.genre_ids) WHERE json_each.value = ?)",
		"ORDER BY popularity DESC",
		[]any{genreID},
		page,
	)
}

// TopByPopularity returns the limit most popular movies in the catalog.
func (s *Store) TopByPopularity(ctx context.Context, limit int) ([]*Movie, error) {
	if limit <= 0 {
		limit = PageSize
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+movieColumns+` FROM movies ORDER BY popularity DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top by popularity: %w", err)
	}
	defer rows.Close()
	return collectMovies(rows)
}

// filterSortColumns whitelists user-facing sort fields.
var filterSortColumns = map[string]string{
	"popularity":   "popularity",
	"vote_average": "vote_average",
	"release_date": "release_date",
	"title":        "title",
}

// Filter returns one page of movies matching the filter dimensions.
func (s *Store) Filter(ctx context.Context, opts FilterOptions) ([]*Movie, int, error) {
	var clauses []string
	var args []any

	if opts.YearFrom > 0 {
		clauses = append(clauses, "substr(release_date, 1, 4) >= ?")
		args = append(args, fmt.Sprintf("%04d", opts.YearFrom))
	}
	if opts.YearTo > 0 {
		clauses = append(clauses, "substr(release_date, 1, 4) <= ?")
		args = append(args, fmt.Sprintf("%04d", opts.YearTo))
	}
	if opts.MinRating > 0 {
		clauses = append(clauses, "vote_average >= ?")
		args = append(args, opts.MinRating)
	}
	if opts.MaxRating > 0 {
		clauses = append(clauses, "vote_average <= ?")
		args = append(args, opts.MaxRating)
	}
	if lang := strings.TrimSpace(opts.Language); lang != "" {
		clauses = append(clauses, "original_language = ?")
		args = append(args, strings.ToLower(lang))
	}
	if opts.GenreID > 0 {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM json_each(movies.genre_ids) WHERE json_each.value = ?)")
		args = append(args, opts.GenreID)
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	column, ok := filterSortColumns[strings.ToLower(strings.TrimSpace(opts.SortBy))]
	if !ok {
		column = "popularity"
	}
	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(opts.SortOrder), "asc") {
		direction = "ASC"
	}
	order := "ORDER BY " + column + " " + direction

	return s.listPageSized(ctx, where, order, args, opts.Page, opts.PerPage)
}

// Count returns the total number of catalog rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM movies`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

// CatalogStats aggregates catalog contents for diagnostics.
func (s *Store) CatalogStats(ctx context.Context) (Stats, error) {
	stats := Stats{ByLanguage: make(map[string]int64)}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1),
                COUNT(details_json),
                COALESCE(AVG(vote_average), 0),
                COALESCE(MAX(updated_at), '')
         FROM movies`,
	)
	var newestRaw string
	if err := row.Scan(&stats.TotalMovies, &stats.WithDetails, &stats.AverageVote, &newestRaw); err != nil {
		return Stats{}, fmt.Errorf("catalog stats: %w", err)
	}
	if newestRaw != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, newestRaw); err == nil {
			stats.NewestUpdated = parsed
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT original_language, COUNT(1) FROM movies GROUP BY original_language`)
	if err != nil {
		return Stats{}, fmt.Errorf("language stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var language string
		var count int64
		if err := rows.Scan(&language, &count); err != nil {
			return Stats{}, err
		}
		stats.ByLanguage[language] = count
	}
	return stats, rows.Err()
}

func (s *Store) listPage(ctx context.Context, where, order string, args []any, page int) ([]*Movie, int, error) {
	return s.listPageSized(ctx, where, order, args, page, PageSize)
}

func (s *Store) listPageSized(ctx context.Context, where, order string, args []any, page, perPage int) ([]*Movie, int, error) {
	if page < 1 {
		page = 1
	}
	perPage = NormalizePageSize(perPage)

	countQuery := `SELECT COUNT(1) FROM movies`
	if where != "" {
		countQuery += " " + where
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count page: %w", err)
	}

	query := `SELECT ` + movieColumns + ` FROM movies`
	if where != "" {
		query += " " + where
	}
	query += " " + order + " LIMIT ? OFFSET ?"
	pageArgs := append(append([]any{}, args...), perPage, (page-1)*perPage)

	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list page: %w", err)
	}
	defer rows.Close()

	movies, err := collectMovies(rows)
	if err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

func collectMovies(rows *sql.Rows) ([]*Movie, error) {
	var movies []*Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	return movies, rows.Err()
}

func scanMovie(scanner interface{ Scan(dest ...any) error }) (*Movie, error) {
	var (
		id            int64
		tmdbID        int64
		title         string
		originalTitle sql.NullString
		overview      sql.NullString
		posterPath    sql.NullString
		backdropPath  sql.NullString
		releaseDate   sql.NullString
		voteAverage   sql.NullFloat64
		voteCount     sql.NullInt64
		popularity    sql.NullFloat64
		genreIDs      sql.NullString
		language      sql.NullString
		adult         sql.NullInt64
		video         sql.NullInt64
		castJSON      sql.NullString
		trailerURL    sql.NullString
		detailsJSON   sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&tmdbID,
		&title,
		&originalTitle,
		&overview,
		&posterPath,
		&backdropPath,
		&releaseDate,
		&voteAverage,
		&voteCount,
		&popularity,
		&genreIDs,
		&language,
		&adult,
		&video,
		&castJSON,
		&trailerURL,
		&detailsJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	movie := &Movie{
		ID:               id,
		TMDBID:           tmdbID,
		Title:            title,
		OriginalTitle:    originalTitle.String,
		Overview:         overview.String,
		PosterPath:       posterPath.String,
		BackdropPath:     backdropPath.String,
		ReleaseDate:      releaseDate.String,
		VoteAverage:      voteAverage.Float64,
		VoteCount:        voteCount.Int64,
		Popularity:       popularity.Float64,
		GenreIDs:         unmarshalGenreIDs(genreIDs.String),
		OriginalLanguage: language.String,
		Adult:            adult.Int64 != 0,
		Video:            video.Int64 != 0,
		CastJSON:         castJSON.String,
		TrailerURL:       trailerURL.String,
		DetailsJSON:      detailsJSON.String,
	}

	if created, err := time.Parse(time.RFC3339Nano, createdRaw.String); err == nil {
		movie.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw.String); err == nil {
		movie.UpdatedAt = updated
	}
	return movie, nil
}
