package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelbase/models"
)

const dateLayout = "2006-01-02"

const movieColumns = `id, tmdb_id, title, original_title, overview, release_date,
	vote_average, vote_count, popularity, poster_path, backdrop_path, adult,
	original_language, spoken_languages, production_countries, budget, revenue,
	runtime, status, tagline, homepage, imdb_id, average_rating, ratings_count,
	is_active, created_at, updated_at, last_synced_at`

// MovieRepository provides storage access for movies, their genre
// associations and the denormalized rating aggregate.
type MovieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// Create inserts a new movie. The ID and timestamps are assigned here.
// Returns ErrConflict when a movie with the same TMDB ID already exists.
func (r *MovieRepository) Create(ctx context.Context, m *models.Movie) error {
	m.ID = uuid.NewString()
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = models.StatusReleased
	}
	m.IsActive = true

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO movies (id, tmdb_id, title, original_title, overview, release_date,
			vote_average, vote_count, popularity, poster_path, backdrop_path, adult,
			original_language, spoken_languages, production_countries, budget, revenue,
			runtime, status, tagline, homepage, imdb_id, average_rating, ratings_count,
			is_active, created_at, updated_at, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.TmdbID, m.Title, nullString(m.OriginalTitle), m.Overview, nullDate(m.ReleaseDate),
		m.VoteAverage, m.VoteCount, m.Popularity, nullString(m.PosterPath), nullString(m.BackdropPath), m.Adult,
		nullString(m.OriginalLanguage), nullString(joinList(m.SpokenLanguages)), nullString(joinList(m.ProductionCountries)),
		nullInt64(m.Budget), nullInt64(m.Revenue), nullInt(m.Runtime),
		string(m.Status), nullString(m.Tagline), nullString(m.Homepage), nullString(m.ImdbID),
		m.AverageRating, m.RatingsCount, m.IsActive, m.CreatedAt, m.UpdatedAt, nullTime(m.LastSyncedAt),
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

// GetByID returns a non-deleted movie with its genres loaded.
func (r *MovieRepository) GetByID(ctx context.Context, id string) (models.Movie, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE id = ? AND deleted_at IS NULL`, id)
	m, err := scanMovie(row)
	if err != nil {
		return models.Movie{}, err
	}
	if err := r.loadGenres(ctx, []*models.Movie{&m}); err != nil {
		return models.Movie{}, err
	}
	return m, nil
}

// GetByTmdbID returns a non-deleted movie by its TMDB identifier.
func (r *MovieRepository) GetByTmdbID(ctx context.Context, tmdbID int64) (models.Movie, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE tmdb_id = ? AND deleted_at IS NULL`, tmdbID)
	m, err := scanMovie(row)
	if err != nil {
		return models.Movie{}, err
	}
	if err := r.loadGenres(ctx, []*models.Movie{&m}); err != nil {
		return models.Movie{}, err
	}
	return m, nil
}

// Update overwrites every mutable field of the movie. The TMDB ID is
// immutable once created.
func (r *MovieRepository) Update(ctx context.Context, m *models.Movie) error {
	m.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE movies SET title = ?, original_title = ?, overview = ?, release_date = ?,
			vote_average = ?, vote_count = ?, popularity = ?, poster_path = ?, backdrop_path = ?,
			adult = ?, original_language = ?, spoken_languages = ?, production_countries = ?,
			budget = ?, revenue = ?, runtime = ?, status = ?, tagline = ?, homepage = ?,
			imdb_id = ?, is_active = ?, updated_at = ?, last_synced_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		m.Title, nullString(m.OriginalTitle), m.Overview, nullDate(m.ReleaseDate),
		m.VoteAverage, m.VoteCount, m.Popularity, nullString(m.PosterPath), nullString(m.BackdropPath),
		m.Adult, nullString(m.OriginalLanguage), nullString(joinList(m.SpokenLanguages)), nullString(joinList(m.ProductionCountries)),
		nullInt64(m.Budget), nullInt64(m.Revenue), nullInt(m.Runtime),
		string(m.Status), nullString(m.Tagline), nullString(m.Homepage),
		nullString(m.ImdbID), m.IsActive, m.UpdatedAt, nullTime(m.LastSyncedAt),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks the movie deleted without removing its rows.
func (r *MovieRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE movies SET deleted_at = ?, is_active = 0, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("soft delete movie: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Search runs the filtered, paginated, sorted movie query and returns the
// matching page plus the total match count.
func (r *MovieRepository) Search(ctx context.Context, q models.MovieSearch) ([]models.Movie, int64, error) {
	where := []string{"m.deleted_at IS NULL", "m.is_active = 1"}
	args := []any{}

	if !q.IncludeAdult {
		where = append(where, "m.adult = 0")
	}

	if term := strings.TrimSpace(q.Search); term != "" {
		where = append(where, "(LOWER(m.title) LIKE ? OR LOWER(m.original_title) LIKE ?)")
		pattern := "%" + strings.ToLower(term) + "%"
		args = append(args, pattern, pattern)
	}

	if len(q.GenreTmdbIDs) > 0 {
		placeholders := strings.Repeat("?,", len(q.GenreTmdbIDs))
		placeholders = placeholders[:len(placeholders)-1]
		where = append(where, `EXISTS (
			SELECT 1 FROM movie_genres mg
			JOIN genres g ON g.id = mg.genre_id
			WHERE mg.movie_id = m.id AND g.tmdb_id IN (`+placeholders+`))`)
		for _, id := range q.GenreTmdbIDs {
			args = append(args, id)
		}
	}

	if q.Year > 0 {
		where = append(where, "strftime('%Y', m.release_date) = ?")
		args = append(args, strconv.Itoa(q.Year))
	}

	if q.MinRating != nil {
		where = append(where, "m.average_rating >= ?")
		args = append(args, *q.MinRating)
	}
	if q.MaxRating != nil {
		where = append(where, "m.average_rating <= ?")
		args = append(args, *q.MaxRating)
	}

	if lang := strings.TrimSpace(q.Language); lang != "" {
		where = append(where, "m.original_language = ?")
		args = append(args, lang)
	}

	whereSQL := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM movies m WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := `SELECT ` + prefixColumns("m") + ` FROM movies m WHERE ` + whereSQL +
		` ORDER BY ` + orderClause(q.SortBy) + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search movies: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, err
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	refs := make([]*models.Movie, len(movies))
	for i := range movies {
		refs[i] = &movies[i]
	}
	if err := r.loadGenres(ctx, refs); err != nil {
		return nil, 0, err
	}

	return movies, total, nil
}

// orderClause maps a sort key to exactly one ORDER BY expression. An
// unrecognized or empty key falls back to descending popularity.
func orderClause(key models.SortKey) string {
	switch key {
	case models.SortTitleAsc:
		return "m.title ASC"
	case models.SortTitleDesc:
		return "m.title DESC"
	case models.SortReleaseAsc:
		return "m.release_date ASC"
	case models.SortReleaseDesc:
		return "m.release_date DESC"
	case models.SortRatingAsc:
		return "m.average_rating ASC"
	case models.SortRatingDesc:
		return "m.average_rating DESC"
	case models.SortPopularityAsc:
		return "m.popularity ASC"
	case models.SortPopularityDesc:
		return "m.popularity DESC"
	case models.SortCreatedAsc:
		return "m.created_at ASC"
	case models.SortCreatedDesc:
		return "m.created_at DESC"
	default:
		return "m.popularity DESC"
	}
}

// ReplaceGenres deletes the movie's join rows and recreates them from the
// given TMDB genre IDs inside a single transaction. Unknown TMDB IDs are
// silently dropped.
func (r *MovieRepository) ReplaceGenres(ctx context.Context, movieID string, genreTmdbIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin genre update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = ?`, movieID); err != nil {
		return fmt.Errorf("clear movie genres: %w", err)
	}

	if len(genreTmdbIDs) > 0 {
		placeholders := strings.Repeat("?,", len(genreTmdbIDs))
		placeholders = placeholders[:len(placeholders)-1]
		idArgs := make([]any, len(genreTmdbIDs))
		for i, id := range genreTmdbIDs {
			idArgs[i] = id
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM genres WHERE tmdb_id IN (`+placeholders+`)`, idArgs...)
		if err != nil {
			return fmt.Errorf("resolve genres: %w", err)
		}
		var genreIDs []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			genreIDs = append(genreIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, genreID := range genreIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO movie_genres (id, movie_id, genre_id, created_at) VALUES (?, ?, ?, ?)`,
				uuid.NewString(), movieID, genreID, now); err != nil {
				return fmt.Errorf("insert movie genre: %w", err)
			}
		}
	}

	return tx.Commit()
}

// RecomputeRatingStats overwrites the movie's denormalized aggregate from the
// ratings table. A movie with no ratings gets a zero average and count.
func (r *MovieRepository) RecomputeRatingStats(ctx context.Context, movieID string) error {
	return recomputeRatingStats(ctx, r.db, movieID)
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func recomputeRatingStats(ctx context.Context, q execQuerier, movieID string) error {
	var avg sql.NullFloat64
	var count int64
	err := q.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(id) FROM ratings WHERE movie_id = ?`, movieID).Scan(&avg, &count)
	if err != nil {
		return fmt.Errorf("aggregate ratings: %w", err)
	}

	// Stored with the same one-decimal precision as the rating values.
	average := math.Round(avg.Float64*10) / 10

	_, err = q.ExecContext(ctx,
		`UPDATE movies SET average_rating = ?, ratings_count = ?, updated_at = ? WHERE id = ?`,
		average, count, time.Now().UTC(), movieID)
	if err != nil {
		return fmt.Errorf("update rating stats: %w", err)
	}
	return nil
}

// loadGenres attaches genre records to each movie in a single query.
func (r *MovieRepository) loadGenres(ctx context.Context, movies []*models.Movie) error {
	if len(movies) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(movies))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(movies))
	byID := make(map[string]*models.Movie, len(movies))
	for i, m := range movies {
		args[i] = m.ID
		byID[m.ID] = m
		m.Genres = []models.Genre{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT mg.movie_id, g.id, g.tmdb_id, g.name, g.description, g.is_active, g.created_at, g.updated_at
		FROM movie_genres mg
		JOIN genres g ON g.id = mg.genre_id
		WHERE mg.movie_id IN (`+placeholders+`)
		ORDER BY g.name`, args...)
	if err != nil {
		return fmt.Errorf("load genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var movieID string
		var g models.Genre
		var description sql.NullString
		if err := rows.Scan(&movieID, &g.ID, &g.TmdbID, &g.Name, &description, &g.IsActive, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return err
		}
		g.Description = description.String
		if m, ok := byID[movieID]; ok {
			m.Genres = append(m.Genres, g)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (models.Movie, error) {
	var m models.Movie
	var originalTitle, releaseDate, posterPath, backdropPath sql.NullString
	var originalLanguage, spokenLanguages, productionCountries sql.NullString
	var tagline, homepage, imdbID sql.NullString
	var budget, revenue sql.NullInt64
	var runtime sql.NullInt64
	var status string
	var lastSyncedAt sql.NullTime

	err := row.Scan(
		&m.ID, &m.TmdbID, &m.Title, &originalTitle, &m.Overview, &releaseDate,
		&m.VoteAverage, &m.VoteCount, &m.Popularity, &posterPath, &backdropPath, &m.Adult,
		&originalLanguage, &spokenLanguages, &productionCountries, &budget, &revenue,
		&runtime, &status, &tagline, &homepage, &imdbID, &m.AverageRating, &m.RatingsCount,
		&m.IsActive, &m.CreatedAt, &m.UpdatedAt, &lastSyncedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Movie{}, ErrNotFound
	}
	if err != nil {
		return models.Movie{}, fmt.Errorf("scan movie: %w", err)
	}

	m.OriginalTitle = originalTitle.String
	m.PosterPath = posterPath.String
	m.BackdropPath = backdropPath.String
	m.OriginalLanguage = originalLanguage.String
	m.SpokenLanguages = splitList(spokenLanguages.String)
	m.ProductionCountries = splitList(productionCountries.String)
	m.Tagline = tagline.String
	m.Homepage = homepage.String
	m.ImdbID = imdbID.String
	m.Status = models.MovieStatus(status)
	if budget.Valid {
		m.Budget = budget.Int64
	}
	if revenue.Valid {
		m.Revenue = revenue.Int64
	}
	if runtime.Valid {
		m.Runtime = int(runtime.Int64)
	}
	if releaseDate.Valid && releaseDate.String != "" {
		if t, err := time.Parse(dateLayout, releaseDate.String); err == nil {
			m.ReleaseDate = &t
		}
	}
	if lastSyncedAt.Valid {
		t := lastSyncedAt.Time
		m.LastSyncedAt = &t
	}

	return m, nil
}

func prefixColumns(alias string) string {
	cols := strings.Split(movieColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func joinList(values []string) string {
	return strings.Join(values, ",")
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: strings.TrimSpace(s) != ""}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}
