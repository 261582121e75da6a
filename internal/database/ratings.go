package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"reelbase/models"
)

// RatingRepository provides storage access for ratings. Every mutation
// recomputes the movie's denormalized aggregate inside the same
// transaction so readers never observe a stale average.
type RatingRepository struct {
	db *sql.DB
}

func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create inserts a rating and refreshes the movie aggregate. Returns
// ErrConflict when the user already rated the movie.
func (r *RatingRepository) Create(ctx context.Context, rt *models.Rating) error {
	rt.ID = uuid.NewString()
	now := time.Now().UTC()
	rt.CreatedAt = now
	rt.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rating create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ratings (id, user_id, movie_id, rating, review, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.UserID, rt.MovieID, rt.Rating, nullString(rt.Review), rt.CreatedAt, rt.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}

	if err := recomputeRatingStats(ctx, tx, rt.MovieID); err != nil {
		return err
	}
	return tx.Commit()
}

// Update changes the rating value and review, then refreshes the movie
// aggregate.
func (r *RatingRepository) Update(ctx context.Context, rt *models.Rating) error {
	rt.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rating update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE ratings SET rating = ?, review = ?, updated_at = ? WHERE id = ?`,
		rt.Rating, nullString(rt.Review), rt.UpdatedAt, rt.ID)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := recomputeRatingStats(ctx, tx, rt.MovieID); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the rating and refreshes the movie aggregate.
func (r *RatingRepository) Delete(ctx context.Context, id string) error {
	rt, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rating delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ratings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}

	if err := recomputeRatingStats(ctx, tx, rt.MovieID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID returns a single rating.
func (r *RatingRepository) GetByID(ctx context.Context, id string) (models.Rating, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, movie_id, rating, review, created_at, updated_at
		FROM ratings WHERE id = ?`, id)
	return scanRating(row)
}

// GetByUserAndMovie returns the single rating a user gave a movie.
func (r *RatingRepository) GetByUserAndMovie(ctx context.Context, userID, movieID string) (models.Rating, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, movie_id, rating, review, created_at, updated_at
		FROM ratings WHERE user_id = ? AND movie_id = ?`, userID, movieID)
	return scanRating(row)
}

// ListAll returns a page over every rating, newest first, plus the total
// count.
func (r *RatingRepository) ListAll(ctx context.Context, page, limit int) ([]models.Rating, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ratings: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, movie_id, rating, review, created_at, updated_at
		FROM ratings ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, 0, err
		}
		ratings = append(ratings, rt)
	}
	return ratings, total, rows.Err()
}

// ListByMovie returns a page of a movie's ratings, newest first, plus the
// total count.
func (r *RatingRepository) ListByMovie(ctx context.Context, movieID string, page, limit int) ([]models.Rating, int64, error) {
	return r.list(ctx, "movie_id", movieID, page, limit)
}

// ListByUser returns a page of a user's ratings, newest first, plus the
// total count.
func (r *RatingRepository) ListByUser(ctx context.Context, userID string, page, limit int) ([]models.Rating, int64, error) {
	return r.list(ctx, "user_id", userID, page, limit)
}

func (r *RatingRepository) list(ctx context.Context, column, value string, page, limit int) ([]models.Rating, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ratings WHERE `+column+` = ?`, value).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ratings: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, movie_id, rating, review, created_at, updated_at
		FROM ratings WHERE `+column+` = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		value, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, 0, err
		}
		ratings = append(ratings, rt)
	}
	return ratings, total, rows.Err()
}

// Stats aggregates a movie's ratings into an average, a total and a
// per-star distribution. Stars with no ratings are omitted.
func (r *RatingRepository) Stats(ctx context.Context, movieID string) (models.RatingStats, error) {
	var stats models.RatingStats
	var avg sql.NullFloat64

	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(id) FROM ratings WHERE movie_id = ?`, movieID).
		Scan(&avg, &stats.TotalRatings)
	if err != nil {
		return models.RatingStats{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	stats.AverageRating = math.Round(avg.Float64*10) / 10

	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(rating AS INTEGER) AS star, COUNT(id)
		FROM ratings WHERE movie_id = ?
		GROUP BY star ORDER BY star`, movieID)
	if err != nil {
		return models.RatingStats{}, fmt.Errorf("rating distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.RatingBucket
		if err := rows.Scan(&b.Rating, &b.Count); err != nil {
			return models.RatingStats{}, err
		}
		stats.Distribution = append(stats.Distribution, b)
	}
	return stats, rows.Err()
}

func scanRating(row rowScanner) (models.Rating, error) {
	var rt models.Rating
	var review sql.NullString

	err := row.Scan(&rt.ID, &rt.UserID, &rt.MovieID, &rt.Rating, &review, &rt.CreatedAt, &rt.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Rating{}, ErrNotFound
	}
	if err != nil {
		return models.Rating{}, fmt.Errorf("scan rating: %w", err)
	}

	rt.Review = review.String
	return rt, nil
}
