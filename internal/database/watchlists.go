package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reelbase/models"
)

// WatchlistRepository provides storage access for per-user watchlist
// entries.
type WatchlistRepository struct {
	db *sql.DB
}

func NewWatchlistRepository(db *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Create inserts a watchlist entry. Returns ErrConflict when the movie is
// already on the user's list.
func (r *WatchlistRepository) Create(ctx context.Context, w *models.WatchlistEntry) error {
	w.ID = uuid.NewString()
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	if w.Status == "" {
		w.Status = models.WatchlistWantToWatch
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watchlists (id, user_id, movie_id, status, is_favorite, notes, watched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.MovieID, string(w.Status), w.IsFavorite,
		nullString(w.Notes), nullTime(w.WatchedAt), w.CreatedAt, w.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert watchlist entry: %w", err)
	}
	return nil
}

// GetByID returns a single watchlist entry.
func (r *WatchlistRepository) GetByID(ctx context.Context, id string) (models.WatchlistEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, movie_id, status, is_favorite, notes, watched_at, created_at, updated_at
		FROM watchlists WHERE id = ?`, id)
	return scanWatchlistEntry(row)
}

// GetByUserAndMovie returns the user's entry for a movie.
func (r *WatchlistRepository) GetByUserAndMovie(ctx context.Context, userID, movieID string) (models.WatchlistEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, movie_id, status, is_favorite, notes, watched_at, created_at, updated_at
		FROM watchlists WHERE user_id = ? AND movie_id = ?`, userID, movieID)
	return scanWatchlistEntry(row)
}

// ListByUser returns a page of the user's entries, newest first, optionally
// filtered by status, plus the total count.
func (r *WatchlistRepository) ListByUser(ctx context.Context, userID string, status models.WatchlistStatus, page, limit int) ([]models.WatchlistEntry, int64, error) {
	where := `user_id = ?`
	args := []any{userID}
	if status != "" {
		where += ` AND status = ?`
		args = append(args, string(status))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM watchlists WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count watchlist: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, movie_id, status, is_favorite, notes, watched_at, created_at, updated_at
		FROM watchlists WHERE `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchlistEntry
	for rows.Next() {
		w, err := scanWatchlistEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, w)
	}
	return entries, total, rows.Err()
}

// Update overwrites the entry's status, favorite flag, notes and watched
// timestamp.
func (r *WatchlistRepository) Update(ctx context.Context, w *models.WatchlistEntry) error {
	w.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE watchlists SET status = ?, is_favorite = ?, notes = ?, watched_at = ?, updated_at = ?
		WHERE id = ?`,
		string(w.Status), w.IsFavorite, nullString(w.Notes), nullTime(w.WatchedAt), w.UpdatedAt, w.ID)
	if err != nil {
		return fmt.Errorf("update watchlist entry: %w", err)
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

// Delete removes the entry.
func (r *WatchlistRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM watchlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete watchlist entry: %w", err)
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

func scanWatchlistEntry(row rowScanner) (models.WatchlistEntry, error) {
	var w models.WatchlistEntry
	var status string
	var notes sql.NullString
	var watchedAt sql.NullTime

	err := row.Scan(&w.ID, &w.UserID, &w.MovieID, &status, &w.IsFavorite,
		&notes, &watchedAt, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WatchlistEntry{}, ErrNotFound
	}
	if err != nil {
		return models.WatchlistEntry{}, fmt.Errorf("scan watchlist entry: %w", err)
	}

	w.Status = models.WatchlistStatus(status)
	w.Notes = notes.String
	if watchedAt.Valid {
		t := watchedAt.Time
		w.WatchedAt = &t
	}
	return w, nil
}
