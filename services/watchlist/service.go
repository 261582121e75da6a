// Package watchlist implements per-user viewing lists.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelbase/internal/database"
	"reelbase/models"
)

var (
	// ErrEntryNotFound is returned when no watchlist entry matches.
	ErrEntryNotFound = errors.New("watchlist entry not found")
	// ErrAlreadyListed is returned when the movie is already on the list.
	ErrAlreadyListed = errors.New("movie already on watchlist")
	// ErrNotOwner is returned when a user touches another user's entry.
	ErrNotOwner = errors.New("watchlist entry belongs to another user")
	// ErrInvalidInput wraps entry field validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

type entryStore interface {
	Create(ctx context.Context, w *models.WatchlistEntry) error
	GetByID(ctx context.Context, id string) (models.WatchlistEntry, error)
	GetByUserAndMovie(ctx context.Context, userID, movieID string) (models.WatchlistEntry, error)
	ListByUser(ctx context.Context, userID string, status models.WatchlistStatus, page, limit int) ([]models.WatchlistEntry, int64, error)
	Update(ctx context.Context, w *models.WatchlistEntry) error
	Delete(ctx context.Context, id string) error
}

type movieStore interface {
	GetByID(ctx context.Context, id string) (models.Movie, error)
}

type Service struct {
	entries entryStore
	movies  movieStore
}

func NewService(entries entryStore, movies movieStore) *Service {
	return &Service{entries: entries, movies: movies}
}

// AddInput carries the fields of a new watchlist entry.
type AddInput struct {
	MovieID    string                 `json:"movieId"`
	Status     models.WatchlistStatus `json:"status"`
	IsFavorite bool                   `json:"isFavorite"`
	Notes      string                 `json:"notes"`
}

// Add puts a movie on the user's list.
func (s *Service) Add(ctx context.Context, userID string, in AddInput) (models.WatchlistEntry, error) {
	if strings.TrimSpace(in.MovieID) == "" {
		return models.WatchlistEntry{}, fmt.Errorf("%w: movieId is required", ErrInvalidInput)
	}
	if in.Status != "" && !in.Status.IsValid() {
		return models.WatchlistEntry{}, fmt.Errorf("%w: unknown watchlist status %q", ErrInvalidInput, in.Status)
	}
	if _, err := s.movies.GetByID(ctx, in.MovieID); err != nil {
		return models.WatchlistEntry{}, err
	}

	entry := models.WatchlistEntry{
		UserID:     userID,
		MovieID:    in.MovieID,
		Status:     in.Status,
		IsFavorite: in.IsFavorite,
		Notes:      in.Notes,
	}
	if entry.Status == models.WatchlistWatched {
		now := time.Now().UTC()
		entry.WatchedAt = &now
	}

	if err := s.entries.Create(ctx, &entry); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return models.WatchlistEntry{}, ErrAlreadyListed
		}
		return models.WatchlistEntry{}, err
	}
	return entry, nil
}

// List returns a page of the user's entries, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID string, status models.WatchlistStatus, page, limit int) (models.Page[models.WatchlistEntry], error) {
	if status != "" && !status.IsValid() {
		return models.Page[models.WatchlistEntry]{}, fmt.Errorf("%w: unknown watchlist status %q", ErrInvalidInput, status)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	items, total, err := s.entries.ListByUser(ctx, userID, status, page, limit)
	if err != nil {
		return models.Page[models.WatchlistEntry]{}, err
	}
	if items == nil {
		items = []models.WatchlistEntry{}
	}
	return models.NewPage(items, page, limit, total), nil
}

// UpdateInput carries the updatable entry fields. Nil means unchanged.
type UpdateInput struct {
	Status     *models.WatchlistStatus `json:"status"`
	IsFavorite *bool                   `json:"isFavorite"`
	Notes      *string                 `json:"notes"`
}

// Update applies a partial update to the user's own entry. Moving an entry
// to watched stamps the watched time once.
func (s *Service) Update(ctx context.Context, userID, entryID string, in UpdateInput) (models.WatchlistEntry, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
	if errors.Is(err, database.ErrNotFound) {
		return models.WatchlistEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return models.WatchlistEntry{}, err
	}
	if entry.UserID != userID {
		return models.WatchlistEntry{}, ErrNotOwner
	}

	if in.Status != nil {
		if !in.Status.IsValid() {
			return models.WatchlistEntry{}, fmt.Errorf("%w: unknown watchlist status %q", ErrInvalidInput, *in.Status)
		}
		if *in.Status == models.WatchlistWatched && entry.Status != models.WatchlistWatched {
			now := time.Now().UTC()
			entry.WatchedAt = &now
		}
		entry.Status = *in.Status
	}
	if in.IsFavorite != nil {
		entry.IsFavorite = *in.IsFavorite
	}
	if in.Notes != nil {
		entry.Notes = *in.Notes
	}

	if err := s.entries.Update(ctx, &entry); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.WatchlistEntry{}, ErrEntryNotFound
		}
		return models.WatchlistEntry{}, err
	}
	return entry, nil
}

// Remove deletes the user's own entry.
func (s *Service) Remove(ctx context.Context, userID, entryID string) error {
	entry, err := s.entries.GetByID(ctx, entryID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrEntryNotFound
	}
	if err != nil {
		return err
	}
	if entry.UserID != userID {
		return ErrNotOwner
	}

	err = s.entries.Delete(ctx, entryID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrEntryNotFound
	}
	return err
}
