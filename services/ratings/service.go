// Package ratings implements per-user movie ratings and the aggregate
// statistics derived from them.
package ratings

import (
	"context"
	"errors"
	"math"

	"reelbase/internal/database"
	"reelbase/models"
)

var (
	// ErrRatingNotFound is returned when no rating matches.
	ErrRatingNotFound = errors.New("rating not found")
	// ErrAlreadyRated is returned when the user has already rated the movie.
	ErrAlreadyRated = errors.New("movie already rated by this user")
	// ErrNotOwner is returned when a user touches another user's rating.
	ErrNotOwner = errors.New("rating belongs to another user")
	// ErrInvalidRating is returned for values outside [0, 10].
	ErrInvalidRating = errors.New("rating must be between 0.0 and 10.0")
)

type ratingStore interface {
	Create(ctx context.Context, rt *models.Rating) error
	ListAll(ctx context.Context, page, limit int) ([]models.Rating, int64, error)
	Update(ctx context.Context, rt *models.Rating) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (models.Rating, error)
	GetByUserAndMovie(ctx context.Context, userID, movieID string) (models.Rating, error)
	ListByMovie(ctx context.Context, movieID string, page, limit int) ([]models.Rating, int64, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]models.Rating, int64, error)
	Stats(ctx context.Context, movieID string) (models.RatingStats, error)
}

type movieStore interface {
	GetByID(ctx context.Context, id string) (models.Movie, error)
}

type Service struct {
	ratings ratingStore
	movies  movieStore
}

func NewService(ratings ratingStore, movies movieStore) *Service {
	return &Service{ratings: ratings, movies: movies}
}

// Input carries a rating value and optional review text.
type Input struct {
	Rating float64 `json:"rating"`
	Review string  `json:"review"`
}

func (in Input) validate() error {
	if in.Rating < 0 || in.Rating > 10 {
		return ErrInvalidRating
	}
	return nil
}

// normalize clamps the value to one decimal place.
func normalize(v float64) float64 {
	return math.Round(v*10) / 10
}

// Rate records a user's rating for a movie. A second rating for the same
// movie is rejected, use Update instead.
func (s *Service) Rate(ctx context.Context, userID, movieID string, in Input) (models.Rating, error) {
	if err := in.validate(); err != nil {
		return models.Rating{}, err
	}
	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		return models.Rating{}, err
	}

	rating := models.Rating{
		UserID:  userID,
		MovieID: movieID,
		Rating:  normalize(in.Rating),
		Review:  in.Review,
	}
	if err := s.ratings.Create(ctx, &rating); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return models.Rating{}, ErrAlreadyRated
		}
		return models.Rating{}, err
	}
	return rating, nil
}

// Update changes a rating. Only the owner may update it.
func (s *Service) Update(ctx context.Context, userID, ratingID string, in Input) (models.Rating, error) {
	if err := in.validate(); err != nil {
		return models.Rating{}, err
	}

	rating, err := s.ratings.GetByID(ctx, ratingID)
	if errors.Is(err, database.ErrNotFound) {
		return models.Rating{}, ErrRatingNotFound
	}
	if err != nil {
		return models.Rating{}, err
	}
	if rating.UserID != userID {
		return models.Rating{}, ErrNotOwner
	}

	rating.Rating = normalize(in.Rating)
	rating.Review = in.Review
	if err := s.ratings.Update(ctx, &rating); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Rating{}, ErrRatingNotFound
		}
		return models.Rating{}, err
	}
	return rating, nil
}

// Delete removes a rating. The owner or an admin may delete it.
func (s *Service) Delete(ctx context.Context, userID string, isAdmin bool, ratingID string) error {
	rating, err := s.ratings.GetByID(ctx, ratingID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrRatingNotFound
	}
	if err != nil {
		return err
	}
	if rating.UserID != userID && !isAdmin {
		return ErrNotOwner
	}

	err = s.ratings.Delete(ctx, ratingID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrRatingNotFound
	}
	return err
}

// Get returns one rating.
func (s *Service) Get(ctx context.Context, ratingID string) (models.Rating, error) {
	rating, err := s.ratings.GetByID(ctx, ratingID)
	if errors.Is(err, database.ErrNotFound) {
		return models.Rating{}, ErrRatingNotFound
	}
	return rating, err
}

// GetForMovie returns the user's own rating of a movie.
func (s *Service) GetForMovie(ctx context.Context, userID, movieID string) (models.Rating, error) {
	rating, err := s.ratings.GetByUserAndMovie(ctx, userID, movieID)
	if errors.Is(err, database.ErrNotFound) {
		return models.Rating{}, ErrRatingNotFound
	}
	return rating, err
}

// ListAll returns a page over every rating. Admin only, enforced at the
// handler layer.
func (s *Service) ListAll(ctx context.Context, page, limit int) (models.Page[models.Rating], error) {
	page, limit = clampPage(page, limit)
	items, total, err := s.ratings.ListAll(ctx, page, limit)
	if err != nil {
		return models.Page[models.Rating]{}, err
	}
	if items == nil {
		items = []models.Rating{}
	}
	return models.NewPage(items, page, limit, total), nil
}

// ListByMovie returns a page of a movie's ratings.
func (s *Service) ListByMovie(ctx context.Context, movieID string, page, limit int) (models.Page[models.Rating], error) {
	page, limit = clampPage(page, limit)
	items, total, err := s.ratings.ListByMovie(ctx, movieID, page, limit)
	if err != nil {
		return models.Page[models.Rating]{}, err
	}
	if items == nil {
		items = []models.Rating{}
	}
	return models.NewPage(items, page, limit, total), nil
}

// ListByUser returns a page of a user's ratings.
func (s *Service) ListByUser(ctx context.Context, userID string, page, limit int) (models.Page[models.Rating], error) {
	page, limit = clampPage(page, limit)
	items, total, err := s.ratings.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return models.Page[models.Rating]{}, err
	}
	if items == nil {
		items = []models.Rating{}
	}
	return models.NewPage(items, page, limit, total), nil
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

// Stats returns a movie's rating aggregate and per-star distribution.
func (s *Service) Stats(ctx context.Context, movieID string) (models.RatingStats, error) {
	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		return models.RatingStats{}, err
	}
	stats, err := s.ratings.Stats(ctx, movieID)
	if err != nil {
		return models.RatingStats{}, err
	}
	if stats.Distribution == nil {
		stats.Distribution = []models.RatingBucket{}
	}
	return stats, nil
}
