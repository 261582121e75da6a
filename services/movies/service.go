// Package movies implements the catalog: search, curation and the TMDB
// sync that keeps local records aligned with the upstream database.
package movies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelbase/internal/database"
	"reelbase/models"
	"reelbase/services/tmdb"
)

var (
	// ErrMovieNotFound is returned when no movie matches.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrDuplicateMovie is returned when the TMDB ID is already cataloged.
	ErrDuplicateMovie = errors.New("movie with this tmdb id already exists")
	// ErrInvalidInput is returned for malformed create or update fields.
	ErrInvalidInput = errors.New("invalid movie input")
)

type movieStore interface {
	Create(ctx context.Context, m *models.Movie) error
	GetByID(ctx context.Context, id string) (models.Movie, error)
	GetByTmdbID(ctx context.Context, tmdbID int64) (models.Movie, error)
	Update(ctx context.Context, m *models.Movie) error
	SoftDelete(ctx context.Context, id string) error
	Search(ctx context.Context, q models.MovieSearch) ([]models.Movie, int64, error)
	ReplaceGenres(ctx context.Context, movieID string, genreTmdbIDs []int64) error
}

type genreStore interface {
	List(ctx context.Context) ([]models.Genre, error)
	Upsert(ctx context.Context, g *models.Genre) error
}

type tmdbAPI interface {
	MovieDetails(ctx context.Context, tmdbID int64) (tmdb.MovieDetails, error)
	MovieGenres(ctx context.Context) ([]tmdb.Genre, error)
}

type Service struct {
	movies movieStore
	genres genreStore
	tmdb   tmdbAPI
	logger *slog.Logger
}

func NewService(movies movieStore, genres genreStore, tmdbClient tmdbAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{movies: movies, genres: genres, tmdb: tmdbClient, logger: logger}
}

// CreateInput carries the fields of a manually created movie.
type CreateInput struct {
	TmdbID              int64              `json:"tmdbId"`
	Title               string             `json:"title"`
	OriginalTitle       string             `json:"originalTitle"`
	Overview            string             `json:"overview"`
	ReleaseDate         string             `json:"releaseDate"`
	VoteAverage         float64            `json:"voteAverage"`
	VoteCount           int64              `json:"voteCount"`
	Popularity          float64            `json:"popularity"`
	PosterPath          string             `json:"posterPath"`
	BackdropPath        string             `json:"backdropPath"`
	Adult               bool               `json:"adult"`
	OriginalLanguage    string             `json:"originalLanguage"`
	SpokenLanguages     []string           `json:"spokenLanguages"`
	ProductionCountries []string           `json:"productionCountries"`
	Budget              int64              `json:"budget"`
	Revenue             int64              `json:"revenue"`
	Runtime             int                `json:"runtime"`
	Status              models.MovieStatus `json:"status"`
	Tagline             string             `json:"tagline"`
	Homepage            string             `json:"homepage"`
	ImdbID              string             `json:"imdbId"`
	GenreTmdbIDs        []int64            `json:"genreTmdbIds"`
}

func (in CreateInput) validate() error {
	if in.TmdbID <= 0 {
		return fmt.Errorf("%w: tmdbId must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.ReleaseDate != "" {
		if _, err := time.Parse("2006-01-02", in.ReleaseDate); err != nil {
			return fmt.Errorf("%w: releaseDate must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	if in.Status != "" && !in.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}
	return nil
}

// Create catalogs a movie from caller-supplied fields. Unknown genre TMDB
// IDs are dropped without error.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.Movie, error) {
	if err := in.validate(); err != nil {
		return models.Movie{}, err
	}

	movie := models.Movie{
		TmdbID:              in.TmdbID,
		Title:               strings.TrimSpace(in.Title),
		OriginalTitle:       strings.TrimSpace(in.OriginalTitle),
		Overview:            in.Overview,
		VoteAverage:         in.VoteAverage,
		VoteCount:           in.VoteCount,
		Popularity:          in.Popularity,
		PosterPath:          in.PosterPath,
		BackdropPath:        in.BackdropPath,
		Adult:               in.Adult,
		OriginalLanguage:    in.OriginalLanguage,
		SpokenLanguages:     in.SpokenLanguages,
		ProductionCountries: in.ProductionCountries,
		Budget:              in.Budget,
		Revenue:             in.Revenue,
		Runtime:             in.Runtime,
		Status:              in.Status,
		Tagline:             in.Tagline,
		Homepage:            in.Homepage,
		ImdbID:              in.ImdbID,
	}
	if in.ReleaseDate != "" {
		t, _ := time.Parse("2006-01-02", in.ReleaseDate)
		movie.ReleaseDate = &t
	}

	if err := s.movies.Create(ctx, &movie); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return models.Movie{}, ErrDuplicateMovie
		}
		return models.Movie{}, err
	}

	if len(in.GenreTmdbIDs) > 0 {
		if err := s.movies.ReplaceGenres(ctx, movie.ID, in.GenreTmdbIDs); err != nil {
			return models.Movie{}, err
		}
	}

	return s.Get(ctx, movie.ID)
}

// Get returns one movie with its genres.
func (s *Service) Get(ctx context.Context, id string) (models.Movie, error) {
	movie, err := s.movies.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.Movie{}, ErrMovieNotFound
	}
	return movie, err
}

// GetByTmdbID returns one movie by its TMDB identifier.
func (s *Service) GetByTmdbID(ctx context.Context, tmdbID int64) (models.Movie, error) {
	movie, err := s.movies.GetByTmdbID(ctx, tmdbID)
	if errors.Is(err, database.ErrNotFound) {
		return models.Movie{}, ErrMovieNotFound
	}
	return movie, err
}

// Search runs the filtered catalog query and wraps the result in a page.
func (s *Service) Search(ctx context.Context, q models.MovieSearch) (models.Page[models.Movie], error) {
	if err := validateSearch(&q); err != nil {
		return models.Page[models.Movie]{}, err
	}

	items, total, err := s.movies.Search(ctx, q)
	if err != nil {
		return models.Page[models.Movie]{}, err
	}
	if items == nil {
		items = []models.Movie{}
	}
	return models.NewPage(items, q.Page, q.Limit, total), nil
}

func validateSearch(q *models.MovieSearch) error {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.SortBy != "" && !q.SortBy.IsValid() {
		return fmt.Errorf("%w: unknown sort key %q", ErrInvalidInput, q.SortBy)
	}
	for _, bound := range []*float64{q.MinRating, q.MaxRating} {
		if bound != nil && (*bound < 0 || *bound > 10) {
			return fmt.Errorf("%w: rating bounds must be within [0, 10]", ErrInvalidInput)
		}
	}
	if q.MinRating != nil && q.MaxRating != nil && *q.MinRating > *q.MaxRating {
		return fmt.Errorf("%w: minRating cannot exceed maxRating", ErrInvalidInput)
	}
	return nil
}

// UpdateInput carries the updatable movie fields. Nil means unchanged.
type UpdateInput struct {
	Title         *string             `json:"title"`
	OriginalTitle *string             `json:"originalTitle"`
	Overview      *string             `json:"overview"`
	ReleaseDate   *string             `json:"releaseDate"`
	PosterPath    *string             `json:"posterPath"`
	BackdropPath  *string             `json:"backdropPath"`
	Adult         *bool               `json:"adult"`
	Budget        *int64              `json:"budget"`
	Revenue       *int64              `json:"revenue"`
	Runtime       *int                `json:"runtime"`
	Status        *models.MovieStatus `json:"status"`
	Tagline       *string             `json:"tagline"`
	Homepage      *string             `json:"homepage"`
	IsActive      *bool               `json:"isActive"`
	GenreTmdbIDs  []int64             `json:"genreTmdbIds"`
}

// Update applies a partial update. When GenreTmdbIDs is non-nil the genre
// associations are replaced wholesale.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (models.Movie, error) {
	movie, err := s.movies.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.Movie{}, ErrMovieNotFound
	}
	if err != nil {
		return models.Movie{}, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return models.Movie{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		movie.Title = strings.TrimSpace(*in.Title)
	}
	if in.OriginalTitle != nil {
		movie.OriginalTitle = strings.TrimSpace(*in.OriginalTitle)
	}
	if in.Overview != nil {
		movie.Overview = *in.Overview
	}
	if in.ReleaseDate != nil {
		if *in.ReleaseDate == "" {
			movie.ReleaseDate = nil
		} else {
			t, err := time.Parse("2006-01-02", *in.ReleaseDate)
			if err != nil {
				return models.Movie{}, fmt.Errorf("%w: releaseDate must be YYYY-MM-DD", ErrInvalidInput)
			}
			movie.ReleaseDate = &t
		}
	}
	if in.PosterPath != nil {
		movie.PosterPath = *in.PosterPath
	}
	if in.BackdropPath != nil {
		movie.BackdropPath = *in.BackdropPath
	}
	if in.Adult != nil {
		movie.Adult = *in.Adult
	}
	if in.Budget != nil {
		movie.Budget = *in.Budget
	}
	if in.Revenue != nil {
		movie.Revenue = *in.Revenue
	}
	if in.Runtime != nil {
		movie.Runtime = *in.Runtime
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return models.Movie{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
		movie.Status = *in.Status
	}
	if in.Tagline != nil {
		movie.Tagline = *in.Tagline
	}
	if in.Homepage != nil {
		movie.Homepage = *in.Homepage
	}
	if in.IsActive != nil {
		movie.IsActive = *in.IsActive
	}

	if err := s.movies.Update(ctx, &movie); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Movie{}, ErrMovieNotFound
		}
		return models.Movie{}, err
	}

	if in.GenreTmdbIDs != nil {
		if err := s.movies.ReplaceGenres(ctx, movie.ID, in.GenreTmdbIDs); err != nil {
			return models.Movie{}, err
		}
	}

	return s.Get(ctx, movie.ID)
}

// Delete soft deletes a movie while keeping its ratings for history.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.movies.SoftDelete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrMovieNotFound
	}
	return err
}

// ListGenres returns the local genre catalog.
func (s *Service) ListGenres(ctx context.Context) ([]models.Genre, error) {
	genres, err := s.genres.List(ctx)
	if err != nil {
		return nil, err
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	return genres, nil
}
