package movies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reelbase/internal/database"
	"reelbase/models"
	"reelbase/services/tmdb"
)

// ErrTmdbNotFound is returned when TMDB has no movie with the given ID.
var ErrTmdbNotFound = errors.New("movie not found on tmdb")

// SyncFromTmdb fetches the movie's current record from TMDB and creates or
// updates the local copy. The operation is idempotent: repeating it for the
// same ID converges on a single record.
func (s *Service) SyncFromTmdb(ctx context.Context, tmdbID int64) (models.Movie, error) {
	details, err := s.tmdb.MovieDetails(ctx, tmdbID)
	if errors.Is(err, tmdb.ErrNotFound) {
		return models.Movie{}, ErrTmdbNotFound
	}
	if err != nil {
		return models.Movie{}, fmt.Errorf("fetch tmdb movie %d: %w", tmdbID, err)
	}

	now := time.Now().UTC()
	existing, err := s.movies.GetByTmdbID(ctx, tmdbID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		movie := movieFromDetails(details)
		movie.LastSyncedAt = &now
		if err := s.movies.Create(ctx, &movie); err != nil {
			return models.Movie{}, err
		}
		existing = movie
		s.logger.Info("cataloged movie from tmdb", "tmdbId", tmdbID, "title", movie.Title)
	case err != nil:
		return models.Movie{}, err
	default:
		applyDetails(&existing, details)
		existing.LastSyncedAt = &now
		if err := s.movies.Update(ctx, &existing); err != nil {
			return models.Movie{}, err
		}
		s.logger.Info("refreshed movie from tmdb", "tmdbId", tmdbID, "title", existing.Title)
	}

	genreIDs := make([]int64, len(details.Genres))
	for i, g := range details.Genres {
		genreIDs[i] = g.ID
	}
	if err := s.movies.ReplaceGenres(ctx, existing.ID, genreIDs); err != nil {
		return models.Movie{}, err
	}

	return s.Get(ctx, existing.ID)
}

// SyncGenres imports TMDB's genre index into the local catalog, creating
// missing genres and refreshing names of existing ones.
func (s *Service) SyncGenres(ctx context.Context) ([]models.Genre, error) {
	remote, err := s.tmdb.MovieGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tmdb genres: %w", err)
	}

	for _, rg := range remote {
		g := models.Genre{TmdbID: rg.ID, Name: rg.Name}
		if err := s.genres.Upsert(ctx, &g); err != nil {
			return nil, fmt.Errorf("upsert genre %q: %w", rg.Name, err)
		}
	}

	return s.ListGenres(ctx)
}

func movieFromDetails(d tmdb.MovieDetails) models.Movie {
	m := models.Movie{
		TmdbID:           d.ID,
		Title:            d.Title,
		OriginalTitle:    d.OriginalTitle,
		Overview:         d.Overview,
		VoteAverage:      d.VoteAverage,
		VoteCount:        d.VoteCount,
		Popularity:       d.Popularity,
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		Adult:            d.Adult,
		OriginalLanguage: d.OriginalLanguage,
		Budget:           d.Budget,
		Revenue:          d.Revenue,
		Runtime:          d.Runtime,
		Status:           mapStatus(d.Status),
		Tagline:          d.Tagline,
		Homepage:         d.Homepage,
		ImdbID:           d.IMDBID,
	}
	if t, err := time.Parse("2006-01-02", d.ReleaseDate); err == nil {
		m.ReleaseDate = &t
	}
	for _, l := range d.SpokenLanguages {
		m.SpokenLanguages = append(m.SpokenLanguages, l.Name)
	}
	for _, c := range d.ProductionCountries {
		m.ProductionCountries = append(m.ProductionCountries, c.Name)
	}
	return m
}

func applyDetails(m *models.Movie, d tmdb.MovieDetails) {
	fresh := movieFromDetails(d)
	fresh.ID = m.ID
	fresh.AverageRating = m.AverageRating
	fresh.RatingsCount = m.RatingsCount
	fresh.IsActive = m.IsActive
	fresh.CreatedAt = m.CreatedAt
	*m = fresh
}

// mapStatus translates TMDB's production status strings to the local
// vocabulary. Unknown values default to released.
func mapStatus(status string) models.MovieStatus {
	switch status {
	case "Rumored":
		return models.StatusRumored
	case "Planned":
		return models.StatusPlanned
	case "In Production":
		return models.StatusInProduction
	case "Post Production":
		return models.StatusPostProduction
	case "Released":
		return models.StatusReleased
	case "Canceled":
		return models.StatusCanceled
	default:
		return models.StatusReleased
	}
}
