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

// GenreRepository provides storage access for the genre catalog.
type GenreRepository struct {
	db *sql.DB
}

func NewGenreRepository(db *sql.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

// Create inserts a new genre. Returns ErrConflict when the TMDB ID is
// already present.
func (r *GenreRepository) Create(ctx context.Context, g *models.Genre) error {
	g.ID = uuid.NewString()
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	g.IsActive = true

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO genres (id, tmdb_id, name, description, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.TmdbID, g.Name, nullString(g.Description), g.IsActive, g.CreatedAt, g.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert genre: %w", err)
	}
	return nil
}

// Upsert creates the genre or refreshes its name when the TMDB ID exists.
func (r *GenreRepository) Upsert(ctx context.Context, g *models.Genre) error {
	existing, err := r.GetByTmdbID(ctx, g.TmdbID)
	if errors.Is(err, ErrNotFound) {
		return r.Create(ctx, g)
	}
	if err != nil {
		return err
	}

	existing.Name = g.Name
	if g.Description != "" {
		existing.Description = g.Description
	}
	if err := r.update(ctx, &existing); err != nil {
		return err
	}
	*g = existing
	return nil
}

// GetByTmdbID returns a genre by its TMDB identifier.
func (r *GenreRepository) GetByTmdbID(ctx context.Context, tmdbID int64) (models.Genre, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, tmdb_id, name, description, is_active, created_at, updated_at
		FROM genres WHERE tmdb_id = ?`, tmdbID)
	return scanGenre(row)
}

// List returns all genres ordered by name.
func (r *GenreRepository) List(ctx context.Context) ([]models.Genre, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tmdb_id, name, description, is_active, created_at, updated_at
		FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	var genres []models.Genre
	for rows.Next() {
		g, err := scanGenre(rows)
		if err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (r *GenreRepository) update(ctx context.Context, g *models.Genre) error {
	g.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE genres SET name = ?, description = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		g.Name, nullString(g.Description), g.IsActive, g.UpdatedAt, g.ID)
	if err != nil {
		return fmt.Errorf("update genre: %w", err)
	}
	return nil
}

func scanGenre(row rowScanner) (models.Genre, error) {
	var g models.Genre
	var description sql.NullString

	err := row.Scan(&g.ID, &g.TmdbID, &g.Name, &description, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Genre{}, ErrNotFound
	}
	if err != nil {
		return models.Genre{}, fmt.Errorf("scan genre: %w", err)
	}

	g.Description = description.String
	return g, nil
}
