package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelbase/internal/database"
	"reelbase/models"
)

func date(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestMovieCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewMovieRepository(db.Connection())
	ctx := context.Background()

	created := seedMovie(t, db, models.Movie{
		TmdbID:      550,
		Title:       "Fight Club",
		ReleaseDate: date("1999-10-15"),
		Popularity:  61.4,
	})
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get movie: %v", err)
	}
	if got.Title != "Fight Club" || got.TmdbID != 550 {
		t.Fatalf("unexpected movie: %+v", got)
	}
	if got.ReleaseDate == nil || got.ReleaseDate.Year() != 1999 {
		t.Fatalf("release date not preserved: %v", got.ReleaseDate)
	}
	if !got.IsActive {
		t.Fatal("new movies should be active")
	}

	byTmdb, err := repo.GetByTmdbID(ctx, 550)
	if err != nil {
		t.Fatalf("get by tmdb id: %v", err)
	}
	if byTmdb.ID != created.ID {
		t.Fatalf("tmdb lookup returned %s, want %s", byTmdb.ID, created.ID)
	}
}

func TestMovieCreateDuplicateTmdbID(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewMovieRepository(db.Connection())

	seedMovie(t, db, models.Movie{TmdbID: 550, Title: "Fight Club"})

	dup := models.Movie{TmdbID: 550, Title: "Fight Club Again"}
	if err := repo.Create(context.Background(), &dup); !errors.Is(err, database.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMovieSoftDeleteHidesRecord(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewMovieRepository(db.Connection())
	ctx := context.Background()

	m := seedMovie(t, db, models.Movie{TmdbID: 1, Title: "Gone"})
	if err := repo.SoftDelete(ctx, m.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, m.ID); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.SoftDelete(ctx, m.ID); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("double delete should be ErrNotFound, got %v", err)
	}
}

func searchFixture(t *testing.T, db *database.DB) {
	t.Helper()

	seedGenre(t, db, 18, "Drama")
	seedGenre(t, db, 35, "Comedy")
	repo := database.NewMovieRepository(db.Connection())

	fightClub := seedMovie(t, db, models.Movie{
		TmdbID: 550, Title: "Fight Club", OriginalTitle: "Fight Club",
		ReleaseDate: date("1999-10-15"), Popularity: 61.4, OriginalLanguage: "en",
	})
	amelie := seedMovie(t, db, models.Movie{
		TmdbID: 194, Title: "Amelie", OriginalTitle: "Le Fabuleux Destin d'Amélie Poulain",
		ReleaseDate: date("2001-04-25"), Popularity: 34.1, OriginalLanguage: "fr",
	})
	seedMovie(t, db, models.Movie{
		TmdbID: 999, Title: "Some Adult Film", Adult: true,
		ReleaseDate: date("2001-01-01"), Popularity: 90,
	})

	ctx := context.Background()
	if err := repo.ReplaceGenres(ctx, fightClub.ID, []int64{18}); err != nil {
		t.Fatalf("assign genres: %v", err)
	}
	if err := repo.ReplaceGenres(ctx, amelie.ID, []int64{35, 18}); err != nil {
		t.Fatalf("assign genres: %v", err)
	}
}

func TestMovieSearchFilters(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewMovieRepository(db.Connection())
	ctx := context.Background()
	searchFixture(t, db)

	t.Run("adult excluded by default", func(t *testing.T) {
		results, total, err := repo.Search(ctx, models.MovieSearch{})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if total != 2 || len(results) != 2 {
			t.Fatalf("expected 2 movies, got total=%d len=%d", total, len(results))
		}
		for _, m := range results {
			if m.Adult {
				t.Fatalf("adult movie leaked into results: %s", m.Title)
			}
		}
	})

	t.Run("adult included on request", func(t *testing.T) {
		_, total, err := repo.Search(ctx, models.MovieSearch{IncludeAdult: true})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if total != 3 {
			t.Fatalf("expected 3 movies with includeAdult, got %d", total)
		}
	})

	t.Run("title substring is case-insensitive", func(t *testing.T) {
		results, _, err := repo.Search(ctx, models.MovieSearch{Search: "fight"})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 1 || results[0].Title != "Fight Club" {
			t.Fatalf("unexpected results: %+v", results)
		}
	})

	t.Run("original title matches too", func(t *testing.T) {
		results, _, err := repo.Search(ctx, models.MovieSearch{Search: "fabuleux"})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 1 || results[0].Title != "Amelie" {
			t.Fatalf("unexpected results: %+v", results)
		}
	})

	t.Run("genre filter", func(t *testing.T) {
		results, _, err := repo.Search(ctx, models.MovieSearch{GenreTmdbIDs: []int64{35}})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 1 || results[0].Title != "Amelie" {
			t.Fatalf("unexpected results: %+v", results)
		}
	})

	t.Run("year filter", func(t *testing.T) {
		results, _, err := repo.Search(ctx, models.MovieSearch{Year: 1999})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 1 || results[0].Title != "Fight Club" {
			t.Fatalf("unexpected results: %+v", results)
		}
	})

	t.Run("language filter", func(t *testing.T) {
		results, _, err := repo.Search(ctx, models.MovieSearch{Language: "fr"})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 1 || results[0].Title != "Amelie" {
			t.Fatalf("unexpected results: %+v", results)
		}
	})

	t.Run("default sort is popularity desc", func(t *testing.T) {
		results, _, err := repo.Search(ctx, models.MovieSearch{})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if results[0].Title != "Fight Club" {
			t.Fatalf("expected Fight Club first, got %s", results[0].Title)
		}
	})

	t.Run("explicit popularity sort", func(t *testing.T) {
		results, _, err := repo.Search(ctx, models.MovieSearch{SortBy: models.SortPopularityDesc})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if results[0].Title != "Fight Club" {
			t.Fatalf("expected Fight Club first with popularity_desc, got %s", results[0].Title)
		}

		results, _, err = repo.Search(ctx, models.MovieSearch{SortBy: models.SortPopularityAsc})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if results[0].Title != "Amelie" {
			t.Fatalf("expected Amelie first with popularity_asc, got %s", results[0].Title)
		}
	})

	t.Run("title sort", func(t *testing.T) {
		results, _, err := repo.Search(ctx, models.MovieSearch{SortBy: models.SortTitleAsc})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if results[0].Title != "Amelie" {
			t.Fatalf("expected Amelie first with title_asc, got %s", results[0].Title)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		results, total, err := repo.Search(ctx, models.MovieSearch{Page: 2, Limit: 1})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if total != 2 {
			t.Fatalf("total should count all matches, got %d", total)
		}
		if len(results) != 1 || results[0].Title != "Amelie" {
			t.Fatalf("unexpected second page: %+v", results)
		}
	})

	t.Run("genres loaded on results", func(t *testing.T) {
		results, _, err := repo.Search(ctx, models.MovieSearch{Search: "amelie"})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 1 || len(results[0].Genres) != 2 {
			t.Fatalf("expected 2 genres on Amelie, got %+v", results)
		}
	})
}

func TestMovieSearchRatingBounds(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewMovieRepository(db.Connection())
	ctx := context.Background()

	user1 := seedUser(t, db, "a@example.com")
	user2 := seedUser(t, db, "b@example.com")
	rated := seedMovie(t, db, models.Movie{TmdbID: 1, Title: "Rated"})
	seedMovie(t, db, models.Movie{TmdbID: 2, Title: "Unrated"})

	ratingRepo := database.NewRatingRepository(db.Connection())
	for _, r := range []models.Rating{
		{UserID: user1.ID, MovieID: rated.ID, Rating: 9},
		{UserID: user2.ID, MovieID: rated.ID, Rating: 7},
	} {
		rating := r
		if err := ratingRepo.Create(ctx, &rating); err != nil {
			t.Fatalf("create rating: %v", err)
		}
	}

	minRating := 7.5
	results, _, err := repo.Search(ctx, models.MovieSearch{MinRating: &minRating})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Rated" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].AverageRating != 8.0 {
		t.Fatalf("average should be 8.0, got %v", results[0].AverageRating)
	}

	maxRating := 7.5
	results, _, err = repo.Search(ctx, models.MovieSearch{MaxRating: &maxRating})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// The unrated movie has a zero average, inside the bound.
	if len(results) != 1 || results[0].Title != "Unrated" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestReplaceGenresDropsUnknownIDs(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewMovieRepository(db.Connection())
	ctx := context.Background()

	seedGenre(t, db, 18, "Drama")
	m := seedMovie(t, db, models.Movie{TmdbID: 1, Title: "Movie"})

	if err := repo.ReplaceGenres(ctx, m.ID, []int64{18, 12345}); err != nil {
		t.Fatalf("replace genres: %v", err)
	}

	got, err := repo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Genres) != 1 || got.Genres[0].Name != "Drama" {
		t.Fatalf("expected only Drama, got %+v", got.Genres)
	}

	// Replacing with an empty list clears the associations.
	if err := repo.ReplaceGenres(ctx, m.ID, nil); err != nil {
		t.Fatalf("clear genres: %v", err)
	}
	got, err = repo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Genres) != 0 {
		t.Fatalf("expected no genres, got %+v", got.Genres)
	}
}

func TestReplaceGenresIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewMovieRepository(db.Connection())
	ctx := context.Background()

	seedGenre(t, db, 18, "Drama")
	seedGenre(t, db, 35, "Comedy")
	m := seedMovie(t, db, models.Movie{TmdbID: 1, Title: "Movie"})

	for i := 0; i < 3; i++ {
		if err := repo.ReplaceGenres(ctx, m.ID, []int64{18, 35}); err != nil {
			t.Fatalf("replace genres round %d: %v", i, err)
		}
	}

	got, err := repo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Genres) != 2 {
		t.Fatalf("expected 2 genres after repeated replace, got %d", len(got.Genres))
	}
}
