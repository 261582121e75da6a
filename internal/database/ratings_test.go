package database_test

import (
	"context"
	"errors"
	"testing"

	"reelbase/internal/database"
	"reelbase/models"
)

func TestRatingAggregateFollowsMutations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")
	movie := seedMovie(t, db, models.Movie{TmdbID: 550, Title: "Fight Club"})

	movieRepo := database.NewMovieRepository(db.Connection())
	ratingRepo := database.NewRatingRepository(db.Connection())

	first := models.Rating{UserID: alice.ID, MovieID: movie.ID, Rating: 9.0}
	if err := ratingRepo.Create(ctx, &first); err != nil {
		t.Fatalf("create first rating: %v", err)
	}
	second := models.Rating{UserID: bob.ID, MovieID: movie.ID, Rating: 7.0}
	if err := ratingRepo.Create(ctx, &second); err != nil {
		t.Fatalf("create second rating: %v", err)
	}

	got, err := movieRepo.GetByID(ctx, movie.ID)
	if err != nil {
		t.Fatalf("get movie: %v", err)
	}
	if got.AverageRating != 8.0 || got.RatingsCount != 2 {
		t.Fatalf("expected average 8.0 over 2 ratings, got %v over %d", got.AverageRating, got.RatingsCount)
	}

	// Updating a rating moves the aggregate.
	second.Rating = 8.0
	if err := ratingRepo.Update(ctx, &second); err != nil {
		t.Fatalf("update rating: %v", err)
	}
	got, _ = movieRepo.GetByID(ctx, movie.ID)
	if got.AverageRating != 8.5 || got.RatingsCount != 2 {
		t.Fatalf("expected average 8.5, got %v over %d", got.AverageRating, got.RatingsCount)
	}

	// Deleting the last ratings resets the aggregate to zero.
	if err := ratingRepo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete rating: %v", err)
	}
	if err := ratingRepo.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete rating: %v", err)
	}
	got, _ = movieRepo.GetByID(ctx, movie.ID)
	if got.AverageRating != 0 || got.RatingsCount != 0 {
		t.Fatalf("expected zero aggregate, got %v over %d", got.AverageRating, got.RatingsCount)
	}
}

func TestRatingAverageRoundsToOneDecimal(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	users := []models.User{
		seedUser(t, db, "u1@example.com"),
		seedUser(t, db, "u2@example.com"),
		seedUser(t, db, "u3@example.com"),
	}
	movie := seedMovie(t, db, models.Movie{TmdbID: 1, Title: "Movie"})

	ratingRepo := database.NewRatingRepository(db.Connection())
	for i, v := range []float64{7.0, 8.0, 8.0} {
		r := models.Rating{UserID: users[i].ID, MovieID: movie.ID, Rating: v}
		if err := ratingRepo.Create(ctx, &r); err != nil {
			t.Fatalf("create rating: %v", err)
		}
	}

	movieRepo := database.NewMovieRepository(db.Connection())
	got, err := movieRepo.GetByID(ctx, movie.ID)
	if err != nil {
		t.Fatalf("get movie: %v", err)
	}
	// 23/3 = 7.666..., stored as 7.7.
	if got.AverageRating != 7.7 {
		t.Fatalf("expected rounded average 7.7, got %v", got.AverageRating)
	}
}

func TestRatingUniquePerUserAndMovie(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "solo@example.com")
	movie := seedMovie(t, db, models.Movie{TmdbID: 1, Title: "Movie"})

	ratingRepo := database.NewRatingRepository(db.Connection())
	first := models.Rating{UserID: user.ID, MovieID: movie.ID, Rating: 6}
	if err := ratingRepo.Create(ctx, &first); err != nil {
		t.Fatalf("create rating: %v", err)
	}

	dup := models.Rating{UserID: user.ID, MovieID: movie.ID, Rating: 9}
	if err := ratingRepo.Create(ctx, &dup); !errors.Is(err, database.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRatingStatsDistribution(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	users := []models.User{
		seedUser(t, db, "u1@example.com"),
		seedUser(t, db, "u2@example.com"),
		seedUser(t, db, "u3@example.com"),
	}
	movie := seedMovie(t, db, models.Movie{TmdbID: 1, Title: "Movie"})

	ratingRepo := database.NewRatingRepository(db.Connection())
	for i, v := range []float64{7.5, 7.0, 9.0} {
		r := models.Rating{UserID: users[i].ID, MovieID: movie.ID, Rating: v}
		if err := ratingRepo.Create(ctx, &r); err != nil {
			t.Fatalf("create rating: %v", err)
		}
	}

	stats, err := ratingRepo.Stats(ctx, movie.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalRatings != 3 {
		t.Fatalf("expected 3 ratings, got %d", stats.TotalRatings)
	}
	if stats.AverageRating != 7.8 {
		t.Fatalf("expected average 7.8, got %v", stats.AverageRating)
	}

	// 7.5 and 7.0 both land in the 7-star bucket.
	want := map[int]int64{7: 2, 9: 1}
	if len(stats.Distribution) != len(want) {
		t.Fatalf("unexpected distribution: %+v", stats.Distribution)
	}
	for _, b := range stats.Distribution {
		if want[b.Rating] != b.Count {
			t.Fatalf("bucket %d: want %d, got %d", b.Rating, want[b.Rating], b.Count)
		}
	}
}

func TestRatingStatsEmptyMovie(t *testing.T) {
	db := openTestDB(t)
	movie := seedMovie(t, db, models.Movie{TmdbID: 1, Title: "Movie"})

	ratingRepo := database.NewRatingRepository(db.Connection())
	stats, err := ratingRepo.Stats(context.Background(), movie.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalRatings != 0 || stats.AverageRating != 0 || len(stats.Distribution) != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}
}

func TestRatingListsAndLookups(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "viewer@example.com")
	m1 := seedMovie(t, db, models.Movie{TmdbID: 1, Title: "One"})
	m2 := seedMovie(t, db, models.Movie{TmdbID: 2, Title: "Two"})

	ratingRepo := database.NewRatingRepository(db.Connection())
	for _, movieID := range []string{m1.ID, m2.ID} {
		r := models.Rating{UserID: user.ID, MovieID: movieID, Rating: 8, Review: "fine"}
		if err := ratingRepo.Create(ctx, &r); err != nil {
			t.Fatalf("create rating: %v", err)
		}
	}

	byUser, total, err := ratingRepo.ListByUser(ctx, user.ID, 1, 10)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if total != 2 || len(byUser) != 2 {
		t.Fatalf("expected 2 ratings, got total=%d len=%d", total, len(byUser))
	}

	byMovie, total, err := ratingRepo.ListByMovie(ctx, m1.ID, 1, 10)
	if err != nil {
		t.Fatalf("list by movie: %v", err)
	}
	if total != 1 || len(byMovie) != 1 {
		t.Fatalf("expected 1 rating for movie, got total=%d len=%d", total, len(byMovie))
	}

	found, err := ratingRepo.GetByUserAndMovie(ctx, user.ID, m2.ID)
	if err != nil {
		t.Fatalf("get by user and movie: %v", err)
	}
	if found.Review != "fine" {
		t.Fatalf("unexpected rating: %+v", found)
	}

	if _, err := ratingRepo.GetByUserAndMovie(ctx, user.ID, "missing"); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
