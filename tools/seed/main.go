// Command seed provisions a fresh database: the TMDB genre catalog, an
// admin and a demo account, and optionally a batch of popular movies.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-password/password"
	"github.com/sourcegraph/conc/pool"

	"reelbase/config"
	"reelbase/internal/database"
	"reelbase/models"
	"reelbase/services/auth"
	"reelbase/services/movies"
	"reelbase/services/tmdb"
	"reelbase/services/users"
)

// fallbackGenres mirrors TMDB's movie genre index, used when no API key is
// configured.
var fallbackGenres = []models.Genre{
	{TmdbID: 28, Name: "Action"},
	{TmdbID: 12, Name: "Adventure"},
	{TmdbID: 16, Name: "Animation"},
	{TmdbID: 35, Name: "Comedy"},
	{TmdbID: 80, Name: "Crime"},
	{TmdbID: 99, Name: "Documentary"},
	{TmdbID: 18, Name: "Drama"},
	{TmdbID: 10751, Name: "Family"},
	{TmdbID: 14, Name: "Fantasy"},
	{TmdbID: 36, Name: "History"},
	{TmdbID: 27, Name: "Horror"},
	{TmdbID: 10402, Name: "Music"},
	{TmdbID: 9648, Name: "Mystery"},
	{TmdbID: 10749, Name: "Romance"},
	{TmdbID: 878, Name: "Science Fiction"},
	{TmdbID: 10770, Name: "TV Movie"},
	{TmdbID: 53, Name: "Thriller"},
	{TmdbID: 10752, Name: "War"},
	{TmdbID: 37, Name: "Western"},
}

func main() {
	adminEmail := flag.String("admin-email", "admin@movies.com", "admin account email")
	adminPassword := flag.String("admin-password", "", "admin account password (generated when empty)")
	demoEmail := flag.String("demo-email", "demo@movies.com", "demo account email")
	demoPassword := flag.String("demo-password", "Demo123!pass", "demo account password")
	importMovies := flag.Int("import-movies", 0, "number of popular-movie pages to import from TMDB")
	flag.Parse()

	_ = godotenv.Load()

	configPath := os.Getenv("REELBASE_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}
	settings, err := config.NewManager(configPath).Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	db, err := database.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	userRepo := database.NewUserRepository(db.Connection())
	movieRepo := database.NewMovieRepository(db.Connection())
	genreRepo := database.NewGenreRepository(db.Connection())

	tmdbClient := tmdb.NewClient(settings.TMDB)
	moviesSvc := movies.NewService(movieRepo, genreRepo, tmdbClient, slog.Default())
	usersSvc := users.NewService(userRepo, settings.Auth.BcryptCost)

	if err := seedGenres(ctx, moviesSvc, genreRepo, tmdbClient); err != nil {
		log.Fatalf("seed genres: %v", err)
	}

	if err := seedUser(ctx, usersSvc, *adminEmail, *adminPassword, models.RoleAdmin); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedUser(ctx, usersSvc, *demoEmail, *demoPassword, models.RoleUser); err != nil {
		log.Fatalf("seed demo user: %v", err)
	}

	if *importMovies > 0 {
		if err := importPopular(ctx, moviesSvc, tmdbClient, *importMovies); err != nil {
			log.Fatalf("import movies: %v", err)
		}
	}

	fmt.Println("Seed complete.")
}

// seedGenres imports the genre index from TMDB with retries, falling back
// to the built-in list when no API key is configured.
func seedGenres(ctx context.Context, svc *movies.Service, genres *database.GenreRepository, client *tmdb.Client) error {
	if client.IsConfigured() {
		err := retry.Do(
			func() error {
				_, err := svc.SyncGenres(ctx)
				return err
			},
			retry.Attempts(3),
			retry.Delay(time.Second),
			retry.Context(ctx),
		)
		if err == nil {
			fmt.Println("Seeded genre catalog from TMDB.")
			return nil
		}
		log.Printf("tmdb genre fetch failed, using built-in list: %v", err)
	}

	for _, g := range fallbackGenres {
		genre := g
		if err := genres.Upsert(ctx, &genre); err != nil {
			return err
		}
	}
	fmt.Printf("Seeded %d built-in genres.\n", len(fallbackGenres))
	return nil
}

// generatePassword returns a random password that satisfies the account
// password policy. The generator does not guarantee mixed letter case, so
// draw again on the rare miss.
func generatePassword() (string, error) {
	for i := 0; i < 20; i++ {
		pass, err := password.Generate(16, 4, 4, false, false)
		if err != nil {
			return "", err
		}
		if auth.ValidatePassword(pass) == nil {
			return pass, nil
		}
	}
	return "", errors.New("could not generate a password meeting the policy")
}

func seedUser(ctx context.Context, svc *users.Service, email, pass string, role models.Role) error {
	generated := false
	if pass == "" {
		var err error
		pass, err = generatePassword()
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		generated = true
	}

	name := "Demo"
	if role == models.RoleAdmin {
		name = "Admin"
	}

	_, err := svc.Create(ctx, users.CreateInput{
		FirstName: name,
		LastName:  "User",
		Email:     email,
		Password:  pass,
		Role:      role,
	})
	if errors.Is(err, users.ErrEmailTaken) {
		fmt.Printf("Account %s already exists, skipping.\n", email)
		return nil
	}
	if err != nil {
		return err
	}

	if generated {
		fmt.Printf("Created %s with generated password: %s\n", email, pass)
	} else {
		fmt.Printf("Created %s.\n", email)
	}
	return nil
}

// importPopular catalogs TMDB's popular movies, syncing the details of each
// page's entries concurrently.
func importPopular(ctx context.Context, svc *movies.Service, client *tmdb.Client, pages int) error {
	if !client.IsConfigured() {
		return tmdb.ErrNotConfigured
	}

	imported := 0
	for page := 1; page <= pages; page++ {
		list, err := client.Popular(ctx, page)
		if err != nil {
			return fmt.Errorf("fetch popular page %d: %w", page, err)
		}

		p := pool.New().WithMaxGoroutines(4).WithErrors()
		for _, result := range list.Results {
			tmdbID := result.ID
			p.Go(func() error {
				_, err := svc.SyncFromTmdb(ctx, tmdbID)
				if errors.Is(err, movies.ErrTmdbNotFound) {
					return nil
				}
				return err
			})
		}
		if err := p.Wait(); err != nil {
			return err
		}
		imported += len(list.Results)
	}

	fmt.Printf("Imported %d movies from TMDB.\n", imported)
	return nil
}
