package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"reelbase/api"
	"reelbase/config"
	"reelbase/handlers"
	"reelbase/internal/database"
	"reelbase/services/auth"
	"reelbase/services/movies"
	"reelbase/services/ratings"
	"reelbase/services/tmdb"
	"reelbase/services/users"
	"reelbase/services/watchlist"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	// Load .env if present; real environment wins.
	_ = godotenv.Load()

	configPath := os.Getenv("REELBASE_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			slog.SetDefault(slog.New(slog.NewTextHandler(multiWriter, &slog.HandlerOptions{
				Level: parseLogLevel(settings.Log.Level),
			})))
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	if settings.Auth.JWTSecret == "" {
		log.Fatal("jwt secret is not configured; set REELBASE_JWT_SECRET or auth.jwtSecret in settings")
	}
	if settings.TMDB.APIKey == "" {
		log.Println("Warning: TMDB API key not configured; sync and browse endpoints will be unavailable")
	}

	db, err := database.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Repositories
	userRepo := database.NewUserRepository(db.Connection())
	movieRepo := database.NewMovieRepository(db.Connection())
	genreRepo := database.NewGenreRepository(db.Connection())
	ratingRepo := database.NewRatingRepository(db.Connection())
	watchlistRepo := database.NewWatchlistRepository(db.Connection())

	// Services
	tmdbClient := tmdb.NewClient(settings.TMDB)
	authSvc := auth.NewService(userRepo, settings.Auth)
	usersSvc := users.NewService(userRepo, settings.Auth.BcryptCost)
	moviesSvc := movies.NewService(movieRepo, genreRepo, tmdbClient, slog.Default())
	ratingsSvc := ratings.NewService(ratingRepo, movieRepo)
	watchlistSvc := watchlist.NewService(watchlistRepo, movieRepo)

	// Handlers and routes
	r := mux.NewRouter()
	api.Register(
		r,
		settings,
		authSvc,
		handlers.NewAuthHandler(authSvc),
		handlers.NewMoviesHandler(moviesSvc),
		handlers.NewRatingsHandler(ratingsSvc),
		handlers.NewWatchlistHandler(watchlistSvc),
		handlers.NewUsersHandler(usersSvc),
		handlers.NewTMDBHandler(tmdbClient),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
