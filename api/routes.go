package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"reelbase/config"
	"reelbase/handlers"
	"reelbase/services/auth"
)

// Register mounts every API endpoint onto the provided router under
// /api/v1. Everything except register, login and the TMDB browse
// endpoints requires a Bearer token; mutating catalog routes require the
// admin role.
func Register(
	r *mux.Router,
	settings config.Settings,
	authSvc *auth.Service,
	authHandler *handlers.AuthHandler,
	moviesHandler *handlers.MoviesHandler,
	ratingsHandler *handlers.RatingsHandler,
	watchlistHandler *handlers.WatchlistHandler,
	usersHandler *handlers.UsersHandler,
	tmdbHandler *handlers.TMDBHandler,
) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(corsMiddleware(settings.CORS.AllowedOrigin))
	api.Use(rateLimitMiddleware(settings.RateLimit))

	// Public routes.
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	// TMDB browse endpoints proxy upstream and carry no user state.
	api.HandleFunc("/tmdb/search", tmdbHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/tmdb/popular", tmdbHandler.Popular).Methods(http.MethodGet)
	api.HandleFunc("/tmdb/top-rated", tmdbHandler.TopRated).Methods(http.MethodGet)
	api.HandleFunc("/tmdb/now-playing", tmdbHandler.NowPlaying).Methods(http.MethodGet)
	api.HandleFunc("/tmdb/upcoming", tmdbHandler.Upcoming).Methods(http.MethodGet)
	api.HandleFunc("/tmdb/discover", tmdbHandler.Discover).Methods(http.MethodGet)
	api.HandleFunc("/tmdb/genres", tmdbHandler.Genres).Methods(http.MethodGet)

	// Protected routes.
	protected := api.PathPrefix("").Subrouter()
	protected.Use(AuthMiddleware(authSvc))

	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/auth/refresh", authHandler.Refresh).Methods(http.MethodPost)

	protected.HandleFunc("/movies", moviesHandler.Search).Methods(http.MethodGet)
	protected.HandleFunc("/movies/tmdb/{tmdbID:[0-9]+}", moviesHandler.GetByTmdbID).Methods(http.MethodGet)
	protected.HandleFunc("/movies/{movieID}", moviesHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/movies/{movieID}/ratings", ratingsHandler.ListForMovie).Methods(http.MethodGet)
	protected.HandleFunc("/movies/{movieID}/ratings/stats", ratingsHandler.Stats).Methods(http.MethodGet)
	protected.HandleFunc("/movies/{movieID}/ratings/me", ratingsHandler.MineForMovie).Methods(http.MethodGet)

	protected.HandleFunc("/genres", moviesHandler.Genres).Methods(http.MethodGet)

	protected.HandleFunc("/ratings", ratingsHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/ratings/me", ratingsHandler.ListMine).Methods(http.MethodGet)
	protected.HandleFunc("/ratings/{ratingID}", ratingsHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/ratings/{ratingID}", ratingsHandler.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/ratings/{ratingID}", ratingsHandler.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/watchlist", watchlistHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/watchlist", watchlistHandler.Add).Methods(http.MethodPost)
	protected.HandleFunc("/watchlist/{entryID}", watchlistHandler.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/watchlist/{entryID}", watchlistHandler.Remove).Methods(http.MethodDelete)

	protected.HandleFunc("/users/{userID}", usersHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/users/{userID}", usersHandler.Update).Methods(http.MethodPatch)
	protected.HandleFunc("/users/{userID}/password", usersHandler.ChangePassword).Methods(http.MethodPost)

	// Admin-only routes.
	admin := protected.PathPrefix("").Subrouter()
	admin.Use(AdminOnlyMiddleware())

	admin.HandleFunc("/movies", moviesHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/movies/sync/{tmdbID:[0-9]+}", moviesHandler.Sync).Methods(http.MethodPost)
	admin.HandleFunc("/movies/{movieID}", moviesHandler.Update).Methods(http.MethodPatch)
	admin.HandleFunc("/movies/{movieID}", moviesHandler.Delete).Methods(http.MethodDelete)

	admin.HandleFunc("/genres/sync", moviesHandler.SyncGenres).Methods(http.MethodPost)

	admin.HandleFunc("/ratings", ratingsHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/ratings/user/{userID}", ratingsHandler.ListForUser).Methods(http.MethodGet)

	admin.HandleFunc("/users", usersHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/users", usersHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/users/{userID}/deactivate", usersHandler.Deactivate).Methods(http.MethodPost)
	admin.HandleFunc("/users/{userID}", usersHandler.Delete).Methods(http.MethodDelete)
}
