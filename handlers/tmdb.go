package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"reelbase/services/tmdb"
	"reelbase/utils/respond"
)

type tmdbClient interface {
	SearchMovies(ctx context.Context, query string, page int) (tmdb.MovieList, error)
	Popular(ctx context.Context, page int) (tmdb.MovieList, error)
	TopRated(ctx context.Context, page int) (tmdb.MovieList, error)
	NowPlaying(ctx context.Context, page int) (tmdb.MovieList, error)
	Upcoming(ctx context.Context, page int) (tmdb.MovieList, error)
	Discover(ctx context.Context, opts tmdb.DiscoverOptions) (tmdb.MovieList, error)
	MovieGenres(ctx context.Context) ([]tmdb.Genre, error)
}

var _ tmdbClient = (*tmdb.Client)(nil)

// TMDBHandler proxies browse endpoints straight to TMDB without touching
// local storage.
type TMDBHandler struct {
	Client tmdbClient
}

func NewTMDBHandler(client tmdbClient) *TMDBHandler {
	return &TMDBHandler{Client: client}
}

func tmdbStatus(err error) int {
	switch {
	case errors.Is(err, tmdb.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, tmdb.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (h *TMDBHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		respond.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	page, _ := pageParams(r)

	list, err := h.Client.SearchMovies(r.Context(), query, page)
	if err != nil {
		writeError(w, "tmdb search", tmdbStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *TMDBHandler) Popular(w http.ResponseWriter, r *http.Request) {
	h.proxyList(w, r, h.Client.Popular)
}

func (h *TMDBHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	h.proxyList(w, r, h.Client.TopRated)
}

func (h *TMDBHandler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	h.proxyList(w, r, h.Client.NowPlaying)
}

func (h *TMDBHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	h.proxyList(w, r, h.Client.Upcoming)
}

func (h *TMDBHandler) proxyList(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int) (tmdb.MovieList, error)) {
	page, _ := pageParams(r)

	list, err := fetch(r.Context(), page)
	if err != nil {
		writeError(w, "tmdb browse", tmdbStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *TMDBHandler) Discover(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	opts := tmdb.DiscoverOptions{SortBy: values.Get("sortBy")}
	opts.Page, _ = pageParams(r)

	if raw := values.Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "year must be an integer")
			return
		}
		opts.Year = v
	}
	if raw := values.Get("genreIds"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				respond.Error(w, http.StatusBadRequest, "genreIds must be a comma-separated list of integers")
				return
			}
			opts.GenreIDs = append(opts.GenreIDs, id)
		}
	}

	list, err := h.Client.Discover(r.Context(), opts)
	if err != nil {
		writeError(w, "tmdb discover", tmdbStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *TMDBHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Client.MovieGenres(r.Context())
	if err != nil {
		writeError(w, "tmdb genres", tmdbStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, genres)
}
