package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"reelbase/models"
	"reelbase/services/movies"
	"reelbase/utils/respond"
)

type moviesService interface {
	Search(ctx context.Context, q models.MovieSearch) (models.Page[models.Movie], error)
	Get(ctx context.Context, id string) (models.Movie, error)
	GetByTmdbID(ctx context.Context, tmdbID int64) (models.Movie, error)
	Create(ctx context.Context, in movies.CreateInput) (models.Movie, error)
	Update(ctx context.Context, id string, in movies.UpdateInput) (models.Movie, error)
	Delete(ctx context.Context, id string) error
	SyncFromTmdb(ctx context.Context, tmdbID int64) (models.Movie, error)
	ListGenres(ctx context.Context) ([]models.Genre, error)
	SyncGenres(ctx context.Context) ([]models.Genre, error)
}

var _ moviesService = (*movies.Service)(nil)

type MoviesHandler struct {
	Service moviesService
}

func NewMoviesHandler(service moviesService) *MoviesHandler {
	return &MoviesHandler{Service: service}
}

// Search handles GET /movies with the full filter surface as query
// parameters.
func (h *MoviesHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.Service.Search(r.Context(), q)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, movies.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeError(w, "search movies", status, err)
		return
	}

	respond.JSON(w, http.StatusOK, page)
}

func parseSearchQuery(r *http.Request) (models.MovieSearch, error) {
	values := r.URL.Query()
	q := models.MovieSearch{
		Search:   strings.TrimSpace(values.Get("search")),
		Language: strings.TrimSpace(values.Get("language")),
		SortBy:   models.SortKey(values.Get("sortBy")),
		Page:     1,
		Limit:    10,
	}

	if raw := values.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return models.MovieSearch{}, errors.New("page must be a positive integer")
		}
		q.Page = v
	}
	if raw := values.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return models.MovieSearch{}, errors.New("limit must be a positive integer")
		}
		q.Limit = v
	}
	if raw := values.Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1800 {
			return models.MovieSearch{}, errors.New("year must be a valid calendar year")
		}
		q.Year = v
	}
	if raw := values.Get("minRating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.MovieSearch{}, errors.New("minRating must be a number")
		}
		q.MinRating = &v
	}
	if raw := values.Get("maxRating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.MovieSearch{}, errors.New("maxRating must be a number")
		}
		q.MaxRating = &v
	}
	if raw := values.Get("includeAdult"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return models.MovieSearch{}, errors.New("includeAdult must be a boolean")
		}
		q.IncludeAdult = v
	}
	if raw := values.Get("genreIds"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return models.MovieSearch{}, errors.New("genreIds must be a comma-separated list of tmdb genre ids")
			}
			q.GenreTmdbIDs = append(q.GenreTmdbIDs, id)
		}
	}

	return q, nil
}

func (h *MoviesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["movieID"]

	movie, err := h.Service.Get(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, movies.ErrMovieNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, "get movie", status, err)
		return
	}

	respond.JSON(w, http.StatusOK, movie)
}

func (h *MoviesHandler) GetByTmdbID(w http.ResponseWriter, r *http.Request) {
	tmdbID, err := strconv.ParseInt(mux.Vars(r)["tmdbID"], 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "tmdb id must be an integer")
		return
	}

	movie, err := h.Service.GetByTmdbID(r.Context(), tmdbID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, movies.ErrMovieNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, "get movie by tmdb id", status, err)
		return
	}

	respond.JSON(w, http.StatusOK, movie)
}

func (h *MoviesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body movies.CreateInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	movie, err := h.Service.Create(r.Context(), body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, movies.ErrDuplicateMovie):
			status = http.StatusConflict
		case errors.Is(err, movies.ErrInvalidInput):
			status = http.StatusBadRequest
		}
		writeError(w, "create movie", status, err)
		return
	}

	respond.JSON(w, http.StatusCreated, movie)
}

func (h *MoviesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["movieID"]

	var body movies.UpdateInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	movie, err := h.Service.Update(r.Context(), id, body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, movies.ErrMovieNotFound):
			status = http.StatusNotFound
		case errors.Is(err, movies.ErrInvalidInput):
			status = http.StatusBadRequest
		}
		writeError(w, "update movie", status, err)
		return
	}

	respond.JSON(w, http.StatusOK, movie)
}

func (h *MoviesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["movieID"]

	if err := h.Service.Delete(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, movies.ErrMovieNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, "delete movie", status, err)
		return
	}

	respond.NoContent(w)
}

// Sync handles POST /movies/sync/{tmdbID}: create or refresh a movie from
// TMDB.
func (h *MoviesHandler) Sync(w http.ResponseWriter, r *http.Request) {
	tmdbID, err := strconv.ParseInt(mux.Vars(r)["tmdbID"], 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "tmdb id must be an integer")
		return
	}

	movie, err := h.Service.SyncFromTmdb(r.Context(), tmdbID)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, movies.ErrTmdbNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, "sync movie", status, err)
		return
	}

	respond.JSON(w, http.StatusOK, movie)
}

func (h *MoviesHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Service.ListGenres(r.Context())
	if err != nil {
		writeError(w, "list genres", http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, genres)
}

func (h *MoviesHandler) SyncGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Service.SyncGenres(r.Context())
	if err != nil {
		writeError(w, "sync genres", http.StatusBadGateway, err)
		return
	}
	respond.JSON(w, http.StatusOK, genres)
}
