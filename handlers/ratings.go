package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"reelbase/internal/database"
	"reelbase/models"
	"reelbase/services/ratings"
	"reelbase/utils/respond"
)

type ratingsService interface {
	Rate(ctx context.Context, userID, movieID string, in ratings.Input) (models.Rating, error)
	Update(ctx context.Context, userID, ratingID string, in ratings.Input) (models.Rating, error)
	Delete(ctx context.Context, userID string, isAdmin bool, ratingID string) error
	Get(ctx context.Context, ratingID string) (models.Rating, error)
	GetForMovie(ctx context.Context, userID, movieID string) (models.Rating, error)
	ListAll(ctx context.Context, page, limit int) (models.Page[models.Rating], error)
	ListByMovie(ctx context.Context, movieID string, page, limit int) (models.Page[models.Rating], error)
	ListByUser(ctx context.Context, userID string, page, limit int) (models.Page[models.Rating], error)
	Stats(ctx context.Context, movieID string) (models.RatingStats, error)
}

var _ ratingsService = (*ratings.Service)(nil)

type RatingsHandler struct {
	Service ratingsService
}

func NewRatingsHandler(service ratingsService) *RatingsHandler {
	return &RatingsHandler{Service: service}
}

func ratingStatus(err error) int {
	switch {
	case errors.Is(err, ratings.ErrRatingNotFound), errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ratings.ErrAlreadyRated):
		return http.StatusConflict
	case errors.Is(err, ratings.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ratings.ErrInvalidRating):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Create handles POST /ratings.
func (h *RatingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body struct {
		MovieID string  `json:"movieId"`
		Rating  float64 `json:"rating"`
		Review  string  `json:"review"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	rating, err := h.Service.Rate(r.Context(), claims.Subject, body.MovieID,
		ratings.Input{Rating: body.Rating, Review: body.Review})
	if err != nil {
		writeError(w, "create rating", ratingStatus(err), err)
		return
	}

	respond.JSON(w, http.StatusCreated, rating)
}

// List handles GET /ratings. Admins see every rating.
func (h *RatingsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	result, err := h.Service.ListAll(r.Context(), page, limit)
	if err != nil {
		writeError(w, "list ratings", ratingStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// ListMine handles GET /ratings/me.
func (h *RatingsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	page, limit := pageParams(r)

	result, err := h.Service.ListByUser(r.Context(), claims.Subject, page, limit)
	if err != nil {
		writeError(w, "list own ratings", ratingStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

func (h *RatingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rating, err := h.Service.Get(r.Context(), mux.Vars(r)["ratingID"])
	if err != nil {
		writeError(w, "get rating", ratingStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, rating)
}

func (h *RatingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body ratings.Input
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	rating, err := h.Service.Update(r.Context(), claims.Subject, mux.Vars(r)["ratingID"], body)
	if err != nil {
		writeError(w, "update rating", ratingStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, rating)
}

func (h *RatingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	err := h.Service.Delete(r.Context(), claims.Subject, IsAdmin(r.Context()), mux.Vars(r)["ratingID"])
	if err != nil {
		writeError(w, "delete rating", ratingStatus(err), err)
		return
	}
	respond.NoContent(w)
}

// ListForUser handles GET /ratings/user/{userID}. Admins see any user's
// ratings.
func (h *RatingsHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	result, err := h.Service.ListByUser(r.Context(), mux.Vars(r)["userID"], page, limit)
	if err != nil {
		writeError(w, "list user ratings", ratingStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// ListForMovie handles GET /movies/{movieID}/ratings.
func (h *RatingsHandler) ListForMovie(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	result, err := h.Service.ListByMovie(r.Context(), mux.Vars(r)["movieID"], page, limit)
	if err != nil {
		writeError(w, "list movie ratings", ratingStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// MineForMovie handles GET /movies/{movieID}/ratings/me.
func (h *RatingsHandler) MineForMovie(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	rating, err := h.Service.GetForMovie(r.Context(), claims.Subject, mux.Vars(r)["movieID"])
	if err != nil {
		writeError(w, "get own movie rating", ratingStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, rating)
}

// Stats handles GET /movies/{movieID}/ratings/stats.
func (h *RatingsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context(), mux.Vars(r)["movieID"])
	if err != nil {
		writeError(w, "movie rating stats", ratingStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
