package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"reelbase/internal/database"
	"reelbase/models"
	"reelbase/services/watchlist"
	"reelbase/utils/respond"
)

type watchlistService interface {
	Add(ctx context.Context, userID string, in watchlist.AddInput) (models.WatchlistEntry, error)
	List(ctx context.Context, userID string, status models.WatchlistStatus, page, limit int) (models.Page[models.WatchlistEntry], error)
	Update(ctx context.Context, userID, entryID string, in watchlist.UpdateInput) (models.WatchlistEntry, error)
	Remove(ctx context.Context, userID, entryID string) error
}

var _ watchlistService = (*watchlist.Service)(nil)

type WatchlistHandler struct {
	Service watchlistService
}

func NewWatchlistHandler(service watchlistService) *WatchlistHandler {
	return &WatchlistHandler{Service: service}
}

func watchlistStatusCode(err error) int {
	switch {
	case errors.Is(err, watchlist.ErrEntryNotFound), errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, watchlist.ErrAlreadyListed):
		return http.StatusConflict
	case errors.Is(err, watchlist.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, watchlist.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Add handles POST /watchlist.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body watchlist.AddInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.Service.Add(r.Context(), claims.Subject, body)
	if err != nil {
		writeError(w, "add watchlist entry", watchlistStatusCode(err), err)
		return
	}
	respond.JSON(w, http.StatusCreated, entry)
}

// List handles GET /watchlist with an optional status filter.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	page, limit := pageParams(r)
	status := models.WatchlistStatus(r.URL.Query().Get("status"))

	result, err := h.Service.List(r.Context(), claims.Subject, status, page, limit)
	if err != nil {
		writeError(w, "list watchlist", watchlistStatusCode(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// Update handles PATCH /watchlist/{entryID}.
func (h *WatchlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body watchlist.UpdateInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.Service.Update(r.Context(), claims.Subject, mux.Vars(r)["entryID"], body)
	if err != nil {
		writeError(w, "update watchlist entry", watchlistStatusCode(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, entry)
}

// Remove handles DELETE /watchlist/{entryID}.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Service.Remove(r.Context(), claims.Subject, mux.Vars(r)["entryID"]); err != nil {
		writeError(w, "remove watchlist entry", watchlistStatusCode(err), err)
		return
	}
	respond.NoContent(w)
}
