package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"reelbase/models"
	"reelbase/services/auth"
	"reelbase/services/users"
	"reelbase/utils/respond"
)

type usersService interface {
	Create(ctx context.Context, in users.CreateInput) (models.PublicUser, error)
	Get(ctx context.Context, id string) (models.PublicUser, error)
	List(ctx context.Context, page, limit int) (models.Page[models.PublicUser], error)
	Update(ctx context.Context, id string, in users.UpdateInput) (models.PublicUser, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	Delete(ctx context.Context, id string) error
}

var _ usersService = (*users.Service)(nil)

type UsersHandler struct {
	Service usersService
}

func NewUsersHandler(service usersService) *UsersHandler {
	return &UsersHandler{Service: service}
}

func userStatus(err error) int {
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, users.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, users.ErrWrongPassword), errors.Is(err, users.ErrInvalidInput),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// List handles GET /users. Admin only.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	result, err := h.Service.List(r.Context(), page, limit)
	if err != nil {
		writeError(w, "list users", userStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// Create handles POST /users. Admin only.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body users.CreateInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.Service.Create(r.Context(), body)
	if err != nil {
		writeError(w, "create user", userStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusCreated, user)
}

// Get handles GET /users/{userID}. Users may read themselves, admins anyone.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["userID"]
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if claims.Subject != id && !IsAdmin(r.Context()) {
		respond.Error(w, http.StatusForbidden, "cannot read another user's account")
		return
	}

	user, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get user", userStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// Update handles PATCH /users/{userID}. Role and active-flag changes are
// admin only.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["userID"]
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	admin := IsAdmin(r.Context())
	if claims.Subject != id && !admin {
		respond.Error(w, http.StatusForbidden, "cannot update another user's account")
		return
	}

	var body users.UpdateInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if (body.Role != nil || body.IsActive != nil) && !admin {
		respond.Error(w, http.StatusForbidden, "only admins can change role or active status")
		return
	}

	user, err := h.Service.Update(r.Context(), id, body)
	if err != nil {
		writeError(w, "update user", userStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// ChangePassword handles POST /users/{userID}/password. Self only.
func (h *UsersHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["userID"]
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if claims.Subject != id {
		respond.Error(w, http.StatusForbidden, "cannot change another user's password")
		return
	}

	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.ChangePassword(r.Context(), id, body.CurrentPassword, body.NewPassword); err != nil {
		writeError(w, "change password", userStatus(err), err)
		return
	}
	respond.NoContent(w)
}

// Deactivate handles POST /users/{userID}/deactivate. Admin only. The
// account stays on record but can no longer log in.
func (h *UsersHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	inactive := false
	user, err := h.Service.Update(r.Context(), mux.Vars(r)["userID"], users.UpdateInput{IsActive: &inactive})
	if err != nil {
		writeError(w, "deactivate user", userStatus(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// Delete handles DELETE /users/{userID}. Admin only.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["userID"]); err != nil {
		writeError(w, "delete user", userStatus(err), err)
		return
	}
	respond.NoContent(w)
}
