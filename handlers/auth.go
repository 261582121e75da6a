package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"reelbase/internal/database"
	"reelbase/models"
	"reelbase/services/auth"
	"reelbase/utils/respond"
)

type authService interface {
	Register(ctx context.Context, in auth.RegisterInput) (auth.AuthResult, error)
	Login(ctx context.Context, email, password string) (auth.AuthResult, error)
	Refresh(ctx context.Context, userID string) (auth.AuthResult, error)
	CurrentUser(ctx context.Context, userID string) (models.PublicUser, error)
}

var _ authService = (*auth.Service)(nil)

type AuthHandler struct {
	Service authService
}

func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{Service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body auth.RegisterInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Service.Register(r.Context(), body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			status = http.StatusConflict
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidInput):
			status = http.StatusBadRequest
		}
		writeError(w, "register", status, err)
		return
	}

	respond.JSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAccountDisabled):
			status = http.StatusUnauthorized
		}
		writeError(w, "login", status, err)
		return
	}

	respond.JSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.Service.CurrentUser(r.Context(), claims.Subject)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, database.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, "current user", status, err)
		return
	}

	respond.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	result, err := h.Service.Refresh(r.Context(), claims.Subject)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrAccountDisabled) {
			status = http.StatusUnauthorized
		}
		writeError(w, "refresh token", status, err)
		return
	}

	respond.JSON(w, http.StatusOK, result)
}
