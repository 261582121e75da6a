// Package users implements account administration on top of the user store.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"reelbase/internal/database"
	"reelbase/models"
	"reelbase/services/auth"
)

var (
	// ErrUserNotFound is returned when no account matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the email belongs to another account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrWrongPassword is returned when the current password check fails.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrInvalidInput wraps account field validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

type userStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, page, limit int) ([]models.User, int64, error)
	Update(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SoftDelete(ctx context.Context, id string) error
}

type Service struct {
	users      userStore
	bcryptCost int
}

func NewService(users userStore, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = 12
	}
	return &Service{users: users, bcryptCost: bcryptCost}
}

// CreateInput carries the fields of an admin-created account.
type CreateInput struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      models.Role `json:"role"`
}

// Create adds an account with an explicit role.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.PublicUser, error) {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return models.PublicUser{}, fmt.Errorf("%w: firstName and lastName are required", ErrInvalidInput)
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return models.PublicUser{}, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.IsValid() {
		return models.PublicUser{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return models.PublicUser{}, ErrEmailTaken
		}
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id string) (models.PublicUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.PublicUser{}, ErrUserNotFound
	}
	if err != nil {
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}

// List returns a page of accounts.
func (s *Service) List(ctx context.Context, page, limit int) (models.Page[models.PublicUser], error) {
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return models.Page[models.PublicUser]{}, err
	}

	public := make([]models.PublicUser, len(users))
	for i, u := range users {
		public[i] = u.Public()
	}
	return models.NewPage(public, page, limit, total), nil
}

// UpdateInput carries the updatable account fields. Nil means unchanged.
type UpdateInput struct {
	FirstName *string      `json:"firstName"`
	LastName  *string      `json:"lastName"`
	Email     *string      `json:"email"`
	AvatarURL *string      `json:"avatarUrl"`
	Role      *models.Role `json:"role"`
	IsActive  *bool        `json:"isActive"`
}

// Update applies a partial update. Role and IsActive changes are restricted
// to admins at the handler layer.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (models.PublicUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.PublicUser{}, ErrUserNotFound
	}
	if err != nil {
		return models.PublicUser{}, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*in.AvatarURL)
	}
	if in.Role != nil {
		if !in.Role.IsValid() {
			return models.PublicUser{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *in.Role)
		}
		user.Role = *in.Role
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	if err := s.users.Update(ctx, &user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return models.PublicUser{}, ErrEmailTaken
		}
		if errors.Is(err, database.ErrNotFound) {
			return models.PublicUser{}, ErrUserNotFound
		}
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrWrongPassword
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, id, string(hash))
}

// Delete soft deletes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.users.SoftDelete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
