// Package auth implements registration, login and JWT issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"reelbase/config"
	"reelbase/internal/database"
	"reelbase/models"
)

var (
	// ErrInvalidCredentials is returned for a wrong email or password. The
	// two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAccountDisabled is returned when the account is deactivated.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrInvalidToken is returned for expired or malformed tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidInput wraps registration field validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

type userStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

// Claims is the JWT payload. Subject carries the user ID.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	users      userStore
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

func NewService(users userStore, settings config.AuthSettings) *Service {
	ttl := time.Duration(settings.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cost := settings.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = 12
	}
	return &Service{
		users:      users,
		secret:     []byte(settings.JWTSecret),
		tokenTTL:   ttl,
		bcryptCost: cost,
	}
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Validate checks the registration fields without touching storage.
func (in RegisterInput) Validate() error {
	if n := len(strings.TrimSpace(in.FirstName)); n < 2 || n > 100 {
		return fmt.Errorf("%w: firstName must be between 2 and 100 characters", ErrInvalidInput)
	}
	if n := len(strings.TrimSpace(in.LastName)); n < 2 || n > 100 {
		return fmt.Errorf("%w: lastName must be between 2 and 100 characters", ErrInvalidInput)
	}
	if len(in.Email) > 255 || !validEmail(in.Email) {
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if len(in.Password) > 128 {
		return fmt.Errorf("%w: password must be at most 128 characters", ErrInvalidInput)
	}
	return ValidatePassword(in.Password)
}

// AuthResult pairs a signed token with the authenticated user.
type AuthResult struct {
	AccessToken string            `json:"accessToken"`
	User        models.PublicUser `json:"user"`
}

// Register creates a new account with the default user role and returns a
// signed token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if err := in.Validate(); err != nil {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, err
	}

	return s.issue(user)
}

// Login verifies the credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return AuthResult{}, ErrAccountDisabled
	}

	return s.issue(user)
}

// Refresh re-issues a token for an authenticated user.
func (s *Service) Refresh(ctx context.Context, userID string) (AuthResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return AuthResult{}, err
	}
	if !user.IsActive {
		return AuthResult{}, ErrAccountDisabled
	}
	return s.issue(user)
}

// CurrentUser loads the account behind a verified token.
func (s *Service) CurrentUser(ctx context.Context, userID string) (models.PublicUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *Service) issue(user models.User) (AuthResult, error) {
	now := time.Now().UTC()
	claims := Claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign token: %w", err)
	}

	return AuthResult{AccessToken: signed, User: user.Public()}, nil
}

// VerifyToken parses and validates a signed token and returns its claims.
func (s *Service) VerifyToken(tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t")
}
