package auth_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelbase/config"
	"reelbase/internal/database"
	"reelbase/models"
	"reelbase/services/auth"
)

type fakeUserStore struct {
	byID    map[string]models.User
	byEmail map[string]models.User
	nextID  int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[string]models.User{}, byEmail: map[string]models.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, u *models.User) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := f.byEmail[email]; exists {
		return database.ErrConflict
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	u.Email = email
	u.IsActive = true
	f.byID[u.ID] = *u
	f.byEmail[email] = *u
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := f.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) deactivate(id string) {
	u := f.byID[id]
	u.IsActive = false
	f.byID[id] = u
	f.byEmail[u.Email] = u
}

func newTestService(store *fakeUserStore) *auth.Service {
	return auth.NewService(store, config.AuthSettings{
		JWTSecret:     "test-secret",
		TokenTTLHours: 1,
		BcryptCost:    4, // MinCost keeps the tests fast
	})
}

func validInput() auth.RegisterInput {
	return auth.RegisterInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Password:  "Sup3r$ecret",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	result, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "jane@example.com", result.User.Email)
	assert.Equal(t, models.RoleUser, result.User.Role)

	login, err := svc.Login(ctx, "jane@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)

	claims, err := svc.VerifyToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, string(models.RoleUser), claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validInput())
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(newFakeUserStore())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*auth.RegisterInput)
	}{
		{"short first name", func(in *auth.RegisterInput) { in.FirstName = "J" }},
		{"missing last name", func(in *auth.RegisterInput) { in.LastName = " " }},
		{"bad email", func(in *auth.RegisterInput) { in.Email = "not-an-email" }},
		{"weak password", func(in *auth.RegisterInput) { in.Password = "alllowercase1!" }},
		{"short password", func(in *auth.RegisterInput) { in.Password = "Ab1!" }},
		{"oversized password", func(in *auth.RegisterInput) { in.Password = "Ab1!" + strings.Repeat("x", 130) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Register(ctx, in)
			assert.Error(t, err)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "nobody@example.com", "Sup3r$ecret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "jane@example.com", "WrongPass1!")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	store.deactivate(registered.User.ID)
	_, err = svc.Login(ctx, "jane@example.com", "Sup3r$ecret")
	assert.ErrorIs(t, err, auth.ErrAccountDisabled)
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	result, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.VerifyToken(result.AccessToken + "x")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	other := auth.NewService(store, config.AuthSettings{JWTSecret: "different", TokenTTLHours: 1, BcryptCost: 4})
	_, err = other.VerifyToken(result.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefreshRequiresActiveAccount(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	result, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, result.User.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	store.deactivate(result.User.ID)
	_, err = svc.Refresh(ctx, result.User.ID)
	assert.ErrorIs(t, err, auth.ErrAccountDisabled)
}

func TestValidatePassword(t *testing.T) {
	valid := []string{"Sup3r$ecret", "Aa1!aaaa", "pa55Word#"}
	for _, p := range valid {
		assert.NoError(t, auth.ValidatePassword(p), p)
	}

	invalid := []string{"", "Sh0rt!a", "nouppercase1!", "NOLOWERCASE1!", "NoDigits!!", "NoSymbols11"}
	for _, p := range invalid {
		assert.ErrorIs(t, auth.ValidatePassword(p), auth.ErrWeakPassword, p)
	}
}
