package users_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"reelbase/internal/database"
	"reelbase/models"
	"reelbase/services/auth"
	"reelbase/services/users"
)

func newService(t *testing.T) *users.Service {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return users.NewService(database.NewUserRepository(db.Connection()), bcrypt.MinCost)
}

func TestCreateDefaultsAndConflict(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, users.CreateInput{
		FirstName: "Carol",
		LastName:  "Admin",
		Email:     "Carol@Example.com",
		Password:  "Sup3r!secret",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("default role should be user, got %q", user.Role)
	}
	if user.Email != "carol@example.com" {
		t.Fatalf("email should be normalized, got %q", user.Email)
	}

	_, err = svc.Create(ctx, users.CreateInput{
		FirstName: "Other",
		LastName:  "Carol",
		Email:     "carol@example.com",
		Password:  "Sup3r!secret",
	})
	if !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateRejectsWeakPasswordAndBadRole(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, users.CreateInput{
		FirstName: "Carol", LastName: "Admin", Email: "c@x.com", Password: "password",
	})
	if !errors.Is(err, auth.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	_, err = svc.Create(ctx, users.CreateInput{
		FirstName: "Carol", LastName: "Admin", Email: "c@x.com", Password: "Sup3r!secret", Role: "superuser",
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestUpdatePartial(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, users.CreateInput{
		FirstName: "Carol", LastName: "Admin", Email: "carol@x.com", Password: "Sup3r!secret",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first := "Caroline"
	admin := models.RoleAdmin
	updated, err := svc.Update(ctx, created.ID, users.UpdateInput{FirstName: &first, Role: &admin})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "Caroline" || updated.Role != models.RoleAdmin {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.LastName != "Admin" || updated.Email != "carol@x.com" {
		t.Fatalf("unset fields changed: %+v", updated)
	}
}

func TestUpdateEmailConflict(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, users.CreateInput{
		FirstName: "Carol", LastName: "Admin", Email: "carol@x.com", Password: "Sup3r!secret",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	dave, err := svc.Create(ctx, users.CreateInput{
		FirstName: "Dave", LastName: "User", Email: "dave@x.com", Password: "Sup3r!secret",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	taken := "carol@x.com"
	if _, err := svc.Update(ctx, dave.ID, users.UpdateInput{Email: &taken}); !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, users.CreateInput{
		FirstName: "Carol", LastName: "Admin", Email: "carol@x.com", Password: "Sup3r!secret",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.ChangePassword(ctx, created.ID, "wrong-guess", "N3w!password"); !errors.Is(err, users.ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := svc.ChangePassword(ctx, created.ID, "Sup3r!secret", "weak"); !errors.Is(err, auth.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := svc.ChangePassword(ctx, created.ID, "Sup3r!secret", "N3w!password"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	// The new password is the only one that verifies now.
	if err := svc.ChangePassword(ctx, created.ID, "Sup3r!secret", "An0ther!pass"); !errors.Is(err, users.ErrWrongPassword) {
		t.Fatalf("old password should no longer verify, got %v", err)
	}
	if err := svc.ChangePassword(ctx, created.ID, "N3w!password", "An0ther!pass"); err != nil {
		t.Fatalf("change with new password: %v", err)
	}
}

func TestDeleteHidesAccount(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, users.CreateInput{
		FirstName: "Carol", LastName: "Admin", Email: "carol@x.com", Password: "Sup3r!secret",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}
