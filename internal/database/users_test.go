package database_test

import (
	"context"
	"errors"
	"testing"

	"reelbase/internal/database"
	"reelbase/models"
)

func TestUserEmailIsNormalizedAndUnique(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewUserRepository(db.Connection())
	ctx := context.Background()

	user := models.User{FirstName: "A", LastName: "B", Email: "  Upper@Example.COM ", PasswordHash: "h"}
	if err := repo.Create(ctx, &user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Email != "upper@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("default role should be user, got %q", user.Role)
	}

	dup := models.User{FirstName: "C", LastName: "D", Email: "UPPER@example.com", PasswordHash: "h"}
	if err := repo.Create(ctx, &dup); !errors.Is(err, database.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	found, err := repo.GetByEmail(ctx, "Upper@Example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("lookup returned wrong user")
	}
}

func TestUserUpdateAndPassword(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewUserRepository(db.Connection())
	ctx := context.Background()

	user := seedUser(t, db, "change@example.com")

	user.FirstName = "Changed"
	user.Role = models.RoleAdmin
	if err := repo.Update(ctx, &user); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FirstName != "Changed" || got.Role != models.RoleAdmin {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := repo.UpdatePassword(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	got, _ = repo.GetByID(ctx, user.ID)
	if got.PasswordHash != "new-hash" {
		t.Fatal("password hash not updated")
	}

	if err := repo.UpdatePassword(ctx, "missing", "x"); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserSoftDelete(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewUserRepository(db.Connection())
	ctx := context.Background()

	user := seedUser(t, db, "bye@example.com")
	if err := repo.SoftDelete(ctx, user.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, user.ID); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, total, err := repo.List(ctx, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 {
		t.Fatalf("deleted user still listed, total=%d", total)
	}
}

func TestUserList(t *testing.T) {
	db := openTestDB(t)
	repo := database.NewUserRepository(db.Connection())

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		seedUser(t, db, email)
	}

	page, total, err := repo.List(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("expected total=3 page len=2, got total=%d len=%d", total, len(page))
	}
}
