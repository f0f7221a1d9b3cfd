package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, repo, "editor")

	if !strings.HasPrefix(user.ID, "usr-") {
		t.Errorf("generated ID = %q, want usr- prefix", user.ID)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "editor" {
		t.Errorf("Username = %q, want %q", got.Username, "editor")
	}
	if !got.IsActive {
		t.Error("IsActive = false, want true")
	}

	got, err = repo.GetByUsername(ctx, "editor")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("ID = %q, want %q", got.ID, user.ID)
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "usr-missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, repo, "editor")

	dup := &User{Username: "editor", PasswordHash: "x", IsActive: true}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("Create() duplicate error = %v, want ErrUsernameExists", err)
	}
}

func TestUserRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, repo, "editor")
	user.Email = "updated@zafiri.go.tz"
	user.PictureURL = "/media/avatars/editor.png"
	user.IsActive = false

	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != "updated@zafiri.go.tz" {
		t.Errorf("Email = %q, want updated value", got.Email)
	}
	if got.PictureURL != "/media/avatars/editor.png" {
		t.Errorf("PictureURL = %q, want updated value", got.PictureURL)
	}
	if got.IsActive {
		t.Error("IsActive = true, want false after update")
	}
}

func TestUserRepository_UpdateMissing(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	ghost := &User{ID: "usr-ghost", Username: "ghost"}
	if err := repo.Update(context.Background(), ghost); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Update() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, repo, "editor")

	newHash, err := HashPassword("new-password-456")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if err := repo.UpdatePassword(ctx, user.ID, newHash); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if ok, _ := VerifyPassword("new-password-456", got.PasswordHash); !ok {
		t.Error("new password does not verify after UpdatePassword")
	}
	if ok, _ := VerifyPassword("test-password-123", got.PasswordHash); ok {
		t.Error("old password still verifies after UpdatePassword")
	}
}

func TestUserRepository_Count(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}

	createTestUser(t, repo, "one")
	createTestUser(t, repo, "two")

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}
