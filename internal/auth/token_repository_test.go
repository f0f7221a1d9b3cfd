package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestToken(userID string, expiresIn time.Duration) (*RefreshToken, string) {
	raw, _ := GenerateRefreshToken() //nolint:errcheck // crypto/rand does not fail in tests
	return &RefreshToken{
		UserID:    userID,
		TokenHash: HashToken(raw),
		ExpiresAt: time.Now().Add(expiresIn),
	}, raw
}

func TestTokenRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	users := NewUserRepository(db)
	tokens := NewTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, users, "editor")
	token, raw := newTestToken(user.ID, time.Hour)

	if err := tokens.Create(ctx, token); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if token.ID == "" {
		t.Error("Create() did not generate an ID")
	}
	if token.FamilyID == "" {
		t.Error("Create() did not generate a family ID")
	}

	got, err := tokens.GetByTokenHash(ctx, HashToken(raw))
	if err != nil {
		t.Fatalf("GetByTokenHash() error = %v", err)
	}
	if got.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", got.UserID, user.ID)
	}
	if got.Revoked {
		t.Error("Revoked = true for a freshly created token")
	}
}

func TestTokenRepository_GetMissing(t *testing.T) {
	db := testDB(t)
	tokens := NewTokenRepository(db)

	_, err := tokens.GetByTokenHash(context.Background(), HashToken("never-issued"))
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("GetByTokenHash() error = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenRepository_Rotate(t *testing.T) {
	db := testDB(t)
	users := NewUserRepository(db)
	tokens := NewTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, users, "editor")
	old, oldRaw := newTestToken(user.ID, time.Hour)
	if err := tokens.Create(ctx, old); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	next, nextRaw := newTestToken(user.ID, time.Hour)
	next.FamilyID = old.FamilyID
	if err := tokens.Rotate(ctx, old.ID, next); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	// Old token must be revoked
	gotOld, err := tokens.GetByTokenHash(ctx, HashToken(oldRaw))
	if err != nil {
		t.Fatalf("GetByTokenHash(old) error = %v", err)
	}
	if !gotOld.Revoked {
		t.Error("old token not revoked after rotation")
	}

	// New token is live and shares the family
	gotNext, err := tokens.GetByTokenHash(ctx, HashToken(nextRaw))
	if err != nil {
		t.Fatalf("GetByTokenHash(next) error = %v", err)
	}
	if gotNext.Revoked {
		t.Error("new token revoked after rotation")
	}
	if gotNext.FamilyID != old.FamilyID {
		t.Errorf("FamilyID = %q, want %q", gotNext.FamilyID, old.FamilyID)
	}
}

func TestTokenRepository_RevokeFamily(t *testing.T) {
	db := testDB(t)
	users := NewUserRepository(db)
	tokens := NewTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, users, "editor")

	first, firstRaw := newTestToken(user.ID, time.Hour)
	if err := tokens.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, secondRaw := newTestToken(user.ID, time.Hour)
	second.FamilyID = first.FamilyID
	if err := tokens.Create(ctx, second); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A token in a different family stays live
	other, otherRaw := newTestToken(user.ID, time.Hour)
	if err := tokens.Create(ctx, other); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := tokens.RevokeFamily(ctx, first.FamilyID); err != nil {
		t.Fatalf("RevokeFamily() error = %v", err)
	}

	for _, raw := range []string{firstRaw, secondRaw} {
		got, err := tokens.GetByTokenHash(ctx, HashToken(raw))
		if err != nil {
			t.Fatalf("GetByTokenHash() error = %v", err)
		}
		if !got.Revoked {
			t.Error("family member not revoked")
		}
	}

	got, err := tokens.GetByTokenHash(ctx, HashToken(otherRaw))
	if err != nil {
		t.Fatalf("GetByTokenHash(other) error = %v", err)
	}
	if got.Revoked {
		t.Error("token outside the family was revoked")
	}
}

func TestTokenRepository_RevokeAllForUser(t *testing.T) {
	db := testDB(t)
	users := NewUserRepository(db)
	tokens := NewTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, users, "editor")
	other := createTestUser(t, users, "other")

	mine, mineRaw := newTestToken(user.ID, time.Hour)
	if err := tokens.Create(ctx, mine); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	theirs, theirsRaw := newTestToken(other.ID, time.Hour)
	if err := tokens.Create(ctx, theirs); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		t.Fatalf("RevokeAllForUser() error = %v", err)
	}

	got, err := tokens.GetByTokenHash(ctx, HashToken(mineRaw))
	if err != nil {
		t.Fatalf("GetByTokenHash(mine) error = %v", err)
	}
	if !got.Revoked {
		t.Error("user's token not revoked")
	}

	got, err = tokens.GetByTokenHash(ctx, HashToken(theirsRaw))
	if err != nil {
		t.Fatalf("GetByTokenHash(theirs) error = %v", err)
	}
	if got.Revoked {
		t.Error("other user's token revoked")
	}
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	db := testDB(t)
	users := NewUserRepository(db)
	tokens := NewTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, users, "editor")

	expired, _ := newTestToken(user.ID, -time.Hour)
	if err := tokens.Create(ctx, expired); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	live, liveRaw := newTestToken(user.ID, time.Hour)
	if err := tokens.Create(ctx, live); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	deleted, err := tokens.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", deleted)
	}

	if _, err := tokens.GetByTokenHash(ctx, HashToken(liveRaw)); err != nil {
		t.Errorf("live token removed by DeleteExpired: %v", err)
	}
}
