package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type memoryUserStore struct {
	users map[string]models.User
}

func newMemoryUserStore(users ...models.User) *memoryUserStore {
	store := &memoryUserStore{users: make(map[string]models.User)}
	for _, user := range users {
		store.users[user.ID] = user
	}
	return store
}

func (s *memoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memoryUserStore) UpdateRefreshToken(_ context.Context, id, token string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[id] = user
	return nil
}

func (s *memoryUserStore) SwapRefreshToken(_ context.Context, id, old, new string) error {
	user, ok := s.users[id]
	if !ok || user.RefreshToken != old {
		return repositories.ErrNotFound
	}
	user.RefreshToken = new
	s.users[id] = user
	return nil
}

func testUser() models.User {
	return models.User{
		ID:       "user-1",
		UserName: "ada",
		Email:    "ada@example.com",
		FullName: "Ada Lovelace",
	}
}

func TestManagerIssueStoresRefreshToken(t *testing.T) {
	store := newMemoryUserStore(testUser())
	manager := NewManager(store, "access-secret", "refresh-secret", time.Minute, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}
	if tokens.AccessToken == tokens.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	if store.users["user-1"].RefreshToken != tokens.RefreshToken {
		t.Fatal("expected refresh token to be stored on the user record")
	}

	identity, err := manager.VerifyAccess(tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if identity.ID != "user-1" || identity.Email != "ada@example.com" || identity.UserName != "ada" || identity.FullName != "Ada Lovelace" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager := NewManager(newMemoryUserStore(), "a", "r", time.Minute, time.Hour)

	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}

	_, err := manager.Issue(context.Background(), "missing")
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Status != 404 {
		t.Fatalf("expected 404 for unknown user, got %v", err)
	}
}

func TestManagerIssueOverwritesPreviousSession(t *testing.T) {
	store := newMemoryUserStore(testUser())
	manager := NewManager(store, "access-secret", "refresh-secret", time.Minute, time.Hour)

	first, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}

	second, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if _, err := manager.Rotate(context.Background(), first.RefreshToken); err == nil {
		t.Fatal("expected rotation with the superseded token to fail")
	}

	if _, err := manager.Rotate(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("rotate with current token: %v", err)
	}
}

func TestManagerRotateInvalidatesUsedToken(t *testing.T) {
	store := newMemoryUserStore(testUser())
	manager := NewManager(store, "access-secret", "refresh-secret", time.Minute, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rotated, err := manager.Rotate(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected a new refresh token")
	}
	if store.users["user-1"].RefreshToken != rotated.RefreshToken {
		t.Fatal("expected rotated token to replace the stored one")
	}

	_, err = manager.Rotate(context.Background(), tokens.RefreshToken)
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Status != 401 {
		t.Fatalf("expected 401 reusing a rotated token, got %v", err)
	}
}

func TestManagerRotateFailures(t *testing.T) {
	store := newMemoryUserStore(testUser())
	manager := NewManager(store, "access-secret", "refresh-secret", time.Minute, time.Hour)

	cases := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
	}
	for _, tc := range cases {
		_, err := manager.Rotate(context.Background(), tc.token)
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) || appErr.Status != 401 {
			t.Fatalf("%s: expected 401, got %v", tc.name, err)
		}
	}

	// An access token presented as a refresh token is signed with the wrong
	// secret and must be rejected.
	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := manager.Rotate(context.Background(), tokens.AccessToken); err == nil {
		t.Fatal("expected access token to be rejected as refresh token")
	}
}

func TestManagerRotateExpiredToken(t *testing.T) {
	store := newMemoryUserStore(testUser())
	manager := NewManager(store, "access-secret", "refresh-secret", time.Minute, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }

	_, err = manager.Rotate(context.Background(), tokens.RefreshToken)
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Status != 401 {
		t.Fatalf("expected 401 for expired refresh token, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	store := newMemoryUserStore(testUser())
	manager := NewManager(store, "access-secret", "refresh-secret", time.Minute, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := manager.Revoke(context.Background(), "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if store.users["user-1"].RefreshToken != "" {
		t.Fatal("expected stored refresh token to be cleared")
	}

	if _, err := manager.Rotate(context.Background(), tokens.RefreshToken); err == nil {
		t.Fatal("expected rotation after revoke to fail")
	}
}

func TestManagerVerifyAccessRejectsRefreshToken(t *testing.T) {
	store := newMemoryUserStore(testUser())
	manager := NewManager(store, "access-secret", "refresh-secret", time.Minute, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := manager.VerifyAccess(tokens.RefreshToken); err == nil {
		t.Fatal("expected refresh token to fail access verification")
	}

	if _, err := manager.VerifyAccess(""); err == nil {
		t.Fatal("expected empty token to fail verification")
	}
}
