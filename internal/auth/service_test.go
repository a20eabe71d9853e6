package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/fintrack/internal/model"
)

// --- モック ---

type mockUserFinder struct {
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserFinder) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findByEmailFn(ctx, email)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt hash error: %v", err)
	}
	return string(h)
}

func newTestService(finder UserFinder) *Service {
	return NewService(finder, ServiceConfig{
		JWTSecret: []byte("test-secret"),
		TokenTTL:  time.Hour,
	})
}

// --- テスト ---

func TestService_Login_Success(t *testing.T) {
	t.Parallel()

	finder := &mockUserFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email != "demo@financetracker.com" {
				t.Errorf("email = %q, want %q", email, "demo@financetracker.com")
			}
			return &model.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: mustHash(t, "demo123"),
				Role:         model.RoleUser,
				IsActive:     true,
			}, nil
		},
	}

	svc := newTestService(finder)

	user, token, err := svc.Login(context.Background(), "demo@financetracker.com", "demo123")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-1")
	}
	if token == "" {
		t.Error("token should not be empty")
	}

	// 発行されたトークンにIDと役割が埋め込まれていること
	claims, err := ParseToken(token, []byte("test-secret"))
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != model.RoleUser {
		t.Errorf("claims = {%q %q}, want {user-1 user}", claims.UserID, claims.Role)
	}
}

// TestService_Login_UnknownEmail は未登録メールがInvalidCredentialsになることを検証する。
// NotFoundを返すとアカウントの存在有無が漏れるため、エラーコードを区別しない。
func TestService_Login_UnknownEmail(t *testing.T) {
	t.Parallel()

	finder := &mockUserFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	}

	svc := newTestService(finder)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("err = %v, want INVALID_CREDENTIALS", err)
	}
}

func TestService_Login_WrongPassword(t *testing.T) {
	t.Parallel()

	finder := &mockUserFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: mustHash(t, "correct-password"),
				Role:         model.RoleUser,
				IsActive:     true,
			}, nil
		},
	}

	svc := newTestService(finder)

	_, _, err := svc.Login(context.Background(), "demo@financetracker.com", "wrong-password")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("err = %v, want INVALID_CREDENTIALS", err)
	}
}

func TestService_Login_InactiveAccount(t *testing.T) {
	t.Parallel()

	finder := &mockUserFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: mustHash(t, "demo123"),
				Role:         model.RoleUser,
				IsActive:     false,
			}, nil
		},
	}

	svc := newTestService(finder)

	_, _, err := svc.Login(context.Background(), "demo@financetracker.com", "demo123")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAccountInactive {
		t.Fatalf("err = %v, want ACCOUNT_INACTIVE", err)
	}
}

func TestService_Login_RepositoryError(t *testing.T) {
	t.Parallel()

	finder := &mockUserFinder{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}

	svc := newTestService(finder)

	_, _, err := svc.Login(context.Background(), "demo@financetracker.com", "demo123")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("infrastructure error should not map to APIError, got %v", apiErr)
	}
}
