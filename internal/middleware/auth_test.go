package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/fintrack/internal/auth"
	"github.com/hitoshi/fintrack/internal/model"
)

// --- モック ---

type mockUserFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}

var testSecret = []byte("test-secret")

// decodeErrorCode はレスポンスボディの `{"error":{"code":...}}` からコードを取り出す。
func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error.Code
}

func activeUserFinder(user *model.User) *mockUserFinder {
	return &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return user, nil
		},
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "user-1", Role: model.RoleUser, IsActive: true}
	mw := NewAuthMiddleware(activeUserFinder(user), testSecret)

	var gotUser *model.User
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, err := auth.GenerateToken("user-1", model.RoleUser, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUser == nil || gotUser.ID != "user-1" {
		t.Errorf("context user = %+v, want user-1", gotUser)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(activeUserFinder(nil), testSecret)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, rec); code != model.ErrCodeTokenRequired {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeTokenRequired)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(activeUserFinder(nil), testSecret)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, rec); code != model.ErrCodeInvalidToken {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeInvalidToken)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(activeUserFinder(nil), testSecret)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	token, err := auth.GenerateToken("user-1", model.RoleUser, testSecret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, rec); code != model.ErrCodeTokenExpired {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeTokenExpired)
	}
}

// TestAuthMiddleware_DeletedUser はトークンが有効でもユーザーが存在しなければ
// 拒否されることを検証する。クレームの内容よりDBの現在の状態が優先される。
func TestAuthMiddleware_DeletedUser(t *testing.T) {
	t.Parallel()

	finder := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	mw := NewAuthMiddleware(finder, testSecret)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	token, err := auth.GenerateToken("user-1", model.RoleUser, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, rec); code != model.ErrCodeUserNotFound {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeUserNotFound)
	}
}

// TestAuthMiddleware_InactiveUser は発行済みトークンを持つ無効化済みアカウントが
// 即座に遮断されることを検証する。
func TestAuthMiddleware_InactiveUser(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "user-1", Role: model.RoleUser, IsActive: false}
	mw := NewAuthMiddleware(activeUserFinder(user), testSecret)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	token, err := auth.GenerateToken("user-1", model.RoleUser, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if code := decodeErrorCode(t, rec); code != model.ErrCodeAccountInactive {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeAccountInactive)
	}
}

func TestAuthMiddleware_RepositoryError(t *testing.T) {
	t.Parallel()

	finder := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	mw := NewAuthMiddleware(finder, testSecret)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	token, err := auth.GenerateToken("user-1", model.RoleUser, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
