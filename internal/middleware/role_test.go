package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/fintrack/internal/model"
)

func TestRoleMiddleware_Allowed(t *testing.T) {
	t.Parallel()

	mw := NewRoleMiddleware(model.RoleSuperAdmin)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &model.User{
		ID:       "admin-1",
		Role:     model.RoleSuperAdmin,
		IsActive: true,
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRoleMiddleware_Forbidden(t *testing.T) {
	t.Parallel()

	mw := NewRoleMiddleware(model.RoleSuperAdmin)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &model.User{
		ID:       "user-1",
		Role:     model.RoleUser,
		IsActive: true,
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if code := decodeErrorCode(t, rec); code != model.ErrCodeInsufficientPermissions {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeInsufficientPermissions)
	}
}

func TestRoleMiddleware_Unauthenticated(t *testing.T) {
	t.Parallel()

	mw := NewRoleMiddleware(model.RoleUser)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
