package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fintrack/internal/middleware"
	"github.com/hitoshi/fintrack/internal/model"
)

// --- テストヘルパー ---

// withUser はテスト用にリクエストコンテキストへ認証済みユーザーを注入する。
func withUser(r *http.Request, user *model.User) *http.Request {
	return r.WithContext(middleware.ContextWithUser(r.Context(), user))
}

// withChiURLParam はテスト用にchiのURLパラメータを注入する。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// demoUser は一般デモユーザーのテストフィクスチャを返す。
func demoUser() *model.User {
	return &model.User{
		ID:        "user-1",
		Email:     "demo@financetracker.com",
		FirstName: "Demo",
		LastName:  "User",
		Role:      model.RoleUser,
		IsActive:  true,
	}
}

// adminUser はスーパー管理者のテストフィクスチャを返す。
func adminUser() *model.User {
	return &model.User{
		ID:       "admin-1",
		Email:    "admin@financetracker.com",
		Role:     model.RoleSuperAdmin,
		IsActive: true,
	}
}

// decodeErrorCode はレスポンスボディの統一エラーフォーマットからコードを取り出す。
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

// decodeJSONBody はレスポンスボディを任意の型にデコードする。
func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}
