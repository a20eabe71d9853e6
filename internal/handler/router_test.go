package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/fintrack/internal/auth"
	"github.com/hitoshi/fintrack/internal/middleware"
	"github.com/hitoshi/fintrack/internal/model"
)

// newTestRateLimiter はテスト終了時に停止されるレートリミッターを返す。
func newTestRateLimiter(t *testing.T) *middleware.RateLimiter {
	t.Helper()
	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(120, 20))
	t.Cleanup(rl.Stop)
	return rl
}

// --- ルーターテスト用モック ---

type mockUserFinder struct {
	users map[string]*model.User
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}

type mockQuotaCounter struct {
	count int
}

func (m *mockQuotaCounter) CountByUserID(ctx context.Context, userID string) (int, error) {
	return m.count, nil
}

type mockQuotaSettings struct{}

func (m *mockQuotaSettings) Get(ctx context.Context, key string) (string, error) {
	return "", nil
}

type mockBudgetStore struct{}

func (m *mockBudgetStore) ListByUserID(ctx context.Context, userID string) ([]*model.BudgetWithCategory, error) {
	return nil, nil
}

func (m *mockBudgetStore) Create(ctx context.Context, budget *model.Budget) (*model.Budget, error) {
	return budget, nil
}

type mockGoalStore struct{}

func (m *mockGoalStore) ListByUserID(ctx context.Context, userID string) ([]*model.Goal, error) {
	return nil, nil
}

func (m *mockGoalStore) Create(ctx context.Context, goal *model.Goal) (*model.Goal, error) {
	return goal, nil
}

var routerTestSecret = []byte("router-test-secret")

// newTestRouter はロールマトリクス検証用のルーターを組み立てる。
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	categories := &mockCategoryStore{
		listFn: func(ctx context.Context) ([]*model.Category, error) {
			return []*model.Category{{ID: "cat-1", Name: "Food & Dining", Type: model.TransactionTypeExpense}}, nil
		},
	}
	settings := &mockSettingStore{
		listFn: func(ctx context.Context) ([]*model.AdminSetting, error) {
			return nil, nil
		},
	}

	deps := &RouterDeps{
		Logger: logger,
		UserFinder: &mockUserFinder{users: map[string]*model.User{
			"user-1":  demoUser(),
			"admin-1": adminUser(),
		}},
		JWTSecret:          routerTestSecret,
		QuotaCounter:       &mockQuotaCounter{},
		QuotaSettings:      &mockQuotaSettings{},
		CORSAllowedOrigin:  "http://localhost:5173",
		RateLimiter:        newTestRateLimiter(t),
		AuthService:        &mockAuthService{},
		ProfileUpdater:     &mockProfileUpdater{},
		TransactionService: &mockTransactionService{},
		Budgets:            &mockBudgetStore{},
		Goals:              &mockGoalStore{},
		AIService:          &mockAIService{},
		DemoService:        &mockDemoService{},
		Instructions:       &mockInstructionStore{},
		Settings:           settings,
		Categories:         categories,
		AdminConfig:        &mockAdminConfigRepo{},
		Users:              &mockUserDirectory{},
	}
	return NewRouter(deps)
}

func bearerRequest(t *testing.T, method, target, userID string, role model.Role) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken(userID, role, routerTestSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// --- テスト ---

func TestRouter_HealthIsPublic(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestRouter_RoleMatrix は家計データが user 専用、管理APIが
// super_admin 専用であることを検証する。
func TestRouter_RoleMatrix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		userID string
		role   model.Role
		want   int
	}{
		{"user can read categories", "/api/categories", "user-1", model.RoleUser, http.StatusOK},
		{"admin cannot read categories", "/api/categories", "admin-1", model.RoleSuperAdmin, http.StatusForbidden},
		{"admin can read settings", "/api/admin/settings", "admin-1", model.RoleSuperAdmin, http.StatusOK},
		{"user cannot read settings", "/api/admin/settings", "user-1", model.RoleUser, http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(t)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, bearerRequest(t, http.MethodGet, tt.target, tt.userID, tt.role))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
