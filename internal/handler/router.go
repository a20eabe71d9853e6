package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fintrack/internal/middleware"
	"github.com/hitoshi/fintrack/internal/model"
	"github.com/hitoshi/fintrack/internal/repository"
)

// Pinger はヘルスチェックに必要なデータベース接続のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	UserFinder        middleware.UserFinder
	JWTSecret         []byte
	QuotaCounter      middleware.TransactionCounter
	QuotaSettings     middleware.SettingReader
	QuotaMetrics      middleware.QuotaMetrics
	HTTPMetrics       middleware.HTTPMetrics
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 公開エンドポイント
	MetricsHandler http.Handler
	DB             Pinger

	// サービス
	AuthService        AuthServiceInterface
	ProfileUpdater     ProfileUpdater
	TransactionService TransactionServiceInterface
	Budgets            BudgetStore
	Goals              GoalStore
	AIService          AIServiceInterface
	DemoService        DemoServiceInterface

	// 管理API
	Instructions InstructionStore
	Settings     SettingStore
	Categories   CategoryStore
	AdminConfig  repository.AdminConfigRepository
	Users        UserDirectory
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Logging → (認証ルートのみ) Auth → RateLimit → Role
//
// /health、/metrics、POST /api/auth/login は認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.ProfileUpdater)
	txHandler := NewTransactionHandler(deps.TransactionService)
	categoryHandler := NewCategoryHandler(deps.Categories)
	budgetHandler := NewBudgetHandler(deps.Budgets)
	goalHandler := NewGoalHandler(deps.Goals)
	aiHandler := NewAIHandler(deps.AIService)
	demoHandler := NewDemoHandler(deps.DemoService)
	adminHandler := NewAdminHandler(deps.Instructions, deps.Settings, deps.Categories, deps.AdminConfig, deps.Users)

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Post("/api/auth/login", authHandler.Login)

	// --- 認証が必要なルート ---

	auth := middleware.NewAuthMiddleware(deps.UserFinder, deps.JWTSecret)
	quota := middleware.NewQuotaMiddleware(deps.QuotaCounter, deps.QuotaSettings, deps.QuotaMetrics)
	userOnly := middleware.NewRoleMiddleware(model.RoleUser)
	adminOnly := middleware.NewRoleMiddleware(model.RoleSuperAdmin)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 両ロール共通
		r.Get("/api/auth/me", authHandler.Me)
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/profile", userHandler.GetProfile)
			r.Put("/profile", userHandler.UpdateProfile)
		})

		// 家計データ・AI・デモ操作は user ロール専用
		r.Group(func(r chi.Router) {
			r.Use(userOnly)

			r.Route("/api/transactions", func(r chi.Router) {
				r.Get("/", txHandler.List)
				r.Get("/stats", txHandler.Stats)

				// 取引を作成するエンドポイントのみクォータを通す
				r.With(quota).Post("/", txHandler.Create)
				r.With(quota).Post("/natural-language", txHandler.CreateFromText)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", txHandler.Get)
					r.Put("/", txHandler.Update)
					r.Delete("/", txHandler.Delete)
				})
			})

			r.Get("/api/categories", categoryHandler.List)

			r.Route("/api/budgets", func(r chi.Router) {
				r.Get("/", budgetHandler.List)
				r.Post("/", budgetHandler.Create)
			})

			r.Route("/api/goals", func(r chi.Router) {
				r.Get("/", goalHandler.List)
				r.Post("/", goalHandler.Create)
			})

			r.Route("/api/ai", func(r chi.Router) {
				r.Use(deps.RateLimiter.AIMiddleware())
				r.Post("/chat", aiHandler.Chat)
				r.Post("/budget-recommendations", aiHandler.BudgetRecommendations)
				r.Get("/spending-analysis", aiHandler.SpendingAnalysis)
			})

			r.Route("/api/demo", func(r chi.Router) {
				r.Get("/stats", demoHandler.Stats)
				r.Delete("/reset", demoHandler.Reset)
			})
		})

		// 管理APIは super_admin 専用
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(adminOnly)

			r.Route("/ai-instructions", func(r chi.Router) {
				r.Get("/", adminHandler.ListInstructions)
				r.Post("/", adminHandler.CreateInstruction)
				r.Post("/reset", adminHandler.ResetInstructions)
				r.Put("/{id}", adminHandler.UpdateInstruction)
				r.Delete("/{id}", adminHandler.DeleteInstruction)
			})

			r.Get("/settings", adminHandler.ListSettings)
			r.Put("/settings", adminHandler.UpdateSetting)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", adminHandler.ListCategories)
				r.Post("/", adminHandler.CreateCategory)
				r.Put("/{id}", adminHandler.UpdateCategory)
			})

			r.Route("/category-rules", func(r chi.Router) {
				r.Get("/", adminHandler.ListCategoryRules)
				r.Post("/", adminHandler.CreateCategoryRule)
			})

			r.Route("/budget-templates", func(r chi.Router) {
				r.Get("/", adminHandler.ListBudgetTemplates)
				r.Post("/", adminHandler.CreateBudgetTemplate)
			})

			r.Route("/ai-prompts", func(r chi.Router) {
				r.Get("/", adminHandler.ListAIPrompts)
				r.Post("/", adminHandler.CreateAIPrompt)
			})

			r.Get("/users", adminHandler.ListUsers)
			r.Put("/users/{id}/role", adminHandler.UpdateUserRole)
		})
	})

	return r
}

// newHealthHandler はヘルスチェックのハンドラーを返す。
// データベースへの疎通が取れない場合は503を返す。
func newHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
