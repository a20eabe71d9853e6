// Package app はアプリケーションの起動とワイヤリングを担当する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/fintrack/internal/ai"
	"github.com/hitoshi/fintrack/internal/auth"
	"github.com/hitoshi/fintrack/internal/config"
	"github.com/hitoshi/fintrack/internal/database"
	"github.com/hitoshi/fintrack/internal/demo"
	"github.com/hitoshi/fintrack/internal/handler"
	"github.com/hitoshi/fintrack/internal/logger"
	"github.com/hitoshi/fintrack/internal/metrics"
	"github.com/hitoshi/fintrack/internal/middleware"
	"github.com/hitoshi/fintrack/internal/model"
	"github.com/hitoshi/fintrack/internal/repository"
	"github.com/hitoshi/fintrack/internal/security"
	"github.com/hitoshi/fintrack/internal/transaction"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	txRepo := repository.NewPostgresTransactionRepo(db)
	categoryRepo := repository.NewPostgresCategoryRepo(db)
	budgetRepo := repository.NewPostgresBudgetRepo(db)
	goalRepo := repository.NewPostgresGoalRepo(db)
	instructionRepo := repository.NewPostgresInstructionRepo(db)
	settingRepo := repository.NewPostgresSettingRepo(db)
	chatRepo := repository.NewPostgresChatRepo(db)
	demoRepo := repository.NewPostgresDemoRepo(db)
	adminConfigRepo := repository.NewPostgresAdminConfigRepo(db)

	// 3. メトリクスとセキュリティサービスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	sanitizer := security.NewContentSanitizer()

	// 4. ドメインサービスの初期化
	aiClient := ai.NewClient(&http.Client{}, slog.Default(), ai.ClientConfig{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.AITimeout,
	})
	aiService := ai.NewService(
		aiClient, instructionRepo, settingRepo, categoryRepo,
		txRepo, chatRepo, sanitizer, collector, slog.Default(),
	)

	authService := auth.NewService(userRepo, auth.ServiceConfig{
		JWTSecret: []byte(cfg.JWTSecret),
		TokenTTL:  cfg.TokenTTL,
	})

	txService := transaction.NewService(txRepo, aiService, slog.Default())
	demoService := demo.NewService(txRepo, settingRepo, demoRepo, slog.Default())

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAI),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		UserFinder:        userRepo,
		JWTSecret:         []byte(cfg.JWTSecret),
		QuotaCounter:      txRepo,
		QuotaSettings:     settingRepo,
		QuotaMetrics:      collector,
		HTTPMetrics:       collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		MetricsHandler: metrics.Handler(registry),
		DB:             db,

		AuthService:        authService,
		ProfileUpdater:     userRepo,
		TransactionService: txService,
		Budgets:            budgetRepo,
		Goals:              goalRepo,
		AIService:          aiService,
		DemoService:        demoService,

		Instructions: instructionRepo,
		Settings:     settingRepo,
		Categories:   categoryRepo,
		AdminConfig:  adminConfigRepo,
		Users:        userRepo,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // AI系エンドポイントは応答に時間がかかる
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed はデモユーザーとスーパー管理者を作成し、
// デモユーザーにサンプル取引を投入する。冪等で何度でも実行できる。
func runSeed(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	userRepo := repository.NewPostgresUserRepo(db)
	demoRepo := repository.NewPostgresDemoRepo(db)

	// 1. デモユーザーの作成
	demoHash, err := auth.HashPassword(cfg.DemoUserPassword)
	if err != nil {
		return fmt.Errorf("failed to hash demo user password: %w", err)
	}
	demoUser, err := userRepo.Upsert(ctx, &model.User{
		Email:        cfg.DemoUserEmail,
		PasswordHash: demoHash,
		FirstName:    "Demo",
		LastName:     "User",
		Role:         model.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}

	// 2. スーパー管理者の作成
	adminHash, err := auth.HashPassword(cfg.SuperAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash super admin password: %w", err)
	}
	admin, err := userRepo.Upsert(ctx, &model.User{
		Email:        cfg.SuperAdminEmail,
		PasswordHash: adminHash,
		FirstName:    "Super",
		LastName:     "Admin",
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to seed super admin: %w", err)
	}

	// 3. デモユーザーの取引をサンプルデータで初期化
	seeded, err := demoRepo.ResetUserData(ctx, demoUser.ID, demo.SampleTransactions(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to seed sample transactions: %w", err)
	}

	slog.Info("seed completed",
		slog.String("demo_user", demoUser.Email),
		slog.String("super_admin", admin.Email),
		slog.Int("transactions_seeded", seeded),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
