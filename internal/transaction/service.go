// Package transaction は取引のビジネスロジックを提供する。
// 作成時のAI自動分類、自然言語入力からの作成、所有者スコープのCRUDを含む。
package transaction

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/ai"
	"github.com/hitoshi/fintrack/internal/model"
	"github.com/hitoshi/fintrack/internal/repository"
)

// AIAssistant は取引作成時のAI機能に必要なインターフェース。
// ai.Serviceの部分集合として定義する。
type AIAssistant interface {
	// Categorize はベストエフォートでカテゴリを推定する。失敗時はnil。
	Categorize(ctx context.Context, description string, amount decimal.Decimal, merchant string) *ai.CategorizeResult

	// ParseTransaction は自然言語入力を構造化する。
	ParseTransaction(ctx context.Context, input string) (*ai.ParsedTransaction, error)
}

// Service は取引のビジネスロジックを提供する。
type Service struct {
	repo   repository.TransactionRepository
	ai     AIAssistant
	logger *slog.Logger

	// now はテストで時刻を固定するために差し替え可能。
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.TransactionRepository, assistant AIAssistant, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		ai:     assistant,
		logger: logger,
		now:    time.Now,
	}
}

// CreateInput は取引作成の入力パラメータ。
type CreateInput struct {
	CategoryID       *string
	Amount           decimal.Decimal
	Type             model.TransactionType
	Description      string
	Merchant         string
	TransactionDate  time.Time // ゼロ値は今日として扱う
	PaymentMethod    string
	Notes            string
	IsRecurring      bool
	RecurringPattern string
}

// validate は作成入力の妥当性を検証する。
func (in CreateInput) validate() error {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return model.NewValidationError("amount must be a positive number")
	}
	if !in.Type.Valid() {
		return model.NewValidationError("type must be income or expense")
	}
	if in.Description == "" {
		return model.NewValidationError("description is required")
	}
	return nil
}

// Create は取引を作成する。カテゴリが未指定の場合はAIによる自動分類を試みる。
// 分類が適用された取引はai_categorizedフラグつきで保存される。
// 自動分類の失敗は作成を妨げない（未分類のまま保存される）。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Transaction, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	date := input.TransactionDate
	if date.IsZero() {
		date = s.now()
	}

	tx := &model.Transaction{
		UserID:           userID,
		CategoryID:       input.CategoryID,
		Amount:           input.Amount,
		Type:             input.Type,
		Description:      input.Description,
		Merchant:         input.Merchant,
		TransactionDate:  date,
		PaymentMethod:    input.PaymentMethod,
		Notes:            input.Notes,
		IsRecurring:      input.IsRecurring,
		RecurringPattern: input.RecurringPattern,
	}

	// カテゴリ未指定ならAIで推定する
	if tx.CategoryID == nil {
		if result := s.ai.Categorize(ctx, input.Description, input.Amount, input.Merchant); result != nil {
			tx.CategoryID = &result.CategoryID
			tx.AICategorized = true
			s.logger.Info("transaction auto-categorized",
				slog.String("user_id", userID),
				slog.String("category_id", result.CategoryID),
				slog.Float64("confidence", result.Confidence),
			)
		}
	}

	return s.repo.Create(ctx, tx)
}

// CreateFromText は自然言語入力を構造化して取引を作成する。
// 構造化に失敗した場合はAIエラーがそのまま返る。
func (s *Service) CreateFromText(ctx context.Context, userID, input string) (*model.Transaction, error) {
	if input == "" {
		return nil, model.NewValidationError("input text is required")
	}

	parsed, err := s.ai.ParseTransaction(ctx, input)
	if err != nil {
		return nil, err
	}

	description := parsed.Description
	if description == "" {
		description = input
	}

	return s.Create(ctx, userID, CreateInput{
		Amount:          parsed.Amount,
		Type:            parsed.Type,
		Description:     description,
		Merchant:        parsed.Merchant,
		TransactionDate: parsed.Date,
	})
}

// List は所有者の取引一覧をフィルタ付きで返す。
func (s *Service) List(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.TransactionWithCategory, error) {
	return s.repo.List(ctx, userID, filter)
}

// Get は所有者スコープで取引を取得する。見つからない場合はNOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.TransactionWithCategory, error) {
	tx, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, model.NewNotFoundError("Transaction")
	}
	return tx, nil
}

// Update は所有者スコープで取引を部分更新する。
// 指定されたフィールドだけが検証・更新され、nilフィールドは既存値を維持する。
func (s *Service) Update(ctx context.Context, userID, id string, update repository.TransactionUpdate) (*model.Transaction, error) {
	if update.Amount != nil && update.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, model.NewValidationError("amount must be a positive number")
	}
	if update.Type != nil && !update.Type.Valid() {
		return nil, model.NewValidationError("type must be income or expense")
	}

	tx, err := s.repo.Update(ctx, userID, id, update)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, model.NewNotFoundError("Transaction")
	}
	return tx, nil
}

// Delete は所有者スコープで取引を削除する。見つからない場合はNOT_FOUNDエラーを返す。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewNotFoundError("Transaction")
	}
	return nil
}

// Stats は所有者の取引統計を返す。期間は任意で指定できる。
func (s *Service) Stats(ctx context.Context, userID string, startDate, endDate *time.Time) (*model.TransactionStats, error) {
	return s.repo.Stats(ctx, userID, startDate, endDate)
}
