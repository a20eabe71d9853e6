package transaction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/ai"
	"github.com/hitoshi/fintrack/internal/model"
	"github.com/hitoshi/fintrack/internal/repository"
)

// --- モック ---

type mockTransactionRepo struct {
	createFn   func(ctx context.Context, tx *model.Transaction) (*model.Transaction, error)
	findByIDFn func(ctx context.Context, userID, id string) (*model.TransactionWithCategory, error)
	listFn     func(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.TransactionWithCategory, error)
	updateFn   func(ctx context.Context, userID, id string, update repository.TransactionUpdate) (*model.Transaction, error)
	deleteFn   func(ctx context.Context, userID, id string) (bool, error)
	statsFn    func(ctx context.Context, userID string, startDate, endDate *time.Time) (*model.TransactionStats, error)
}

func (m *mockTransactionRepo) Create(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	return m.createFn(ctx, tx)
}

func (m *mockTransactionRepo) FindByID(ctx context.Context, userID, id string) (*model.TransactionWithCategory, error) {
	return m.findByIDFn(ctx, userID, id)
}

func (m *mockTransactionRepo) List(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.TransactionWithCategory, error) {
	return m.listFn(ctx, userID, filter)
}

func (m *mockTransactionRepo) Update(ctx context.Context, userID, id string, update repository.TransactionUpdate) (*model.Transaction, error) {
	return m.updateFn(ctx, userID, id, update)
}

func (m *mockTransactionRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	return m.deleteFn(ctx, userID, id)
}

func (m *mockTransactionRepo) Stats(ctx context.Context, userID string, startDate, endDate *time.Time) (*model.TransactionStats, error) {
	return m.statsFn(ctx, userID, startDate, endDate)
}

func (m *mockTransactionRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (m *mockTransactionRepo) TypeTotalsSince(ctx context.Context, userID string, days int) ([]model.TypeTotal, error) {
	return nil, nil
}

func (m *mockTransactionRepo) SpendingByCategorySince(ctx context.Context, userID string, days int) ([]repository.SpendingByCategory, error) {
	return nil, nil
}

func (m *mockTransactionRepo) ExpensesSince(ctx context.Context, userID string, since time.Time) ([]repository.ExpenseRecord, error) {
	return nil, nil
}

type mockAIAssistant struct {
	categorizeFn func(ctx context.Context, description string, amount decimal.Decimal, merchant string) *ai.CategorizeResult
	parseFn      func(ctx context.Context, input string) (*ai.ParsedTransaction, error)
}

func (m *mockAIAssistant) Categorize(ctx context.Context, description string, amount decimal.Decimal, merchant string) *ai.CategorizeResult {
	if m.categorizeFn == nil {
		return nil
	}
	return m.categorizeFn(ctx, description, amount, merchant)
}

func (m *mockAIAssistant) ParseTransaction(ctx context.Context, input string) (*ai.ParsedTransaction, error) {
	return m.parseFn(ctx, input)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func echoCreate(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	created := *tx
	created.ID = "tx-1"
	return &created, nil
}

// --- テスト ---

func TestService_Create_AutoCategorize(t *testing.T) {
	t.Parallel()

	assistant := &mockAIAssistant{
		categorizeFn: func(ctx context.Context, description string, amount decimal.Decimal, merchant string) *ai.CategorizeResult {
			return &ai.CategorizeResult{CategoryID: "cat-groceries", Confidence: 0.9}
		},
	}
	svc := NewService(&mockTransactionRepo{createFn: echoCreate}, assistant, testLogger())

	created, err := svc.Create(context.Background(), "user-1", CreateInput{
		Amount:      decimal.NewFromFloat(45.50),
		Type:        model.TransactionTypeExpense,
		Description: "Weekly shop",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.CategoryID == nil || *created.CategoryID != "cat-groceries" {
		t.Errorf("CategoryID = %v, want cat-groceries", created.CategoryID)
	}
	if !created.AICategorized {
		t.Error("AICategorized should be true when AI assigned the category")
	}
}

// TestService_Create_ExplicitCategory はカテゴリ指定時にAIを呼ばないことを検証する。
func TestService_Create_ExplicitCategory(t *testing.T) {
	t.Parallel()

	assistant := &mockAIAssistant{
		categorizeFn: func(ctx context.Context, description string, amount decimal.Decimal, merchant string) *ai.CategorizeResult {
			t.Error("Categorize should not be called when category is provided")
			return nil
		},
	}
	svc := NewService(&mockTransactionRepo{createFn: echoCreate}, assistant, testLogger())

	categoryID := "cat-dining"
	created, err := svc.Create(context.Background(), "user-1", CreateInput{
		CategoryID:  &categoryID,
		Amount:      decimal.NewFromInt(30),
		Type:        model.TransactionTypeExpense,
		Description: "Dinner",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.AICategorized {
		t.Error("AICategorized should be false for explicit category")
	}
}

// TestService_Create_CategorizeFailure は自動分類の失敗が作成を妨げないことを検証する。
func TestService_Create_CategorizeFailure(t *testing.T) {
	t.Parallel()

	svc := NewService(&mockTransactionRepo{createFn: echoCreate}, &mockAIAssistant{}, testLogger())

	created, err := svc.Create(context.Background(), "user-1", CreateInput{
		Amount:      decimal.NewFromInt(10),
		Type:        model.TransactionTypeExpense,
		Description: "Mystery purchase",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.CategoryID != nil {
		t.Errorf("CategoryID = %v, want nil (uncategorized)", created.CategoryID)
	}
	if created.AICategorized {
		t.Error("AICategorized should be false when AI gave no category")
	}
}

func TestService_Create_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input CreateInput
	}{
		{
			name:  "zero amount",
			input: CreateInput{Amount: decimal.Zero, Type: model.TransactionTypeExpense, Description: "x"},
		},
		{
			name:  "negative amount",
			input: CreateInput{Amount: decimal.NewFromInt(-5), Type: model.TransactionTypeExpense, Description: "x"},
		},
		{
			name:  "invalid type",
			input: CreateInput{Amount: decimal.NewFromInt(5), Type: "transfer", Description: "x"},
		},
		{
			name:  "missing description",
			input: CreateInput{Amount: decimal.NewFromInt(5), Type: model.TransactionTypeExpense},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockTransactionRepo{
				createFn: func(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
					t.Error("repository should not be called for invalid input")
					return nil, nil
				},
			}
			svc := NewService(repo, &mockAIAssistant{}, testLogger())

			_, err := svc.Create(context.Background(), "user-1", tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
				t.Fatalf("err = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestService_CreateFromText(t *testing.T) {
	t.Parallel()

	assistant := &mockAIAssistant{
		parseFn: func(ctx context.Context, input string) (*ai.ParsedTransaction, error) {
			return &ai.ParsedTransaction{
				Amount:      decimal.NewFromFloat(45.50),
				Description: "Groceries",
				Merchant:    "Whole Foods",
				Date:        time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
				Type:        model.TransactionTypeExpense,
			}, nil
		},
		categorizeFn: func(ctx context.Context, description string, amount decimal.Decimal, merchant string) *ai.CategorizeResult {
			return &ai.CategorizeResult{CategoryID: "cat-groceries", Confidence: 0.95}
		},
	}
	svc := NewService(&mockTransactionRepo{createFn: echoCreate}, assistant, testLogger())

	created, err := svc.CreateFromText(context.Background(), "user-1", "spent $45.50 at Whole Foods")
	if err != nil {
		t.Fatalf("CreateFromText error: %v", err)
	}
	if created.Description != "Groceries" {
		t.Errorf("Description = %q, want Groceries", created.Description)
	}
	if created.Merchant != "Whole Foods" {
		t.Errorf("Merchant = %q, want Whole Foods", created.Merchant)
	}
	if created.CategoryID == nil || *created.CategoryID != "cat-groceries" {
		t.Errorf("CategoryID = %v, want cat-groceries", created.CategoryID)
	}
}

// TestService_CreateFromText_ParseError はAI解析エラーがそのまま伝播することを検証する。
func TestService_CreateFromText_ParseError(t *testing.T) {
	t.Parallel()

	assistant := &mockAIAssistant{
		parseFn: func(ctx context.Context, input string) (*ai.ParsedTransaction, error) {
			return nil, model.NewAIResponseMalformedError()
		},
	}
	svc := NewService(&mockTransactionRepo{}, assistant, testLogger())

	_, err := svc.CreateFromText(context.Background(), "user-1", "gibberish")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAIResponseMalformed {
		t.Fatalf("err = %v, want AI_RESPONSE_MALFORMED", err)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	t.Parallel()

	repo := &mockTransactionRepo{
		findByIDFn: func(ctx context.Context, userID, id string) (*model.TransactionWithCategory, error) {
			return nil, nil
		},
	}
	svc := NewService(repo, &mockAIAssistant{}, testLogger())

	_, err := svc.Get(context.Background(), "user-1", "tx-nope")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotFound {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestService_Update_Validation(t *testing.T) {
	t.Parallel()

	badAmount := decimal.NewFromInt(-1)
	badType := model.TransactionType("transfer")

	tests := []struct {
		name   string
		update repository.TransactionUpdate
	}{
		{"negative amount", repository.TransactionUpdate{Amount: &badAmount}},
		{"invalid type", repository.TransactionUpdate{Type: &badType}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := NewService(&mockTransactionRepo{}, &mockAIAssistant{}, testLogger())

			_, err := svc.Update(context.Background(), "user-1", "tx-1", tt.update)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
				t.Fatalf("err = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	t.Parallel()

	repo := &mockTransactionRepo{
		deleteFn: func(ctx context.Context, userID, id string) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo, &mockAIAssistant{}, testLogger())

	err := svc.Delete(context.Background(), "user-1", "tx-nope")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotFound {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}
