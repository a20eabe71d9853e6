package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/model"
	"github.com/hitoshi/fintrack/internal/repository"
	"github.com/hitoshi/fintrack/internal/transaction"
)

// --- モック ---

type mockTransactionService struct {
	createFn         func(ctx context.Context, userID string, input transaction.CreateInput) (*model.Transaction, error)
	createFromTextFn func(ctx context.Context, userID, input string) (*model.Transaction, error)
	listFn           func(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.TransactionWithCategory, error)
	getFn            func(ctx context.Context, userID, id string) (*model.TransactionWithCategory, error)
	updateFn         func(ctx context.Context, userID, id string, update repository.TransactionUpdate) (*model.Transaction, error)
	deleteFn         func(ctx context.Context, userID, id string) error
	statsFn          func(ctx context.Context, userID string, startDate, endDate *time.Time) (*model.TransactionStats, error)
}

func (m *mockTransactionService) Create(ctx context.Context, userID string, input transaction.CreateInput) (*model.Transaction, error) {
	return m.createFn(ctx, userID, input)
}

func (m *mockTransactionService) CreateFromText(ctx context.Context, userID, input string) (*model.Transaction, error) {
	return m.createFromTextFn(ctx, userID, input)
}

func (m *mockTransactionService) List(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.TransactionWithCategory, error) {
	return m.listFn(ctx, userID, filter)
}

func (m *mockTransactionService) Get(ctx context.Context, userID, id string) (*model.TransactionWithCategory, error) {
	return m.getFn(ctx, userID, id)
}

func (m *mockTransactionService) Update(ctx context.Context, userID, id string, update repository.TransactionUpdate) (*model.Transaction, error) {
	return m.updateFn(ctx, userID, id, update)
}

func (m *mockTransactionService) Delete(ctx context.Context, userID, id string) error {
	return m.deleteFn(ctx, userID, id)
}

func (m *mockTransactionService) Stats(ctx context.Context, userID string, startDate, endDate *time.Time) (*model.TransactionStats, error) {
	return m.statsFn(ctx, userID, startDate, endDate)
}

func sampleTransaction() *model.Transaction {
	categoryID := "cat-1"
	return &model.Transaction{
		ID:              "tx-1",
		UserID:          "user-1",
		CategoryID:      &categoryID,
		Amount:          decimal.NewFromFloat(45.50),
		Type:            model.TransactionTypeExpense,
		Description:     "Weekly Groceries",
		Merchant:        "Whole Foods Market",
		TransactionDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	}
}

// --- テスト ---

func TestTransactionHandler_List_Filters(t *testing.T) {
	t.Parallel()

	svc := &mockTransactionService{
		listFn: func(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.TransactionWithCategory, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			if filter.StartDate == nil || filter.StartDate.Format(dateLayout) != "2025-06-01" {
				t.Errorf("StartDate = %v, want 2025-06-01", filter.StartDate)
			}
			if filter.CategoryID != "cat-1" {
				t.Errorf("CategoryID = %q, want cat-1", filter.CategoryID)
			}
			if filter.Type != model.TransactionTypeExpense {
				t.Errorf("Type = %q, want expense", filter.Type)
			}
			return []*model.TransactionWithCategory{
				{Transaction: *sampleTransaction(), CategoryName: "Food & Dining"},
			}, nil
		},
	}
	h := NewTransactionHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodGet,
		"/api/transactions?start_date=2025-06-01&category_id=cat-1&type=expense", nil), demoUser())
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp transactionsEnvelope
	decodeJSONBody(t, rec, &resp)
	if len(resp.Transactions) != 1 {
		t.Fatalf("len(transactions) = %d, want 1", len(resp.Transactions))
	}
	if resp.Transactions[0].CategoryName != "Food & Dining" {
		t.Errorf("categoryName = %q, want Food & Dining", resp.Transactions[0].CategoryName)
	}
}

func TestTransactionHandler_List_InvalidType(t *testing.T) {
	t.Parallel()

	svc := &mockTransactionService{
		listFn: func(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.TransactionWithCategory, error) {
			t.Error("List should not be called for invalid filter")
			return nil, nil
		},
	}
	h := NewTransactionHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/transactions?type=transfer", nil), demoUser())
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestTransactionHandler_Create_Success(t *testing.T) {
	t.Parallel()

	svc := &mockTransactionService{
		createFn: func(ctx context.Context, userID string, input transaction.CreateInput) (*model.Transaction, error) {
			if input.Description != "Weekly Groceries" {
				t.Errorf("Description = %q, want Weekly Groceries", input.Description)
			}
			if input.TransactionDate.Format(dateLayout) != "2025-06-10" {
				t.Errorf("TransactionDate = %v, want 2025-06-10", input.TransactionDate)
			}
			created := sampleTransaction()
			created.AICategorized = true
			return created, nil
		},
	}
	h := NewTransactionHandler(svc)

	body := bytes.NewBufferString(`{
		"amount": 45.50,
		"type": "expense",
		"description": "Weekly Groceries",
		"merchant": "Whole Foods Market",
		"transactionDate": "2025-06-10"
	}`)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/transactions", body), demoUser())
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp createTransactionResponse
	decodeJSONBody(t, rec, &resp)
	if !resp.AICategorized {
		t.Error("aiCategorized should be true")
	}
	if resp.Transaction.TransactionDate != "2025-06-10" {
		t.Errorf("transactionDate = %q, want 2025-06-10", resp.Transaction.TransactionDate)
	}
}

func TestTransactionHandler_Create_InvalidDate(t *testing.T) {
	t.Parallel()

	svc := &mockTransactionService{
		createFn: func(ctx context.Context, userID string, input transaction.CreateInput) (*model.Transaction, error) {
			t.Error("Create should not be called for invalid date")
			return nil, nil
		},
	}
	h := NewTransactionHandler(svc)

	body := bytes.NewBufferString(`{"amount":10,"type":"expense","description":"x","transactionDate":"June 10th"}`)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/transactions", body), demoUser())
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestTransactionHandler_CreateFromText(t *testing.T) {
	t.Parallel()

	svc := &mockTransactionService{
		createFromTextFn: func(ctx context.Context, userID, input string) (*model.Transaction, error) {
			if input != "spent $45.50 at Whole Foods yesterday" {
				t.Errorf("input = %q", input)
			}
			return sampleTransaction(), nil
		},
	}
	h := NewTransactionHandler(svc)

	body := bytes.NewBufferString(`{"input":"spent $45.50 at Whole Foods yesterday"}`)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/transactions/natural-language", body), demoUser())
	rec := httptest.NewRecorder()
	h.CreateFromText(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
}

func TestTransactionHandler_Get_NotFound(t *testing.T) {
	t.Parallel()

	svc := &mockTransactionService{
		getFn: func(ctx context.Context, userID, id string) (*model.TransactionWithCategory, error) {
			return nil, model.NewNotFoundError("Transaction")
		},
	}
	h := NewTransactionHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/transactions/tx-nope", nil), demoUser())
	req = withChiURLParam(req, "id", "tx-nope")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if code := decodeErrorCode(t, rec); code != model.ErrCodeNotFound {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeNotFound)
	}
}

// TestTransactionHandler_Update_PartialFields は指定フィールドのみが
// 更新パラメータへ変換されることを検証する。
func TestTransactionHandler_Update_PartialFields(t *testing.T) {
	t.Parallel()

	svc := &mockTransactionService{
		updateFn: func(ctx context.Context, userID, id string, update repository.TransactionUpdate) (*model.Transaction, error) {
			if id != "tx-1" {
				t.Errorf("id = %q, want tx-1", id)
			}
			if update.Amount == nil || !update.Amount.Equal(decimal.NewFromInt(60)) {
				t.Errorf("Amount = %v, want 60", update.Amount)
			}
			if update.Type == nil || *update.Type != model.TransactionTypeIncome {
				t.Errorf("Type = %v, want income", update.Type)
			}
			if update.Description != nil {
				t.Errorf("Description = %v, want nil", update.Description)
			}
			return sampleTransaction(), nil
		},
	}
	h := NewTransactionHandler(svc)

	body := bytes.NewBufferString(`{"amount":60,"type":"income"}`)
	req := withUser(httptest.NewRequest(http.MethodPut, "/api/transactions/tx-1", body), demoUser())
	req = withChiURLParam(req, "id", "tx-1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestTransactionHandler_Delete(t *testing.T) {
	t.Parallel()

	svc := &mockTransactionService{
		deleteFn: func(ctx context.Context, userID, id string) error {
			if userID != "user-1" || id != "tx-1" {
				t.Errorf("Delete(%q, %q), want (user-1, tx-1)", userID, id)
			}
			return nil
		},
	}
	h := NewTransactionHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/transactions/tx-1", nil), demoUser())
	req = withChiURLParam(req, "id", "tx-1")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestTransactionHandler_Stats(t *testing.T) {
	t.Parallel()

	svc := &mockTransactionService{
		statsFn: func(ctx context.Context, userID string, startDate, endDate *time.Time) (*model.TransactionStats, error) {
			return &model.TransactionStats{
				Totals: []model.TypeTotal{
					{Type: model.TransactionTypeExpense, Total: decimal.NewFromInt(900), Count: 12, Average: decimal.NewFromInt(75)},
				},
				ByCategory: []model.CategoryTotal{
					{Category: "Food & Dining", Type: model.TransactionTypeExpense, Total: decimal.NewFromInt(400), Count: 8},
				},
				MonthlyTrends: []model.MonthlyTotal{
					{Month: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Type: model.TransactionTypeExpense, Total: decimal.NewFromInt(900)},
				},
			}, nil
		},
	}
	h := NewTransactionHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/transactions/stats", nil), demoUser())
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp statsResponse
	decodeJSONBody(t, rec, &resp)
	if len(resp.Totals) != 1 || resp.Totals[0].Count != 12 {
		t.Errorf("totals = %+v, want 1 entry with count 12", resp.Totals)
	}
	if len(resp.MonthlyTrends) != 1 || resp.MonthlyTrends[0].Month != "2025-06" {
		t.Errorf("monthlyTrends = %+v, want month 2025-06", resp.MonthlyTrends)
	}
}
