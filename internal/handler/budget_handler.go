package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/model"
)

// budgetPeriods は予算期間として有効な値。
var budgetPeriods = map[string]bool{
	"weekly":  true,
	"monthly": true,
	"yearly":  true,
}

// BudgetStore は予算ハンドラーが必要とする永続化インターフェース。
type BudgetStore interface {
	ListByUserID(ctx context.Context, userID string) ([]*model.BudgetWithCategory, error)
	Create(ctx context.Context, budget *model.Budget) (*model.Budget, error)
}

// BudgetHandler は予算のHTTPハンドラー。
type BudgetHandler struct {
	budgets BudgetStore
}

// NewBudgetHandler はBudgetHandlerを生成する。
func NewBudgetHandler(budgets BudgetStore) *BudgetHandler {
	return &BudgetHandler{budgets: budgets}
}

// createBudgetRequest は予算作成リクエストのボディ。
type createBudgetRequest struct {
	CategoryID *string         `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"`
	StartDate  string          `json:"startDate"`
	EndDate    *string         `json:"endDate"`
}

// budgetResponse は予算のAPIレスポンス。
type budgetResponse struct {
	ID         string          `json:"id"`
	CategoryID *string         `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"`
	StartDate  string          `json:"startDate"`
	EndDate    *string         `json:"endDate"`
	IsActive   bool            `json:"isActive"`
	CreatedAt  time.Time       `json:"createdAt"`

	CategoryName  string `json:"categoryName,omitempty"`
	CategoryIcon  string `json:"categoryIcon,omitempty"`
	CategoryColor string `json:"categoryColor,omitempty"`
}

// toBudgetResponse はドメインのBudgetをAPIレスポンス型に変換する。
func toBudgetResponse(b *model.Budget) budgetResponse {
	resp := budgetResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Amount:     b.Amount,
		Period:     b.Period,
		StartDate:  b.StartDate.Format(dateLayout),
		IsActive:   b.IsActive,
		CreatedAt:  b.CreatedAt,
	}
	if b.EndDate != nil {
		end := b.EndDate.Format(dateLayout)
		resp.EndDate = &end
	}
	return resp
}

// List は有効な予算をカテゴリ情報付きで返す。
// GET /api/budgets
func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	budgets, err := h.budgets.ListByUserID(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]budgetResponse, len(budgets))
	for i, b := range budgets {
		resp := toBudgetResponse(&b.Budget)
		resp.CategoryName = b.CategoryName
		resp.CategoryIcon = b.CategoryIcon
		resp.CategoryColor = b.CategoryColor
		responses[i] = resp
	}
	writeJSON(w, http.StatusOK, map[string][]budgetResponse{"budgets": responses})
}

// Create は予算を作成する。
// POST /api/budgets
func (h *BudgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createBudgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		handleServiceError(w, model.NewValidationError("amount must be a positive number"))
		return
	}
	period := req.Period
	if period == "" {
		period = "monthly"
	}
	if !budgetPeriods[period] {
		handleServiceError(w, model.NewValidationError("period must be weekly, monthly or yearly"))
		return
	}

	startDate := time.Now()
	if req.StartDate != "" {
		parsed, err := parseDateParam(req.StartDate)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		startDate = *parsed
	}
	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := parseDateParam(*req.EndDate)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		endDate = parsed
	}

	created, err := h.budgets.Create(r.Context(), &model.Budget{
		UserID:     user.ID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Period:     period,
		StartDate:  startDate,
		EndDate:    endDate,
		IsActive:   true,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Budget created successfully",
		"budget":  toBudgetResponse(created),
	})
}
