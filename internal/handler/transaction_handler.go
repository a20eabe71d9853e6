package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/model"
	"github.com/hitoshi/fintrack/internal/repository"
	"github.com/hitoshi/fintrack/internal/transaction"
)

// TransactionServiceInterface は取引ハンドラーが必要とするサービスインターフェース。
type TransactionServiceInterface interface {
	Create(ctx context.Context, userID string, input transaction.CreateInput) (*model.Transaction, error)
	CreateFromText(ctx context.Context, userID, input string) (*model.Transaction, error)
	List(ctx context.Context, userID string, filter model.TransactionFilter) ([]*model.TransactionWithCategory, error)
	Get(ctx context.Context, userID, id string) (*model.TransactionWithCategory, error)
	Update(ctx context.Context, userID, id string, update repository.TransactionUpdate) (*model.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
	Stats(ctx context.Context, userID string, startDate, endDate *time.Time) (*model.TransactionStats, error)
}

// TransactionHandler は取引のHTTPハンドラー。
type TransactionHandler struct {
	service TransactionServiceInterface
}

// NewTransactionHandler はTransactionHandlerを生成する。
func NewTransactionHandler(service TransactionServiceInterface) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// createTransactionRequest は取引作成リクエストのボディ。
type createTransactionRequest struct {
	CategoryID       *string         `json:"categoryId"`
	Amount           decimal.Decimal `json:"amount"`
	Type             string          `json:"type"`
	Description      string          `json:"description"`
	Merchant         string          `json:"merchant"`
	TransactionDate  string          `json:"transactionDate"`
	PaymentMethod    string          `json:"paymentMethod"`
	Notes            string          `json:"notes"`
	IsRecurring      bool            `json:"isRecurring"`
	RecurringPattern string          `json:"recurringPattern"`
}

// updateTransactionRequest は取引の部分更新リクエストのボディ。
// 省略されたフィールドは変更されない。
type updateTransactionRequest struct {
	CategoryID      *string          `json:"categoryId"`
	Amount          *decimal.Decimal `json:"amount"`
	Type            *string          `json:"type"`
	Description     *string          `json:"description"`
	Merchant        *string          `json:"merchant"`
	TransactionDate *string          `json:"transactionDate"`
	PaymentMethod   *string          `json:"paymentMethod"`
	Notes           *string          `json:"notes"`
}

// naturalLanguageRequest は自然言語での取引作成リクエストのボディ。
type naturalLanguageRequest struct {
	Input string `json:"input"`
}

// transactionResponse は取引のAPIレスポンス。
type transactionResponse struct {
	ID               string          `json:"id"`
	CategoryID       *string         `json:"categoryId"`
	Amount           decimal.Decimal `json:"amount"`
	Type             string          `json:"type"`
	Description      string          `json:"description"`
	Merchant         string          `json:"merchant,omitempty"`
	TransactionDate  string          `json:"transactionDate"`
	PaymentMethod    string          `json:"paymentMethod,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	IsRecurring      bool            `json:"isRecurring"`
	RecurringPattern string          `json:"recurringPattern,omitempty"`
	AICategorized    bool            `json:"aiCategorized"`
	CreatedAt        time.Time       `json:"createdAt"`

	// カテゴリ表示情報（JOIN済みレスポンスのみ）
	CategoryName  string `json:"categoryName,omitempty"`
	CategoryIcon  string `json:"categoryIcon,omitempty"`
	CategoryColor string `json:"categoryColor,omitempty"`
}

// transactionsEnvelope は取引一覧のレスポンス。
type transactionsEnvelope struct {
	Transactions []transactionResponse `json:"transactions"`
}

// createTransactionResponse は取引作成のレスポンス。
type createTransactionResponse struct {
	Message       string              `json:"message"`
	Transaction   transactionResponse `json:"transaction"`
	AICategorized bool                `json:"aiCategorized"`
}

// toTransactionResponse はドメインのTransactionをAPIレスポンス型に変換する。
func toTransactionResponse(tx *model.Transaction) transactionResponse {
	return transactionResponse{
		ID:               tx.ID,
		CategoryID:       tx.CategoryID,
		Amount:           tx.Amount,
		Type:             string(tx.Type),
		Description:      tx.Description,
		Merchant:         tx.Merchant,
		TransactionDate:  tx.TransactionDate.Format(dateLayout),
		PaymentMethod:    tx.PaymentMethod,
		Notes:            tx.Notes,
		IsRecurring:      tx.IsRecurring,
		RecurringPattern: tx.RecurringPattern,
		AICategorized:    tx.AICategorized,
		CreatedAt:        tx.CreatedAt,
	}
}

// toTransactionWithCategoryResponse はカテゴリ情報付きの取引をAPIレスポンス型に変換する。
func toTransactionWithCategoryResponse(tx *model.TransactionWithCategory) transactionResponse {
	resp := toTransactionResponse(&tx.Transaction)
	resp.CategoryName = tx.CategoryName
	resp.CategoryIcon = tx.CategoryIcon
	resp.CategoryColor = tx.CategoryColor
	return resp
}

// List は取引一覧をフィルタ付きで返す。
// GET /api/transactions?start_date=&end_date=&category_id=&type=
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	startDate, err := parseDateParam(q.Get("start_date"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	endDate, err := parseDateParam(q.Get("end_date"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	filter := model.TransactionFilter{
		StartDate:  startDate,
		EndDate:    endDate,
		CategoryID: q.Get("category_id"),
	}
	if t := q.Get("type"); t != "" {
		txType := model.TransactionType(t)
		if !txType.Valid() {
			handleServiceError(w, model.NewValidationError("type must be income or expense"))
			return
		}
		filter.Type = txType
	}

	items, err := h.service.List(r.Context(), user.ID, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]transactionResponse, len(items))
	for i, item := range items {
		responses[i] = toTransactionWithCategoryResponse(item)
	}
	writeJSON(w, http.StatusOK, transactionsEnvelope{Transactions: responses})
}

// Get は取引詳細を返す。
// GET /api/transactions/{id}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	tx, err := h.service.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]transactionResponse{
		"transaction": toTransactionWithCategoryResponse(tx),
	})
}

// Create は取引を作成する。カテゴリ未指定の場合はAIによる自動分類を試みる。
// POST /api/transactions
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var txDate time.Time
	if req.TransactionDate != "" {
		parsed, err := parseDateParam(req.TransactionDate)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		txDate = *parsed
	}

	created, err := h.service.Create(r.Context(), user.ID, transaction.CreateInput{
		CategoryID:       req.CategoryID,
		Amount:           req.Amount,
		Type:             model.TransactionType(req.Type),
		Description:      req.Description,
		Merchant:         req.Merchant,
		TransactionDate:  txDate,
		PaymentMethod:    req.PaymentMethod,
		Notes:            req.Notes,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: req.RecurringPattern,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createTransactionResponse{
		Message:       "Transaction created successfully",
		Transaction:   toTransactionResponse(created),
		AICategorized: created.AICategorized,
	})
}

// CreateFromText は自然言語入力から取引を作成する。
// POST /api/transactions/natural-language
func (h *TransactionHandler) CreateFromText(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req naturalLanguageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.service.CreateFromText(r.Context(), user.ID, req.Input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createTransactionResponse{
		Message:       "Transaction created successfully from natural language",
		Transaction:   toTransactionResponse(created),
		AICategorized: created.AICategorized,
	})
}

// Update は取引を部分更新する。
// PUT /api/transactions/{id}
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req updateTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	update := repository.TransactionUpdate{
		CategoryID:    req.CategoryID,
		Amount:        req.Amount,
		Description:   req.Description,
		Merchant:      req.Merchant,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	if req.Type != nil {
		txType := model.TransactionType(*req.Type)
		update.Type = &txType
	}
	if req.TransactionDate != nil {
		parsed, err := parseDateParam(*req.TransactionDate)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		update.TransactionDate = parsed
	}

	updated, err := h.service.Update(r.Context(), user.ID, chi.URLParam(r, "id"), update)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Transaction updated successfully",
		"transaction": toTransactionResponse(updated),
	})
}

// Delete は取引を削除する。
// DELETE /api/transactions/{id}
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}

// typeTotalResponse は種別ごとの集計のレスポンス。
type typeTotalResponse struct {
	Type    string          `json:"type"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
	Average decimal.Decimal `json:"average"`
}

// categoryTotalResponse はカテゴリごとの集計のレスポンス。
type categoryTotalResponse struct {
	Category string          `json:"category"`
	Icon     string          `json:"icon,omitempty"`
	Color    string          `json:"color,omitempty"`
	Type     string          `json:"type"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// monthlyTotalResponse は月次集計のレスポンス。
type monthlyTotalResponse struct {
	Month string          `json:"month"`
	Type  string          `json:"type"`
	Total decimal.Decimal `json:"total"`
}

// statsResponse は取引統計のレスポンス。
type statsResponse struct {
	Totals        []typeTotalResponse     `json:"totals"`
	ByCategory    []categoryTotalResponse `json:"byCategory"`
	MonthlyTrends []monthlyTotalResponse  `json:"monthlyTrends"`
}

// Stats は取引統計を返す。期間は任意で指定できる。
// GET /api/transactions/stats?start_date=&end_date=
func (h *TransactionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	startDate, err := parseDateParam(q.Get("start_date"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	endDate, err := parseDateParam(q.Get("end_date"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	stats, err := h.service.Stats(r.Context(), user.ID, startDate, endDate)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := statsResponse{
		Totals:        make([]typeTotalResponse, len(stats.Totals)),
		ByCategory:    make([]categoryTotalResponse, len(stats.ByCategory)),
		MonthlyTrends: make([]monthlyTotalResponse, len(stats.MonthlyTrends)),
	}
	for i, t := range stats.Totals {
		resp.Totals[i] = typeTotalResponse{
			Type:    string(t.Type),
			Total:   t.Total,
			Count:   t.Count,
			Average: t.Average,
		}
	}
	for i, c := range stats.ByCategory {
		resp.ByCategory[i] = categoryTotalResponse{
			Category: c.Category,
			Icon:     c.Icon,
			Color:    c.Color,
			Type:     string(c.Type),
			Total:    c.Total,
			Count:    c.Count,
		}
	}
	for i, m := range stats.MonthlyTrends {
		resp.MonthlyTrends[i] = monthlyTotalResponse{
			Month: m.Month.Format("2006-01"),
			Type:  string(m.Type),
			Total: m.Total,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
