package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/ai"
	"github.com/hitoshi/fintrack/internal/model"
)

// AIServiceInterface はAIハンドラーが必要とするサービスインターフェース。
type AIServiceInterface interface {
	Advice(ctx context.Context, userID, question string, chatContext json.RawMessage) (*ai.AdviceResult, error)
	BudgetRecommendations(ctx context.Context, user *model.User, incomeOverride *decimal.Decimal) (json.RawMessage, error)
	SpendingAnalysis(ctx context.Context, userID, period string) (*ai.AnalysisResult, error)
}

// AIHandler はAIリレー機能のHTTPハンドラー。
type AIHandler struct {
	service AIServiceInterface
}

// NewAIHandler はAIHandlerを生成する。
func NewAIHandler(service AIServiceInterface) *AIHandler {
	return &AIHandler{service: service}
}

// chatRequest はAIチャットリクエストのボディ。
type chatRequest struct {
	Question string          `json:"question"`
	Context  json.RawMessage `json:"context"`
}

// chatResponse はAIチャットのレスポンス。
type chatResponse struct {
	Response   string `json:"response"`
	TokensUsed int    `json:"tokensUsed"`
}

// budgetRecommendationsRequest は予算提案リクエストのボディ。
// monthlyIncomeを省略した場合はプロフィールの固定月収が使われる。
type budgetRecommendationsRequest struct {
	MonthlyIncome *decimal.Decimal `json:"monthlyIncome"`
}

// analysisResponse は支出分析のレスポンス。
type analysisResponse struct {
	Period           string          `json:"period"`
	Analysis         string          `json:"analysis"`
	TotalSpent       decimal.Decimal `json:"totalSpent"`
	TransactionCount int             `json:"transactionCount"`
}

// Chat は財務アドバイスの質問を処理する。
// POST /api/ai/chat
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Question == "" {
		handleServiceError(w, model.NewValidationError("question is required"))
		return
	}

	result, err := h.service.Advice(r.Context(), user.ID, req.Question, req.Context)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:   result.Response,
		TokensUsed: result.TokensUsed,
	})
}

// BudgetRecommendations はAIによる予算提案を返す。
// POST /api/ai/budget-recommendations
func (h *AIHandler) BudgetRecommendations(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	// ボディは任意。空の場合はプロフィールの月収にフォールバックする。
	var req budgetRecommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		handleServiceError(w, model.NewValidationError("request body must be valid JSON"))
		return
	}
	if req.MonthlyIncome != nil && req.MonthlyIncome.LessThanOrEqual(decimal.Zero) {
		handleServiceError(w, model.NewValidationError("monthlyIncome must be a positive number"))
		return
	}

	recommendations, err := h.service.BudgetRecommendations(r.Context(), user, req.MonthlyIncome)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"recommendations": recommendations})
}

// SpendingAnalysis は指定期間の支出分析を返す。
// GET /api/ai/spending-analysis?period=week|month|year
func (h *AIHandler) SpendingAnalysis(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	period := r.URL.Query().Get("period")
	result, err := h.service.SpendingAnalysis(r.Context(), user.ID, period)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if period == "" {
		period = "month"
	}
	writeJSON(w, http.StatusOK, analysisResponse{
		Period:           period,
		Analysis:         result.Analysis,
		TotalSpent:       result.TotalSpent,
		TransactionCount: result.TransactionCount,
	})
}
