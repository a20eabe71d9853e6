package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/model"
)

// GoalStore は財務目標ハンドラーが必要とする永続化インターフェース。
type GoalStore interface {
	ListByUserID(ctx context.Context, userID string) ([]*model.Goal, error)
	Create(ctx context.Context, goal *model.Goal) (*model.Goal, error)
}

// GoalHandler は財務目標のHTTPハンドラー。
type GoalHandler struct {
	goals GoalStore
}

// NewGoalHandler はGoalHandlerを生成する。
func NewGoalHandler(goals GoalStore) *GoalHandler {
	return &GoalHandler{goals: goals}
}

// createGoalRequest は目標作成リクエストのボディ。
type createGoalRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    *string         `json:"targetDate"`
}

// goalResponse は目標のAPIレスポンス。
type goalResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    *string         `json:"targetDate"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// toGoalResponse はドメインのGoalをAPIレスポンス型に変換する。
func toGoalResponse(g *model.Goal) goalResponse {
	resp := goalResponse{
		ID:            g.ID,
		Title:         g.Title,
		Description:   g.Description,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		CreatedAt:     g.CreatedAt,
	}
	if g.TargetDate != nil {
		date := g.TargetDate.Format(dateLayout)
		resp.TargetDate = &date
	}
	return resp
}

// List は目標一覧を返す。
// GET /api/goals
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	goals, err := h.goals.ListByUserID(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]goalResponse, len(goals))
	for i, g := range goals {
		responses[i] = toGoalResponse(g)
	}
	writeJSON(w, http.StatusOK, map[string][]goalResponse{"goals": responses})
}

// Create は目標を作成する。
// POST /api/goals
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Title == "" {
		handleServiceError(w, model.NewValidationError("title is required"))
		return
	}
	if req.TargetAmount.LessThanOrEqual(decimal.Zero) {
		handleServiceError(w, model.NewValidationError("targetAmount must be a positive number"))
		return
	}
	if req.CurrentAmount.IsNegative() {
		handleServiceError(w, model.NewValidationError("currentAmount must be zero or greater"))
		return
	}

	var targetDate *time.Time
	if req.TargetDate != nil {
		parsed, err := parseDateParam(*req.TargetDate)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		targetDate = parsed
	}

	created, err := h.goals.Create(r.Context(), &model.Goal{
		UserID:        user.ID,
		Title:         req.Title,
		Description:   req.Description,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    targetDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Goal created successfully",
		"goal":    toGoalResponse(created),
	})
}
