package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/model"
)

// ProfileUpdater はプロフィール更新に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type ProfileUpdater interface {
	// UpdateMonthlyIncome は固定月収を更新する。nilは「固定収入なし」を意味する。
	UpdateMonthlyIncome(ctx context.Context, id string, income *decimal.Decimal) (*model.User, error)
}

// UserHandler はユーザープロフィールのHTTPハンドラー。
type UserHandler struct {
	users ProfileUpdater
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(users ProfileUpdater) *UserHandler {
	return &UserHandler{users: users}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
// monthlyIncomeのnullは固定月収の解除を意味する。
type updateProfileRequest struct {
	MonthlyIncome *decimal.Decimal `json:"monthlyIncome"`
}

// updateProfileResponse はプロフィール更新のレスポンス。
type updateProfileResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

// GetProfile は認証済みユーザーのプロフィールを返す。
// GET /api/users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope{User: toUserResponse(user)})
}

// UpdateProfile は固定月収を更新する。
// PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.MonthlyIncome != nil && req.MonthlyIncome.IsNegative() {
		handleServiceError(w, model.NewValidationError("monthlyIncome must be zero or greater"))
		return
	}

	updated, err := h.users.UpdateMonthlyIncome(r.Context(), user.ID, req.MonthlyIncome)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if updated == nil {
		handleServiceError(w, model.NewNotFoundError("User"))
		return
	}

	writeJSON(w, http.StatusOK, updateProfileResponse{
		Message: "Profile updated successfully",
		User:    toUserResponse(updated),
	})
}
