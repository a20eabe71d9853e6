package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/fintrack/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login は資格情報を検証し、成功時にユーザーとトークンを返す。
	Login(ctx context.Context, email, password string) (*model.User, string, error)
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	FirstName     string           `json:"firstName"`
	LastName      string           `json:"lastName"`
	MonthlyIncome *decimal.Decimal `json:"monthlyIncome"`
	Role          string           `json:"role"`
	IsActive      bool             `json:"isActive"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
	Token   string       `json:"token"`
}

// userEnvelope はユーザー1件のレスポンス。
type userEnvelope struct {
	User userResponse `json:"user"`
}

// toUserResponse はドメインのUserをAPIレスポンス型に変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		MonthlyIncome: u.MonthlyIncome,
		Role:          string(u.Role),
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
	}
}

// Login はログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		handleServiceError(w, model.NewValidationError("valid email is required"))
		return
	}
	if req.Password == "" {
		handleServiceError(w, model.NewValidationError("password is required"))
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		User:    toUserResponse(user),
		Token:   token,
	})
}

// Me は認証済みユーザー自身の情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope{User: toUserResponse(user)})
}
