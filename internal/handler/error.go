// Package handler はHTTP APIのリクエスト処理を提供する。
// 各ハンドラーは必要とするサービスの最小インターフェースに依存する。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/fintrack/internal/middleware"
	"github.com/hitoshi/fintrack/internal/model"
)

// dateLayout はAPIの日付パラメータの形式。
const dateLayout = "2006-01-02"

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// decodeBody はリクエストボディをJSONとして解析する。
// 失敗時はVALIDATION_ERRORを書き込みfalseを返す。
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("request body must be valid JSON"))
		return false
	}
	return true
}

// currentUser はコンテキストから認証済みユーザーを取り出す。
// 認証ミドルウェアを通過していない場合は401を書き込みfalseを返す。
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenRequiredError())
		return nil, false
	}
	return user, true
}

// parseDateParam はYYYY-MM-DD形式の日付パラメータを解析する。空文字はnilを返す。
func parseDateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, model.NewValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value))
	}
	return &t, nil
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials, model.ErrCodeTokenRequired,
		model.ErrCodeInvalidToken, model.ErrCodeTokenExpired, model.ErrCodeUserNotFound:
		return http.StatusUnauthorized
	case model.ErrCodeAccountInactive, model.ErrCodeInsufficientPermissions,
		model.ErrCodeDemoLimitReached:
		return http.StatusForbidden
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeAITimeout:
		return http.StatusGatewayTimeout
	case model.ErrCodeAIUpstream, model.ErrCodeAIResponseMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
