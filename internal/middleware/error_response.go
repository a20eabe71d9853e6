package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/fintrack/internal/model"
)

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// ボディは `{"error": {...}}` 形式で、code・message・category・actionに加えて
// APIError.Contextの追加情報（クォータの現在件数など）を同じ階層に展開する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	body := map[string]any{
		"code":     apiErr.Code,
		"message":  apiErr.Message,
		"category": apiErr.Category,
		"action":   apiErr.Action,
	}
	for k, v := range apiErr.Context {
		body[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]any{"error": body})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     model.ErrCodeInternal,
		Message:  "An internal error occurred",
		Category: "system",
		Action:   "Try again later.",
	})
}
