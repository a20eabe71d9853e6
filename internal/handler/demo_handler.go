package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/fintrack/internal/demo"
)

// DemoServiceInterface はデモハンドラーが必要とするサービスインターフェース。
type DemoServiceInterface interface {
	Stats(ctx context.Context, userID string) (*demo.Stats, error)
	Reset(ctx context.Context, userID string) (*demo.ResetResult, error)
}

// DemoHandler はデモアカウント管理のHTTPハンドラー。
type DemoHandler struct {
	service DemoServiceInterface
}

// NewDemoHandler はDemoHandlerを生成する。
func NewDemoHandler(service DemoServiceInterface) *DemoHandler {
	return &DemoHandler{service: service}
}

// Stats は取引件数の利用状況を返す。
// GET /api/demo/stats
func (h *DemoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Reset はユーザーのデータを削除しサンプルデータを再投入する。
// DELETE /api/demo/reset
func (h *DemoHandler) Reset(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.service.Reset(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":            "Demo data has been reset with fresh sample transactions",
		"transactionsSeeded": result.TransactionsSeeded,
	})
}
