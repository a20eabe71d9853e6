package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/fintrack/internal/model"
)

// CategoryListerInterface はカテゴリ一覧の取得に必要なインターフェース。
type CategoryListerInterface interface {
	List(ctx context.Context) ([]*model.Category, error)
}

// CategoryHandler はカテゴリ参照のHTTPハンドラー。
type CategoryHandler struct {
	categories CategoryListerInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(categories CategoryListerInterface) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// categoryResponse はカテゴリのAPIレスポンス。
type categoryResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Icon     string  `json:"icon,omitempty"`
	Color    string  `json:"color,omitempty"`
	ParentID *string `json:"parentId"`
	IsSystem bool    `json:"isSystem"`
}

// categoriesEnvelope はカテゴリ一覧のレスポンス。
type categoriesEnvelope struct {
	Categories []categoryResponse `json:"categories"`
}

// toCategoryResponse はドメインのCategoryをAPIレスポンス型に変換する。
func toCategoryResponse(c *model.Category) categoryResponse {
	return categoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		Type:     string(c.Type),
		Icon:     c.Icon,
		Color:    c.Color,
		ParentID: c.ParentID,
		IsSystem: c.IsSystem,
	}
}

// List は全カテゴリを返す。
// GET /api/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]categoryResponse, len(categories))
	for i, c := range categories {
		responses[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, categoriesEnvelope{Categories: responses})
}
