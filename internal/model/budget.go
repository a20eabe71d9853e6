package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Budget はカテゴリ別の予算を表す。所有ユーザーのみが参照・変更できる。
type Budget struct {
	ID         string
	UserID     string
	CategoryID *string
	Amount     decimal.Decimal
	Period     string // monthly, weekly, yearly
	StartDate  time.Time
	EndDate    *time.Time
	IsActive   bool
	CreatedAt  time.Time
}

// BudgetWithCategory は予算にカテゴリ表示情報を結合したもの。
type BudgetWithCategory struct {
	Budget
	CategoryName  string
	CategoryIcon  string
	CategoryColor string
}

// BudgetTemplate は管理者が定義する予算の雛形。
// TemplateDataはカテゴリ別配分などの任意構造を保持するJSON。
type BudgetTemplate struct {
	ID           string
	Name         string
	Description  string
	TemplateData json.RawMessage
	IsDefault    bool
	CreatedAt    time.Time
}

// Goal は貯蓄目標などの財務目標を表す。
type Goal struct {
	ID            string
	UserID        string
	Title         string
	Description   string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    *time.Time
	CreatedAt     time.Time
}
