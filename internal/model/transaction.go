package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType は取引の種別（収入/支出）を表す。
type TransactionType string

const (
	// TransactionTypeIncome は収入取引。
	TransactionTypeIncome TransactionType = "income"
	// TransactionTypeExpense は支出取引。
	TransactionTypeExpense TransactionType = "expense"
)

// Valid はtypeが定義済みの値かどうかを返す。
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction は1件の収入または支出の記録を表す。
// 所有者（UserID）は作成後に変更されない。金額は常に非負。
type Transaction struct {
	ID               string
	UserID           string
	CategoryID       *string // 未分類の場合はnil
	Amount           decimal.Decimal
	Type             TransactionType
	Description      string
	Merchant         string
	TransactionDate  time.Time
	PaymentMethod    string
	Notes            string
	IsRecurring      bool
	RecurringPattern string
	AICategorized    bool // AIリレーがカテゴリを割り当てた場合true
	CreatedAt        time.Time
}

// TransactionWithCategory は取引にカテゴリ表示情報を結合したもの。
// 一覧・詳細レスポンス用。
type TransactionWithCategory struct {
	Transaction
	CategoryName  string
	CategoryIcon  string
	CategoryColor string
}

// TransactionFilter は取引一覧の絞り込み条件。
// ゼロ値のフィールドは条件として適用しない。
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID string
	Type       TransactionType
}

// TypeTotal は取引種別ごとの集計値。
type TypeTotal struct {
	Type    TransactionType
	Total   decimal.Decimal
	Count   int
	Average decimal.Decimal
}

// CategoryTotal はカテゴリごとの集計値。
type CategoryTotal struct {
	Category string
	Icon     string
	Color    string
	Type     TransactionType
	Total    decimal.Decimal
	Count    int
}

// MonthlyTotal は月次の集計値。
type MonthlyTotal struct {
	Month time.Time
	Type  TransactionType
	Total decimal.Decimal
}

// TransactionStats は取引統計のレスポンス。
type TransactionStats struct {
	Totals        []TypeTotal
	ByCategory    []CategoryTotal
	MonthlyTrends []MonthlyTotal
}
