package model

import "time"

// Category は取引の分類を表す静的な参照データ。
// 多数のTransactionが1つのCategoryを参照する。未分類（nil参照）も有効。
type Category struct {
	ID        string
	Name      string
	Type      TransactionType
	Icon      string
	Color     string
	ParentID  *string
	IsSystem  bool
	CreatedAt time.Time
}

// CategoryRule はキーワード等のパターンによる自動分類ルール。
// 管理者のみが編集できる。
type CategoryRule struct {
	ID           string
	CategoryID   string
	CategoryName string // JOINで取得する表示用の名前
	Pattern      string
	RuleType     string // keyword, regex など
	Priority     int
	IsActive     bool
	CreatedAt    time.Time
}
