// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role はユーザーの役割を表す閉じた列挙型。
// デモ環境には user と super_admin の2種類のみ存在する。
type Role string

const (
	// RoleUser は家計データを操作できる一般デモユーザー。
	RoleUser Role = "user"
	// RoleSuperAdmin はAI指示・設定管理のみアクセスできる管理ペルソナ。
	RoleSuperAdmin Role = "super_admin"
)

// Valid はroleが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSuperAdmin
}

// User はログイン可能なアカウントを表す。
// デモ環境では固定の2ユーザー（一般デモユーザーとスーパー管理者）のみ存在する。
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	MonthlyIncome *decimal.Decimal // 固定月収。変動収入ユーザーはnil
	Role          Role
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
