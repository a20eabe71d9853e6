package model

import (
	"encoding/json"
	"time"
)

// InstructionType はAI指示の適用対象を表す。
// globalは全てのプロンプトに、それ以外は対応する機能のプロンプトにのみ含まれる。
type InstructionType string

const (
	// InstructionTypeGlobal は全AI機能に適用される指示。
	InstructionTypeGlobal InstructionType = "global"
	// InstructionTypeAdvice は財務アドバイス機能向けの指示。
	InstructionTypeAdvice InstructionType = "financial_advice"
	// InstructionTypeCategorization は自動分類機能向けの指示。
	InstructionTypeCategorization InstructionType = "categorization"
	// InstructionTypeBudget は予算提案機能向けの指示。
	InstructionTypeBudget InstructionType = "budget"
)

// Valid はtypeが定義済みの値かどうかを返す。
func (t InstructionType) Valid() bool {
	switch t {
	case InstructionTypeGlobal, InstructionTypeAdvice,
		InstructionTypeCategorization, InstructionTypeBudget:
		return true
	}
	return false
}

// AIInstruction は管理者が作成するAI向けの行動指示。
// priorityが高いものから順にシステムプロンプトへ連結される。
type AIInstruction struct {
	ID        string
	Type      InstructionType
	Text      string
	Priority  int
	IsActive  bool
	CreatedBy string
	CreatedAt time.Time
}

// AIPrompt は管理者が保守する定型プロンプトのカタログエントリ。
type AIPrompt struct {
	ID          string
	Title       string
	Description string
	PromptText  string
	Category    string
	IsActive    bool
	CreatedAt   time.Time
}

// ChatRecord はAI会話の追記専用の監査ログ。
type ChatRecord struct {
	ID         string
	UserID     string
	Message    string
	Response   string
	TokensUsed int
	Context    json.RawMessage
	CreatedAt  time.Time
}
