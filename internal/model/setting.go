package model

import "time"

// 管理設定の既知キー。ガード付きリクエストのたびに読み取られる。
const (
	// SettingDemoTransactionLimit はデモユーザーの取引件数上限。
	SettingDemoTransactionLimit = "demo_user_transaction_limit"
	// SettingAutoCategorization はAI自動分類の有効/無効。
	SettingAutoCategorization = "auto_categorization_enabled"
	// SettingChatbotEnabled はAIチャットボットの有効/無効。
	SettingChatbotEnabled = "chatbot_enabled"
	// SettingMaxTokensPerRequest はチャット1回あたりの最大出力トークン数。
	SettingMaxTokensPerRequest = "max_tokens_per_request"
)

// DefaultDemoTransactionLimit は設定が未登録の場合の取引件数上限。
const DefaultDemoTransactionLimit = 50

// AdminSetting はkey→valueの管理設定。super_adminのみが書き込める。
type AdminSetting struct {
	Key         string
	Value       string
	Description string
	UpdatedAt   time.Time
}
