package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含み、`{"error": {...}}` 形式で返却される。
type APIError struct {
	Code     string         // エラーコード
	Message  string         // エラーメッセージ
	Category string         // カテゴリ: auth, validation, quota, ai, system
	Action   string         // ユーザー向け対処方法
	Context  map[string]any // クライアント表示用の追加情報（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	ErrCodeAccountInactive         = "ACCOUNT_INACTIVE"
	ErrCodeTokenRequired           = "TOKEN_REQUIRED"
	ErrCodeInvalidToken            = "INVALID_TOKEN"
	ErrCodeTokenExpired            = "TOKEN_EXPIRED"
	ErrCodeUserNotFound            = "USER_NOT_FOUND"
	ErrCodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	ErrCodeDemoLimitReached        = "DEMO_LIMIT_REACHED"
	ErrCodeValidation              = "VALIDATION_ERROR"
	ErrCodeNotFound                = "NOT_FOUND"
	ErrCodeAITimeout               = "AI_TIMEOUT"
	ErrCodeAIUpstream              = "AI_UPSTREAM"
	ErrCodeAIResponseMalformed     = "AI_RESPONSE_MALFORMED"
	ErrCodeInternal                = "INTERNAL_ERROR"
)

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// アカウントの存在有無を漏らさないよう、未登録メールにも同じエラーを使う。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "Check your email and password, then try again.",
	}
}

// NewAccountInactiveError は無効化済みアカウントのエラーを生成する。
func NewAccountInactiveError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountInactive,
		Message:  "Account is inactive. Please contact support.",
		Category: "auth",
		Action:   "Contact the administrator to reactivate the account.",
	}
}

// NewTokenRequiredError はトークン未提示エラーを生成する。
func NewTokenRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenRequired,
		Message:  "Access token required",
		Category: "auth",
		Action:   "Log in and send the token in the Authorization header.",
	}
}

// NewInvalidTokenError は署名・形式が不正なトークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "Invalid token",
		Category: "auth",
		Action:   "Log in again to obtain a new token.",
	}
}

// NewTokenExpiredError は期限切れトークンのエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "Token expired",
		Category: "auth",
		Action:   "Log in again to obtain a new token.",
	}
}

// NewUserNotFoundError はトークンに対応するユーザーが存在しない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewInsufficientPermissionsError は役割不一致エラーを生成する。
func NewInsufficientPermissionsError() *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientPermissions,
		Message:  "Insufficient permissions",
		Category: "auth",
		Action:   "This endpoint is not available for your account.",
	}
}

// NewDemoLimitError はデモ取引件数上限エラーを生成する。
// クライアント表示用に現在件数と上限をContextへ含める。
func NewDemoLimitError(currentCount, limit int) *APIError {
	return &APIError{
		Code:     ErrCodeDemoLimitReached,
		Message:  fmt.Sprintf("Demo account has reached the limit of %d transactions. Please use \"Delete All Data\" to reset.", limit),
		Category: "quota",
		Action:   "Reset the demo data to continue adding transactions.",
		Context: map[string]any{
			"currentCount": currentCount,
			"limit":        limit,
		},
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "Fix the request payload and try again.",
	}
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s not found", resource),
		Category: "validation",
		Action:   "Check the resource ID.",
	}
}

// NewAITimeoutError はAI呼び出しのタイムアウトエラーを生成する。再試行可能。
func NewAITimeoutError() *APIError {
	return &APIError{
		Code:     ErrCodeAITimeout,
		Message:  "AI request timed out",
		Category: "ai",
		Action:   "Try the request again.",
	}
}

// NewAIUpstreamError はAIコラボレーターの呼び出し失敗エラーを生成する。
func NewAIUpstreamError() *APIError {
	return &APIError{
		Code:     ErrCodeAIUpstream,
		Message:  "AI service is unavailable",
		Category: "ai",
		Action:   "Try again later.",
	}
}

// NewAIResponseMalformedError はAI応答が期待した構造に解析できない場合のエラーを生成する。
// 誤ったデータとして握り潰さず、呼び出し元へ必ず伝播させる。
func NewAIResponseMalformedError() *APIError {
	return &APIError{
		Code:     ErrCodeAIResponseMalformed,
		Message:  "AI response could not be parsed",
		Category: "ai",
		Action:   "Try the request again.",
	}
}
