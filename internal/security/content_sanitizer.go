// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はAIが生成した回答テキストをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// AIの出力は外部サービス由来の信頼できない入力として扱い、
// bluemondayライブラリの許可リストベースのポリシーで
// 安全なタグのみを通過させる。
package security

import "github.com/microcosm-cc/bluemonday"

// ContentSanitizerService はAI回答のサニタイズ機能のインターフェースを定義する。
// 会話履歴への保存前およびAPI応答時に使用される。
type ContentSanitizerService interface {
	// Sanitize はAI回答をサニタイズして安全なテキストを返す。
	// 整形用の最小限のタグ（p, br, ul, ol, li, blockquote, pre, code, strong, em）のみを通過させ、
	// script, iframe, style, aタグおよびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// ポリシーの内容:
//   - 許可タグ: p, br, ul, ol, li, blockquote, pre, code, strong, em
//   - 禁止タグ: script, iframe, style, a, img および全てのon*イベント属性
//
// AI回答にリンクや画像を埋め込ませる用途はないため、aとimgも許可しない。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// Markdownレンダリング後の整形用タグのみ許可する
	// script, iframe, style等は許可リストに含めないことで自動的に除去される
	// on*イベント属性はbluemondayのデフォルトで許可されないため除去される
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はAI回答をサニタイズして安全なテキストを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
