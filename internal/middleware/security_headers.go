package middleware

import "net/http"

// NewSecurityHeadersMiddleware は全レスポンスにセキュリティヘッダーを付与する
// ミドルウェアを返す。JSON APIのみを提供するがブラウザから直接叩かれる可能性が
// あるため、コンテンツ解釈とフレーム埋め込みを禁止しておく。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			next.ServeHTTP(w, r)
		})
	}
}
