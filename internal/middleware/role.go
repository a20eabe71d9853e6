package middleware

import (
	"net/http"

	"github.com/hitoshi/fintrack/internal/model"
)

// NewRoleMiddleware は認証済みユーザーの役割が許可リストに含まれることを
// 検証するミドルウェアを返す。認証ミドルウェアの後に配置する。
// 役割が一致しない場合は403を返す。
func NewRoleMiddleware(allowed ...model.Role) func(next http.Handler) http.Handler {
	allowedSet := make(map[model.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenRequiredError())
				return
			}

			if _, ok := allowedSet[user.Role]; !ok {
				WriteErrorResponse(w, http.StatusForbidden, model.NewInsufficientPermissionsError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
