package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/fintrack/internal/model"
)

// TransactionCounter は取引件数の取得に必要なインターフェース。
// repository.TransactionRepositoryの部分集合として定義する。
type TransactionCounter interface {
	CountByUserID(ctx context.Context, userID string) (int, error)
}

// SettingReader は設定値の取得に必要なインターフェース。
// repository.SettingRepositoryの部分集合として定義する。
type SettingReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// QuotaMetrics はクォータ拒否の記録に必要なインターフェース。
type QuotaMetrics interface {
	RecordQuotaRejection()
}

// NewQuotaMiddleware はデモアカウントの取引件数上限を検証するミドルウェアを返す。
// 取引を作成するエンドポイントにのみ配置する。認証ミドルウェアの後に配置する。
//
// 上限はロールが user のアカウントにのみ適用され、super_admin は対象外。
// 上限値は設定 demo_user_transaction_limit をリクエストごとに読み取り、
// 未登録・解釈不能な場合は既定値を使う。現在件数が上限以上なら403を返す。
// 上限の読み取りや件数の取得に失敗した場合はリクエストを通す。
// クォータはベストエフォートのガードであり、設定ストアの障害で
// デモ操作全体を止めないためのフェイルオープン。
// quotaMetricsはnilでもよい。
func NewQuotaMiddleware(counter TransactionCounter, settings SettingReader, quotaMetrics QuotaMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenRequiredError())
				return
			}

			// 1. user ロール以外は上限の対象外
			if user.Role != model.RoleUser {
				next.ServeHTTP(w, r)
				return
			}

			// 2. 上限値を設定から読み取る。未登録・不正値は既定値
			limit := model.DefaultDemoTransactionLimit
			value, err := settings.Get(r.Context(), model.SettingDemoTransactionLimit)
			if err != nil {
				slog.Warn("failed to read demo transaction limit, allowing request",
					slog.String("user_id", user.ID),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if value != "" {
				if parsed, perr := strconv.Atoi(value); perr == nil && parsed > 0 {
					limit = parsed
				}
			}

			// 3. 現在件数を取得し、上限に達していたら拒否
			count, err := counter.CountByUserID(r.Context(), user.ID)
			if err != nil {
				slog.Warn("failed to count transactions for quota, allowing request",
					slog.String("user_id", user.ID),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if count >= limit {
				slog.Info("demo transaction limit reached",
					slog.String("user_id", user.ID),
					slog.Int("count", count),
					slog.Int("limit", limit),
				)
				if quotaMetrics != nil {
					quotaMetrics.RecordQuotaRejection()
				}
				WriteErrorResponse(w, http.StatusForbidden, model.NewDemoLimitError(count, limit))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
