// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやAIサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordAICallSuccess(capability string)
	RecordAICallFailure(capability string, reason string)
	RecordAILatency(capability string, duration time.Duration)
	RecordAITokensUsed(capability string, tokens int)
	RecordQuotaRejection()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	aiCallSuccess   *prometheus.CounterVec
	aiCallFail      *prometheus.CounterVec
	aiLatency       *prometheus.HistogramVec
	aiTokensUsed    *prometheus.CounterVec
	quotaRejections prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		aiCallSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_ai_call_success_total",
			Help: "AI呼び出し成功の合計数（機能別）",
		}, []string{"capability"}),
		aiCallFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_ai_call_fail_total",
			Help: "AI呼び出し失敗の合計数（機能・理由別）",
		}, []string{"capability", "reason"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fintrack_ai_latency_seconds",
			Help:    "AI呼び出しのレイテンシ（秒、機能別）",
			Buckets: prometheus.DefBuckets,
		}, []string{"capability"}),
		aiTokensUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_ai_tokens_used_total",
			Help: "AI呼び出しで消費したトークンの合計数（機能別）",
		}, []string{"capability"}),
		quotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_demo_quota_rejections_total",
			Help: "デモ取引上限による拒否の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.aiCallSuccess,
		c.aiCallFail,
		c.aiLatency,
		c.aiTokensUsed,
		c.quotaRejections,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordAICallSuccess はAI呼び出し成功を記録する。
func (c *Collector) RecordAICallSuccess(capability string) {
	c.aiCallSuccess.WithLabelValues(capability).Inc()
}

// RecordAICallFailure はAI呼び出し失敗を記録する。
func (c *Collector) RecordAICallFailure(capability string, reason string) {
	c.aiCallFail.WithLabelValues(capability, reason).Inc()
}

// RecordAILatency はAI呼び出しのレイテンシを記録する。
func (c *Collector) RecordAILatency(capability string, duration time.Duration) {
	c.aiLatency.WithLabelValues(capability).Observe(duration.Seconds())
}

// RecordAITokensUsed はAI呼び出しで消費したトークン数を記録する。
func (c *Collector) RecordAITokensUsed(capability string, tokens int) {
	c.aiTokensUsed.WithLabelValues(capability).Add(float64(tokens))
}

// RecordQuotaRejection はデモ取引上限による拒否を記録する。
func (c *Collector) RecordQuotaRejection() {
	c.quotaRejections.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
