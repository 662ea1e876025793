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
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordAuthSuccess()
	RecordAuthFailure(reason string)
	RecordTokenIssued()
	RecordAuthLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authSuccess  prometheus.Counter
	authFail     *prometheus.CounterVec
	tokensIssued prometheus.Counter
	authLatency  prometheus.Histogram
	httpStatus   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authgate_auth_success_total",
			Help: "認証成功の合計数",
		}),
		authFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_auth_fail_total",
			Help: "認証失敗の合計数（失敗理由別）",
		}, []string{"reason"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authgate_tokens_issued_total",
			Help: "発行されたセッショントークンの合計数",
		}),
		authLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authgate_auth_latency_seconds",
			Help:    "認証フロー全体のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.authSuccess,
		c.authFail,
		c.tokensIssued,
		c.authLatency,
		c.httpStatus,
	)

	return c
}

// RecordAuthSuccess は認証成功を記録する。
func (c *Collector) RecordAuthSuccess() {
	c.authSuccess.Inc()
}

// RecordAuthFailure は認証失敗を失敗理由付きで記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFail.WithLabelValues(reason).Inc()
}

// RecordTokenIssued はセッショントークンの発行を記録する。
func (c *Collector) RecordTokenIssued() {
	c.tokensIssued.Inc()
}

// RecordAuthLatency は認証フローのレイテンシを記録する。
func (c *Collector) RecordAuthLatency(duration time.Duration) {
	c.authLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
