// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// ログイン結果とカレンダーAPI呼び出しの観測を提供する。
type Collector struct {
	loginSuccess prometheus.Counter
	loginFail    *prometheus.CounterVec
	fetchLatency prometheus.Histogram
	fetchStatus  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calview_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calview_login_fail_total",
			Help: "ログイン失敗の合計数（失敗理由別）",
		}, []string{"reason"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "calview_calendar_fetch_latency_seconds",
			Help:    "カレンダーAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		fetchStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calview_calendar_fetch_status_total",
			Help: "カレンダーAPIのHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFail,
		c.fetchLatency,
		c.fetchStatus,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を失敗理由（exchange, persistence, session）付きで記録する。
func (c *Collector) RecordLoginFailure(reason string) {
	c.loginFail.WithLabelValues(reason).Inc()
}

// RecordFetchLatency はカレンダーAPI呼び出しのレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordFetchStatus はカレンダーAPIのHTTPステータスコードを記録する。
func (c *Collector) RecordFetchStatus(statusCode int) {
	c.fetchStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
