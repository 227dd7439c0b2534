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
// ミドルウェア、サービス層、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordLogin(success bool)
	RecordExport(kind string)
	SetOverduePlants(medium, high int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  prometheus.Histogram
	loginAttempts *prometheus.CounterVec
	csvExports    *prometheus.CounterVec
	overduePlants *prometheus.GaugeVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powerfleet_http_requests_total",
			Help: "HTTPリクエストの合計数",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "powerfleet_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powerfleet_login_attempts_total",
			Help: "ログイン試行の合計数",
		}, []string{"result"}),
		csvExports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powerfleet_csv_exports_total",
			Help: "CSVエクスポートの合計数",
		}, []string{"kind"}),
		overduePlants: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "powerfleet_maintenance_overdue_plants",
			Help: "保守期限を超過している発電所の数",
		}, []string{"priority"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.loginAttempts,
		c.csvExports,
		c.overduePlants,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.loginAttempts.WithLabelValues(result).Inc()
}

// RecordExport はCSVエクスポートを記録する。
func (c *Collector) RecordExport(kind string) {
	c.csvExports.WithLabelValues(kind).Inc()
}

// SetOverduePlants は優先度別の保守期限超過数を設定する。
func (c *Collector) SetOverduePlants(medium, high int) {
	c.overduePlants.WithLabelValues("Medium").Set(float64(medium))
	c.overduePlants.WithLabelValues("High").Set(float64(high))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type NopCollector struct{}

func (NopCollector) RecordHTTPRequest(string, int, time.Duration) {}
func (NopCollector) RecordLogin(bool)                             {}
func (NopCollector) RecordExport(string)                          {}
func (NopCollector) SetOverduePlants(int, int)                    {}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
