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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordProvisioningSuccess()
	RecordProvisioningFailure(reason string)
	RecordAuthorizationDenied(entity string)
	RecordReviewCreated(mediaType string)
	RecordCatalogRequest(provider string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	provisioningOK   prometheus.Counter
	provisioningFail *prometheus.CounterVec
	authzDenied      *prometheus.CounterVec
	reviewsCreated   *prometheus.CounterVec
	catalogRequests  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medialog_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "medialog_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		provisioningOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medialog_provisioning_success_total",
			Help: "プロフィール自動プロビジョニング成功の合計数",
		}),
		provisioningFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medialog_provisioning_fail_total",
			Help: "プロフィール自動プロビジョニング失敗の合計数",
		}, []string{"reason"}),
		authzDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medialog_authz_denied_total",
			Help: "認可拒否の合計数",
		}, []string{"entity"}),
		reviewsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medialog_reviews_created_total",
			Help: "作成されたレビューの合計数",
		}, []string{"media_type"}),
		catalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medialog_catalog_requests_total",
			Help: "外部カタログへの問い合わせの合計数",
		}, []string{"provider"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.provisioningOK,
		c.provisioningFail,
		c.authzDenied,
		c.reviewsCreated,
		c.catalogRequests,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordProvisioningSuccess はプロビジョニング成功を記録する。
func (c *Collector) RecordProvisioningSuccess() {
	c.provisioningOK.Inc()
}

// RecordProvisioningFailure はプロビジョニング失敗を記録する。
func (c *Collector) RecordProvisioningFailure(reason string) {
	c.provisioningFail.WithLabelValues(reason).Inc()
}

// RecordAuthorizationDenied は認可拒否を記録する。
func (c *Collector) RecordAuthorizationDenied(entity string) {
	c.authzDenied.WithLabelValues(entity).Inc()
}

// RecordReviewCreated はレビュー作成を記録する。
func (c *Collector) RecordReviewCreated(mediaType string) {
	c.reviewsCreated.WithLabelValues(mediaType).Inc()
}

// RecordCatalogRequest は外部カタログへの問い合わせを記録する。
func (c *Collector) RecordCatalogRequest(provider string) {
	c.catalogRequests.WithLabelValues(provider).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
