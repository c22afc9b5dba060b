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
// ハンドラー、サービス層、ストア、ワーカーから利用する。
type MetricsCollector interface {
	RecordEventLogged(eventType string, logSize int)
	RecordAnalysis(emotion, situation string, microAction bool)
	RecordStoreOperation(op, name string, duration time.Duration, err error)
	RecordStoreFallback(name, reason string)
	RecordHTTPStatus(statusCode int)
	RecordMemoryPruned(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	eventsLogged  *prometheus.CounterVec
	eventLogSize  prometheus.Gauge
	analyses      *prometheus.CounterVec
	microActions  prometheus.Counter
	storeLatency  *prometheus.HistogramVec
	storeErrors   *prometheus.CounterVec
	storeFallback *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
	memoryPruned  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		eventsLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "burnoutbuddy_events_logged_total",
			Help: "イベントログに追記されたイベント数",
		}, []string{"type"}),
		eventLogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "burnoutbuddy_event_log_size",
			Help: "直近の追記後のイベントログの件数",
		}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "burnoutbuddy_analyses_total",
			Help: "感情・状況タグ別のテキスト分類数",
		}, []string{"emotion", "situation"}),
		microActions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "burnoutbuddy_micro_action_total",
			Help: "緊急回復ガイドを返した応答数",
		}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "burnoutbuddy_store_operation_duration_seconds",
			Help:    "ドキュメントストア操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "document"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "burnoutbuddy_store_errors_total",
			Help: "ドキュメントストア操作の失敗数",
		}, []string{"op", "document"}),
		storeFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "burnoutbuddy_store_fallback_total",
			Help: "読み込みに失敗しデフォルト値を使用した回数",
		}, []string{"document", "reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "burnoutbuddy_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		memoryPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "burnoutbuddy_memory_pruned_total",
			Help: "保持期間切れで削除されたユーザー記憶の数",
		}),
	}

	reg.MustRegister(
		c.eventsLogged,
		c.eventLogSize,
		c.analyses,
		c.microActions,
		c.storeLatency,
		c.storeErrors,
		c.storeFallback,
		c.httpStatus,
		c.memoryPruned,
	)

	return c
}

// RecordEventLogged はイベントの追記と追記後のログ件数を記録する。
func (c *Collector) RecordEventLogged(eventType string, logSize int) {
	c.eventsLogged.WithLabelValues(eventType).Inc()
	c.eventLogSize.Set(float64(logSize))
}

// RecordAnalysis はテキスト分類の結果を記録する。
func (c *Collector) RecordAnalysis(emotion, situation string, microAction bool) {
	c.analyses.WithLabelValues(emotion, situation).Inc()
	if microAction {
		c.microActions.Inc()
	}
}

// RecordStoreOperation はストア操作のレイテンシと失敗を記録する。
func (c *Collector) RecordStoreOperation(op, name string, duration time.Duration, err error) {
	c.storeLatency.WithLabelValues(op, name).Observe(duration.Seconds())
	if err != nil {
		c.storeErrors.WithLabelValues(op, name).Inc()
	}
}

// RecordStoreFallback はデフォルト値へのフォールバックを記録する。
func (c *Collector) RecordStoreFallback(name, reason string) {
	c.storeFallback.WithLabelValues(name, reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordMemoryPruned は削除されたユーザー記憶の数を記録する。
func (c *Collector) RecordMemoryPruned(count int) {
	c.memoryPruned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// ワーカーモードでのPrometheusスクレイプに使用する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
