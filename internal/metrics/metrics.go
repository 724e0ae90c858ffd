// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	RecordSessionRecorded(bookID string)
	RecordBookCompleted(bookID string)
	RecordGoalAchieved(year int)
	RecordCoverFetchSuccess()
	RecordCoverFetchFailure()
	RecordSessionLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sessionsRecorded  prometheus.Counter
	booksCompleted    prometheus.Counter
	goalsAchieved     prometheus.Counter
	coverFetchSuccess prometheus.Counter
	coverFetchFail    prometheus.Counter
	sessionLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_sessions_recorded_total",
			Help: "記録された読書セッションの合計数",
		}),
		booksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_books_completed_total",
			Help: "進捗導出により読了に達した蔵書の合計数",
		}),
		goalsAchieved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_goals_achieved_total",
			Help: "達成された読書目標の合計数",
		}),
		coverFetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_cover_fetch_success_total",
			Help: "カバー画像取得成功の合計数",
		}),
		coverFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_cover_fetch_fail_total",
			Help: "カバー画像取得失敗の合計数",
		}),
		sessionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookshelf_session_record_latency_seconds",
			Help:    "セッション記録から進捗導出完了までのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.sessionsRecorded,
		c.booksCompleted,
		c.goalsAchieved,
		c.coverFetchSuccess,
		c.coverFetchFail,
		c.sessionLatency,
	)

	return c
}

// RecordSessionRecorded は読書セッションの記録を記録する。
func (c *Collector) RecordSessionRecorded(bookID string) {
	c.sessionsRecorded.Inc()
}

// RecordBookCompleted は蔵書の読了到達を記録する。
func (c *Collector) RecordBookCompleted(bookID string) {
	c.booksCompleted.Inc()
}

// RecordGoalAchieved は読書目標の達成を記録する。
func (c *Collector) RecordGoalAchieved(year int) {
	c.goalsAchieved.Inc()
}

// RecordCoverFetchSuccess はカバー画像取得成功を記録する。
func (c *Collector) RecordCoverFetchSuccess() {
	c.coverFetchSuccess.Inc()
}

// RecordCoverFetchFailure はカバー画像取得失敗を記録する。
func (c *Collector) RecordCoverFetchFailure() {
	c.coverFetchFail.Inc()
}

// RecordSessionLatency はセッション記録処理のレイテンシを記録する。
func (c *Collector) RecordSessionLatency(duration time.Duration) {
	c.sessionLatency.Observe(duration.Seconds())
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
