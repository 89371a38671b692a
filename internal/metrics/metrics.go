// Package metrics はPrometheusメトリクスの収集とPushgatewayへの送信を提供する。
//
// バッチ実行はスクレイプできないため、実行ごとのレジストリに記録し、
// 実行終了時に Pushgateway へ送信する。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 各コマンドの処理から利用する。
type MetricsCollector interface {
	RecordFetchSuccess(feedID string)
	RecordFetchFailure(feedID string, reason string)
	RecordMalformedFeed(feedID string)
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
	RecordEntriesSkipped(reason string, count int)
	RecordMerge(inserted, retained, pruned int)
	RecordMessagePosted(kind string)
	RecordMessageFailed(kind string)
	RecordPendingArticles(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	fetchSuccess     *prometheus.CounterVec
	fetchFail        *prometheus.CounterVec
	malformedFeeds   *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	fetchLatency     prometheus.Histogram
	entriesSkipped   *prometheus.CounterVec
	articlesInserted prometheus.Counter
	articlesRetained prometheus.Gauge
	articlesPruned   prometheus.Counter
	messagesPosted   *prometheus.CounterVec
	messagesFailed   *prometheus.CounterVec
	pendingArticles  prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rssdigest_fetch_success_total",
			Help: "フィード取得成功の合計数",
		}, []string{"feed_id"}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rssdigest_fetch_fail_total",
			Help: "フィード取得失敗の合計数",
		}, []string{"feed_id", "reason"}),
		malformedFeeds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rssdigest_malformed_feed_total",
			Help: "補正して解析したフィードの合計数",
		}, []string{"feed_id"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rssdigest_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rssdigest_fetch_latency_seconds",
			Help:    "フィード取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		entriesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rssdigest_entries_skipped_total",
			Help: "理由別のスキップされたエントリ数",
		}, []string{"reason"}),
		articlesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rssdigest_articles_inserted_total",
			Help: "記事ストアに新規追加された記事数",
		}),
		articlesRetained: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rssdigest_articles_retained",
			Help: "保持期間内のため残った既存記事数",
		}),
		articlesPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rssdigest_articles_pruned_total",
			Help: "保持期間外として除外された記事数",
		}),
		messagesPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rssdigest_messages_posted_total",
			Help: "種類別の投稿成功数",
		}, []string{"kind"}),
		messagesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rssdigest_messages_failed_total",
			Help: "種類別の投稿失敗数",
		}, []string{"kind"}),
		pendingArticles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rssdigest_pending_articles",
			Help: "レビュー待ちの記事数",
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.malformedFeeds,
		c.httpStatus,
		c.fetchLatency,
		c.entriesSkipped,
		c.articlesInserted,
		c.articlesRetained,
		c.articlesPruned,
		c.messagesPosted,
		c.messagesFailed,
		c.pendingArticles,
	)

	return c
}

// RecordFetchSuccess はフィード取得成功を記録する。
func (c *Collector) RecordFetchSuccess(feedID string) {
	c.fetchSuccess.WithLabelValues(feedID).Inc()
}

// RecordFetchFailure はフィード取得失敗を記録する。
func (c *Collector) RecordFetchFailure(feedID string, reason string) {
	c.fetchFail.WithLabelValues(feedID, reason).Inc()
}

// RecordMalformedFeed は補正後に解析できたフィードを記録する。
func (c *Collector) RecordMalformedFeed(feedID string) {
	c.malformedFeeds.WithLabelValues(feedID).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency はフィード取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordEntriesSkipped はスキップしたエントリ数を理由別に記録する。
func (c *Collector) RecordEntriesSkipped(reason string, count int) {
	if count <= 0 {
		return
	}
	c.entriesSkipped.WithLabelValues(reason).Add(float64(count))
}

// RecordMerge は記事ストアのマージ結果を記録する。
func (c *Collector) RecordMerge(inserted, retained, pruned int) {
	c.articlesInserted.Add(float64(inserted))
	c.articlesRetained.Set(float64(retained))
	c.articlesPruned.Add(float64(pruned))
}

// RecordMessagePosted は投稿成功を記録する。
func (c *Collector) RecordMessagePosted(kind string) {
	c.messagesPosted.WithLabelValues(kind).Inc()
}

// RecordMessageFailed は投稿失敗を記録する。
func (c *Collector) RecordMessageFailed(kind string) {
	c.messagesFailed.WithLabelValues(kind).Inc()
}

// RecordPendingArticles はレビュー待ちの記事数を記録する。
func (c *Collector) RecordPendingArticles(count int) {
	c.pendingArticles.Set(float64(count))
}
