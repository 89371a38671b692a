// Package filter はキーワードによる関連度スコアリングと、実行単位の記事選別を提供する。
package filter

import (
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/rssdigest/internal/article"
	"github.com/hitoshi/rssdigest/internal/model"
)

// PerFeedLimit は1フィードあたりに評価するエントリの上限。
const PerFeedLimit = 20

// Score はタイトルとサマリーに含まれるキーワードの割合を返す。
// キーワード未設定の場合は常に 1.0（すべて関連あり）とする。
func Score(title, summary string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 1.0
	}

	content := strings.ToLower(title + " " + summary)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(content, strings.ToLower(kw)) {
			matches++
		}
	}

	score := float64(matches) / float64(len(keywords))
	if score > 1.0 {
		return 1.0
	}
	return score
}

// Batch は1フィード分の正規化済み記事を表す。
type Batch struct {
	Source   model.FeedSource
	Articles []model.Article
}

// Selection は選別結果を保持する。
type Selection struct {
	// Accepted は関連度の基準を満たし、上限内で受け入れた新規記事。
	Accepted []model.Article
	// Known は既知の記事。選別の対象外で、上限にも数えない。
	Known []model.Article
	// Rejected は関連度が基準未満だった件数。
	Rejected int
	// Deferred は上限到達により次回以降に持ち越した件数。
	Deferred int
	// Dropped はフィードあたりの上限を超えたため評価しなかった件数。
	Dropped int
	// Stale は保持期間外のため評価しなかった新規記事の件数。
	Stale int
}

// Selector はフィード設定に基づいて記事を選別する。
type Selector struct {
	minScore float64
	maxPosts int
	cutoff   time.Time
	logger   *slog.Logger
}

// NewSelector はSelectorの新しいインスタンスを生成する。
func NewSelector(settings model.FeedSettings, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		minScore: settings.MinScore(),
		maxPosts: settings.MaxPosts(),
		logger:   logger,
	}
}

// WithCutoff は cutoff より前に公開された新規記事を評価対象から外す。
// cutoff には記事ストアの保持期間の起点を渡す。
func (s *Selector) WithCutoff(cutoff time.Time) *Selector {
	s.cutoff = cutoff
	return s
}

// Select はフィード定義順に記事を評価する。
// 各フィードでは公開日時の新しい順に先頭 PerFeedLimit 件のみを評価する。
// known に含まれる記事はそのまま Known に入り、上限を消費しない。
// 新規記事はスコアが基準以上の場合に受け入れ、全フィード合計で上限に達した後は
// Deferred として次回に持ち越す。
func (s *Selector) Select(batches []Batch, known func(id string) bool) Selection {
	var sel Selection

	for _, b := range batches {
		entries := make([]model.Article, len(b.Articles))
		copy(entries, b.Articles)
		article.SortByPublishedDesc(entries)

		if len(entries) > PerFeedLimit {
			sel.Dropped += len(entries) - PerFeedLimit
			entries = entries[:PerFeedLimit]
		}

		for _, a := range entries {
			if known != nil && known(a.ID) {
				sel.Known = append(sel.Known, a)
				continue
			}
			if !s.cutoff.IsZero() && !article.InWindow(a.Published, s.cutoff) {
				sel.Stale++
				continue
			}

			score := Score(a.Title, a.Summary, b.Source.Keywords)
			if score < s.minScore {
				s.logger.Debug("関連度が低いためスキップ",
					slog.String("feed_id", b.Source.ID),
					slog.String("article_id", a.ID),
					slog.String("title", truncateTitle(a.Title)),
					slog.Float64("score", score),
				)
				sel.Rejected++
				continue
			}

			if len(sel.Accepted) >= s.maxPosts {
				sel.Deferred++
				continue
			}
			sel.Accepted = append(sel.Accepted, a)
		}
	}

	if sel.Deferred > 0 {
		s.logger.Info("1回あたりの上限に達したため残りを次回に持ち越し",
			slog.Int("max_posts_per_run", s.maxPosts),
			slog.Int("deferred", sel.Deferred),
		)
	}

	return sel
}

func truncateTitle(title string) string {
	r := []rune(title)
	if len(r) > 50 {
		return string(r[:50])
	}
	return title
}
