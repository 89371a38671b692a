// Package publish は公開済み記事の追跡を提供する。
//
// Tracker はダイジェスト投稿後の公開履歴と公開済みID集合を管理する。
// 公開済みID集合と履歴は独立した保持ポリシーを持ち、
// 履歴を切り詰めても集合からIDは削除されない。
package publish

import (
	"log/slog"
	"time"

	"github.com/hitoshi/rssdigest/internal/model"
)

// DefaultHistoryLimit は保持する公開履歴の件数。
const DefaultHistoryLimit = 30

// Tracker は公開状態の更新を行う。
type Tracker struct {
	historyLimit int
	logger       *slog.Logger
}

// NewTracker はTrackerの新しいインスタンスを生成する。
// historyLimit が0以下の場合はデフォルト値を使用する。
func NewTracker(historyLimit int, logger *slog.Logger) *Tracker {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{historyLimit: historyLimit, logger: logger}
}

// Resolve は公開リクエストのIDを記事ストアから解決する。
// ストアに存在しないIDは警告を出して除外する。同一リクエスト内の重複IDは1件にまとめる。
// 戻り値の記事とIDはリクエスト順に並ぶ。
func (t *Tracker) Resolve(ids []string, index map[string]model.Article) ([]model.Article, []string) {
	seen := make(map[string]struct{}, len(ids))
	articles := make([]model.Article, 0, len(ids))
	valid := make([]string, 0, len(ids))

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		a, ok := index[id]
		if !ok {
			t.logger.Warn("記事IDが見つかりません", slog.String("article_id", id))
			continue
		}
		articles = append(articles, a)
		valid = append(valid, id)
	}
	return articles, valid
}

// MarkPublished は公開済みとして記録した新しい状態を返す。
// 引数の state は変更しない。
//
// ストアに存在しないIDは除外し、1件も残らない場合は NO_VALID_ARTICLES エラーを返す
// （この場合は何も永続化してはならない）。
// 既に公開済みのIDを再度公開してもエラーにはならず、集合は重複なく保たれる。
// 履歴は新しい方から historyLimit 件のみ保持する。
func (t *Tracker) MarkPublished(
	state model.PublishedState,
	ids []string,
	index map[string]model.Article,
	messageRef string,
	now time.Time,
) (model.PublishedState, error) {
	_, valid := t.Resolve(ids, index)
	if len(valid) == 0 {
		return state, model.NewNoValidArticlesError()
	}

	now = now.UTC()
	record := model.PublishRecord{
		Date:         now.Format("2006-01-02"),
		ArticleIDs:   valid,
		ArticleCount: len(valid),
		SlackTS:      messageRef,
		PublishedAt:  model.NewTimestamp(now),
	}

	next := model.PublishedState{
		PublishedArticles: unionIDs(state.PublishedArticles, valid),
		History:           append(append([]model.PublishRecord{}, state.History...), record),
	}
	if len(next.History) > t.historyLimit {
		next.History = next.History[len(next.History)-t.historyLimit:]
	}

	t.logger.Info("公開状態を更新",
		slog.Int("article_count", len(valid)),
		slog.Int("published_total", len(next.PublishedArticles)),
		slog.Int("history", len(next.History)),
	)
	return next, nil
}

// unionIDs は初出順を保ったまま重複のない和集合を返す。
func unionIDs(current, added []string) []string {
	out := make([]string, 0, len(current)+len(added))
	seen := make(map[string]struct{}, len(current)+len(added))
	for _, list := range [][]string{current, added} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
