// Package model はドメインモデルを定義する。
package model

// PublishRecord は1回の公開バッチを表す。追記のみで更新されない。
type PublishRecord struct {
	Date         string    `json:"date"`
	ArticleIDs   []string  `json:"article_ids"`
	ArticleCount int       `json:"article_count"`
	SlackTS      string    `json:"slack_ts"`
	PublishedAt  Timestamp `json:"published_at"`
}

// PublishedState は published スナップショット全体を表す。
// PublishedArticles は公開済みIDの集合（初出順、重複なし）で、
// History とは独立した保持ポリシーを持つ。
type PublishedState struct {
	PublishedArticles []string        `json:"published_articles"`
	History           []PublishRecord `json:"history"`
}

// Set は公開済みIDの集合を返す。
func (s PublishedState) Set() map[string]struct{} {
	set := make(map[string]struct{}, len(s.PublishedArticles))
	for _, id := range s.PublishedArticles {
		set[id] = struct{}{}
	}
	return set
}
