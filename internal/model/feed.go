// Package model はドメインモデルを定義する。
package model

// FeedSource は feeds.json に定義されたRSSフィードを表す。
// コアからは読み取り専用として扱う。
type FeedSource struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Enabled  *bool    `json:"enabled,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// IsEnabled はフィードが有効かを返す。未指定の場合は有効とみなす。
func (f FeedSource) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// FeedSettings はフィード全体に適用される選別設定を表す。
type FeedSettings struct {
	MinRelevanceScore *float64 `json:"min_relevance_score,omitempty"`
	MaxPostsPerRun    *int     `json:"max_posts_per_run,omitempty"`
}

const (
	// DefaultMinRelevanceScore は min_relevance_score 未指定時のデフォルト値。
	DefaultMinRelevanceScore = 0.5
	// DefaultMaxPostsPerRun は max_posts_per_run 未指定時のデフォルト値。
	DefaultMaxPostsPerRun = 10
)

// MinScore は最小関連度スコアを返す。
func (s FeedSettings) MinScore() float64 {
	if s.MinRelevanceScore == nil {
		return DefaultMinRelevanceScore
	}
	return *s.MinRelevanceScore
}

// MaxPosts は1回の実行で受け入れる最大件数を返す。
func (s FeedSettings) MaxPosts() int {
	if s.MaxPostsPerRun == nil {
		return DefaultMaxPostsPerRun
	}
	return *s.MaxPostsPerRun
}

// FeedsFile は feeds.json 全体を表す。
type FeedsFile struct {
	Feeds    []FeedSource `json:"feeds"`
	Settings FeedSettings `json:"settings"`
}

// EnabledFeeds は有効なフィードのみを定義順で返す。
func (f FeedsFile) EnabledFeeds() []FeedSource {
	enabled := make([]FeedSource, 0, len(f.Feeds))
	for _, feed := range f.Feeds {
		if feed.IsEnabled() {
			enabled = append(enabled, feed)
		}
	}
	return enabled
}
