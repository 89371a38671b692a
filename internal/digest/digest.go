// Package digest は記事一覧をSlack向けのテキストに整形する。
//
// テンプレートはテンプレートエンジンではなく、固定のプレースホルダを
// 文字列置換するだけの仕組みとする。
//
//	{articles}   記事ごとのブロックを連結したテキスト
//	{feed_count} 記事に含まれるフィード数（feed_id の異なり数）
//	{count}      記事数
//
// これ以外の {xxx} はそのまま残る。
package digest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/hitoshi/rssdigest/internal/model"
	"github.com/hitoshi/rssdigest/internal/slack"
)

const (
	// SummaryWidth はダイジェスト内のサマリーの最大表示幅。
	SummaryWidth = 200
	// SingleSummaryWidth は単発投稿メッセージのサマリーの最大表示幅。
	SingleSummaryWidth = 300
	// DateLayout は公開日の表示形式。
	DateLayout = "Jan 02, 2006"

	ellipsis = "..."
)

// プレースホルダ
const (
	PlaceholderArticles  = "{articles}"
	PlaceholderFeedCount = "{feed_count}"
	PlaceholderCount     = "{count}"
)

// Format は記事をテンプレートに埋め込んだテキストを返す。
func Format(articles []model.Article, template string) string {
	blocks := make([]string, 0, len(articles))
	feeds := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		blocks = append(blocks, renderArticle(a))
		feeds[a.FeedID] = struct{}{}
	}

	r := strings.NewReplacer(
		PlaceholderArticles, strings.Join(blocks, "\n"),
		PlaceholderFeedCount, strconv.Itoa(len(feeds)),
		PlaceholderCount, strconv.Itoa(len(articles)),
	)
	return r.Replace(template)
}

func renderArticle(a model.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "• *%s*\n", slack.Link(a.Link, a.Title))
	fmt.Fprintf(&b, "  _%s_ • %s\n", slack.Escape(a.FeedName), FormatDate(a.Published))
	if summary := strings.TrimSpace(a.Summary); summary != "" {
		fmt.Fprintf(&b, "  %s\n", slack.Escape(runewidth.Truncate(summary, SummaryWidth, ellipsis)))
	}
	return b.String()
}

// FormatDate は公開日を "Jan 02, 2006" 形式で返す。
// 不正な時刻の場合は保存されている文字列をそのまま返す。
func FormatDate(ts model.Timestamp) string {
	if !ts.Valid() {
		return ts.Raw
	}
	return ts.Time.UTC().Format(DateLayout)
}

// FormatSingle はレガシー単発実行モードの1記事分のメッセージを返す。
func FormatSingle(a model.Article) string {
	summary := runewidth.Truncate(strings.TrimSpace(a.Summary), SingleSummaryWidth, ellipsis)
	return fmt.Sprintf("*%s*\n\n%s\n\n%s • Source: %s",
		slack.Escape(a.Title), slack.Escape(summary), slack.Link(a.Link, "Read more"), slack.Escape(a.FeedName))
}

// BuildMessage はダイジェスト投稿用のメッセージを組み立てる。
func BuildMessage(channel string, articles []model.Article, template string) slack.Message {
	return slack.Message{
		Channel: channel,
		Text:    fmt.Sprintf("Daily News Digest - %d articles", len(articles)),
		Blocks:  []slack.Block{slack.Section(Format(articles, template))},
	}
}
