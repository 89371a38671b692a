// Package reminder はレビュー待ち記事の算出とリマインダーメッセージの組み立てを提供する。
package reminder

import (
	"fmt"
	"time"

	"github.com/hitoshi/rssdigest/internal/model"
	"github.com/hitoshi/rssdigest/internal/slack"
)

// DefaultLookback はレビュー対象とみなす期間のデフォルト値。
const DefaultLookback = 24 * time.Hour

// Pending はルックバック期間内に取り込まれ、まだ公開されていない記事を返す。
// 基準時刻は fetched、不正な場合は published を使用する。
// どちらも不正な記事はその1件のみスキップする。入力は変更しない。
func Pending(articles []model.Article, published map[string]struct{}, now time.Time, lookback time.Duration) []model.Article {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	cutoff := now.Add(-lookback)

	var pending []model.Article
	for _, a := range articles {
		if _, ok := published[a.ID]; ok {
			continue
		}
		ref, ok := referenceTime(a)
		if !ok {
			continue
		}
		if !ref.Before(cutoff) {
			pending = append(pending, a)
		}
	}
	return pending
}

func referenceTime(a model.Article) (time.Time, bool) {
	if a.Fetched.Valid() {
		return a.Fetched.Time, true
	}
	if a.Published.Valid() {
		return a.Published.Time, true
	}
	return time.Time{}, false
}

// Greeting はレビュー待ち件数に応じた挨拶文を返す。
func Greeting(count int) string {
	const greeting = "Good morning!"
	switch count {
	case 0:
		return greeting + " No new articles to review today."
	case 1:
		return greeting + " You have 1 new article to review."
	default:
		return fmt.Sprintf("%s You have %d new articles to review.", greeting, count)
	}
}

// BuildMessage はレビュー担当者へのDMを組み立てる。
// reviewURL が空の場合はボタンを付けない。
func BuildMessage(userID string, count int, reviewURL string) slack.Message {
	text := Greeting(count)
	blocks := []slack.Block{
		slack.Section("*" + text + "*"),
		slack.Section("Review and publish articles from your RSS feeds:"),
	}
	if reviewURL != "" {
		blocks = append(blocks, slack.LinkButton("Review Articles", reviewURL, "primary"))
	}
	return slack.Message{
		Channel: userID,
		Text:    text,
		Blocks:  blocks,
	}
}
