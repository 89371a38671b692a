// Package model はドメインモデルを定義する。
package model

import "time"

// Article はフィードから取り込み、レビュー待ちとして保存される記事を表す。
// ID は同一性キーであり、一度割り当てられたら変更されない。
type Article struct {
	ID        string    `json:"id"`
	FeedID    string    `json:"feed_id"`
	FeedName  string    `json:"feed_name"`
	FeedURL   string    `json:"feed_url"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Summary   string    `json:"summary"` // タグ除去済み、最大500文字
	Published Timestamp `json:"published"`
	Fetched   Timestamp `json:"fetched"` // ストアへの初回挿入時に設定される
}

// ArticleSnapshot は articles スナップショット全体を表す。
type ArticleSnapshot struct {
	Articles    []Article `json:"articles"`
	LastUpdated Timestamp `json:"last_updated"`
}

// Index はID をキーにした記事のルックアップを返す。
// 同一IDが重複している場合は先に出現したものを優先する。
func (s ArticleSnapshot) Index() map[string]Article {
	idx := make(map[string]Article, len(s.Articles))
	for _, a := range s.Articles {
		if _, ok := idx[a.ID]; ok {
			continue
		}
		idx[a.ID] = a
	}
	return idx
}

// RawEntry はフィードパーサーから取得した未正規化のエントリを表す。
// すべてのフィールドは任意項目。
type RawEntry struct {
	ID          string
	Link        string
	Title       string
	Summary     string
	Description string // content:encoded 等の本文。Summaryが空の場合に使用する
	Published   *time.Time
	Updated     *time.Time
}
