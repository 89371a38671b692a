// Package model はドメインモデルを定義する。
package model

// TrackingState はレガシーな単発実行モードの投稿済み管理状態を表す。
// PostedItems は挿入順に並び、上限を超えた分は古いものから破棄される。
type TrackingState struct {
	PostedItems []string      `json:"posted_items"`
	LastCheck   Timestamp     `json:"last_check"`
	Stats       TrackingStats `json:"stats"`
}

// TrackingStats は実行統計を表す。
type TrackingStats struct {
	TotalItemsPosted int       `json:"total_items_posted"`
	LastRunPosted    int       `json:"last_run_posted"`
	LastRunTime      Timestamp `json:"last_run_time"`
}
