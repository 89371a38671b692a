package publish

import (
	"time"

	"github.com/hitoshi/rssdigest/internal/model"
)

// DefaultTrackingLimit はレガシー単発実行モードで保持する投稿済みIDの上限。
const DefaultTrackingLimit = 1000

// Posted は投稿済みID集合を返す。
func Posted(state model.TrackingState) map[string]struct{} {
	set := make(map[string]struct{}, len(state.PostedItems))
	for _, id := range state.PostedItems {
		set[id] = struct{}{}
	}
	return set
}

// UpdateTracking は今回投稿したIDを追記した新しい状態を返す。
// 既に含まれているIDは追加しない。上限を超えた場合は挿入順で古いものから破棄し、
// 最後に挿入された max 件を残す。
func UpdateTracking(state model.TrackingState, posted []string, now time.Time, max int) model.TrackingState {
	if max <= 0 {
		max = DefaultTrackingLimit
	}

	seen := Posted(state)
	items := append([]string{}, state.PostedItems...)
	for _, id := range posted {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		items = append(items, id)
	}
	if len(items) > max {
		items = items[len(items)-max:]
	}

	ts := model.NewTimestamp(now)
	return model.TrackingState{
		PostedItems: items,
		LastCheck:   ts,
		Stats: model.TrackingStats{
			TotalItemsPosted: state.Stats.TotalItemsPosted + len(posted),
			LastRunPosted:    len(posted),
			LastRunTime:      ts,
		},
	}
}
