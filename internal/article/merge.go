package article

import (
	"sort"
	"time"

	"github.com/hitoshi/rssdigest/internal/model"
)

// DefaultRetentionWindow は記事ストアの保持期間のデフォルト値。
const DefaultRetentionWindow = 7 * 24 * time.Hour

// MergeResult はマージ結果と、その内訳の件数を保持する。
type MergeResult struct {
	// Articles は保存対象の記事。公開日時の降順に並ぶ。
	Articles []model.Article
	// Inserted は今回新規に追加された記事。Fetched が設定済み。
	Inserted []model.Article
	// Retained は保持期間内のため残った既存記事の件数。
	Retained int
	// Pruned は保持期間外、または公開日時が不正なため除外された既存記事の件数。
	Pruned int
	// Skipped は保持期間外のため追加しなかった新規エントリの件数。
	Skipped int
}

// Merge は既存の記事と今回取得した記事をマージする。
//
// 同一性判定は ID のみで行う:
//  1. 既存記事と同じIDの記事は既存レコードを優先する（表示項目も上書きしない）
//  2. 新規記事は公開日時が保持期間内の場合のみ追加し、Fetched に now を設定する
//  3. 既存記事は今回取得されなくても保持期間内であれば残し、期間外なら除外する
//
// 出力は公開日時の降順で、同時刻の場合は出現順（今回取得分、既存分の順）を保つ。
func Merge(existing []model.Article, fresh []model.Article, now time.Time, window time.Duration) MergeResult {
	if window <= 0 {
		window = DefaultRetentionWindow
	}
	cutoff := now.Add(-window)

	index := make(map[string]model.Article, len(existing))
	for _, a := range existing {
		if _, ok := index[a.ID]; !ok {
			index[a.ID] = a
		}
	}

	var result MergeResult
	seen := make(map[string]struct{}, len(existing)+len(fresh))

	keepExisting := func(a model.Article) {
		if InWindow(a.Published, cutoff) {
			result.Articles = append(result.Articles, a)
			result.Retained++
			return
		}
		result.Pruned++
	}

	for _, a := range fresh {
		if a.ID == "" {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}

		if stored, ok := index[a.ID]; ok {
			keepExisting(stored)
			continue
		}

		if !InWindow(a.Published, cutoff) {
			result.Skipped++
			continue
		}
		a.Fetched = model.NewTimestamp(now)
		result.Articles = append(result.Articles, a)
		result.Inserted = append(result.Inserted, a)
	}

	for _, a := range existing {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		keepExisting(a)
	}

	SortByPublishedDesc(result.Articles)
	return result
}

// SortByPublishedDesc は記事を公開日時の降順に並べ替える。同時刻の順序は保持される。
func SortByPublishedDesc(articles []model.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Published.Time.After(articles[j].Published.Time)
	})
}

// InWindow は公開日時が有効で、cutoff 以降であるかを返す。
func InWindow(ts model.Timestamp, cutoff time.Time) bool {
	return ts.Valid() && !ts.Time.Before(cutoff)
}
