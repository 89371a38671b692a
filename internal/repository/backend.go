// Package repository は永続化スナップショットの読み書きを提供する。
//
// 各スナップショット（articles, published, tracking）は1つのJSON文書として
// 丸ごと読み込み、丸ごと置き換える。複数の実行が同時に書き込んだ場合は
// 後勝ちとなる。
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hitoshi/rssdigest/internal/model"
)

// スナップショット名。ファイルバックエンドでは <name>.json になる。
const (
	SnapshotArticles  = "articles"
	SnapshotPublished = "published"
	SnapshotTracking  = "tracking"
)

// ErrSnapshotNotFound はスナップショットがまだ保存されていないことを示す。
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Backend はスナップショットの保存先のインターフェース。
type Backend interface {
	// Load は保存済みの本文を返す。未保存の場合は ErrSnapshotNotFound を返す。
	Load(ctx context.Context, name string) ([]byte, error)

	// Replace は本文全体を置き換える。途中で失敗しても以前の内容は壊れない。
	Replace(ctx context.Context, name string, body []byte) error
}

// loadSnapshot は name のスナップショットを v にデコードする。
// 未保存の場合は v を変更せず found=false を返す。
func loadSnapshot(ctx context.Context, b Backend, name string, v any) (found bool, err error) {
	body, err := b.Load(ctx, name)
	if errors.Is(err, ErrSnapshotNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("スナップショット %s の読み込みに失敗しました: %w", name, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, model.NewCorruptSnapshotError(name, err)
	}
	return true, nil
}

// saveSnapshot は v を整形済みJSONにして name のスナップショットを置き換える。
func saveSnapshot(ctx context.Context, b Backend, name string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("スナップショット %s のエンコードに失敗しました: %w", name, err)
	}
	if err := b.Replace(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("スナップショット %s の保存に失敗しました: %w", name, err)
	}
	return nil
}
