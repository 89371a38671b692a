package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hitoshi/rssdigest/internal/model"
)

// requiredFeedFields は feeds.json の各フィードに必須のフィールド。
var requiredFeedFields = []string{"id", "name", "url"}

// LoadFeeds は feeds.json を読み込む。
// ファイルが存在しない場合や解析できない場合は設定エラーを返す。
func LoadFeeds(path string) (model.FeedsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.FeedsFile{}, model.NewMissingConfigError(path, err)
		}
		return model.FeedsFile{}, model.NewInvalidConfigError(fmt.Sprintf("read %s", path), err)
	}

	if _, err := ValidateFeedsDocument(data); err != nil {
		return model.FeedsFile{}, err
	}

	var feeds model.FeedsFile
	if err := json.Unmarshal(data, &feeds); err != nil {
		return model.FeedsFile{}, model.NewInvalidConfigError(fmt.Sprintf("parse %s", path), err)
	}
	return feeds, nil
}

// ValidateFeedsDocument は feeds.json として受け付けるJSONかを検証し、
// 検証済みの汎用表現を返す。未知のキーは保持される。
// 条件: オブジェクトであること、feeds配列を持つこと、
// 各フィードがid・name・urlを含むオブジェクトであること。
func ValidateFeedsDocument(data []byte) (map[string]any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, model.NewInvalidConfigError("feeds JSON is not valid JSON", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, model.NewInvalidConfigError("feeds data must be an object", nil)
	}

	rawFeeds, ok := obj["feeds"]
	if !ok {
		return nil, model.NewInvalidConfigError("missing 'feeds' array", nil)
	}
	feeds, ok := rawFeeds.([]any)
	if !ok {
		return nil, model.NewInvalidConfigError("'feeds' must be an array", nil)
	}

	for i, f := range feeds {
		feed, ok := f.(map[string]any)
		if !ok {
			return nil, model.NewInvalidConfigError(fmt.Sprintf("feed %d must be an object", i), nil)
		}
		for _, field := range requiredFeedFields {
			if _, ok := feed[field]; !ok {
				return nil, model.NewInvalidConfigError(fmt.Sprintf("feed %d missing required field: %s", i, field), nil)
			}
		}
	}

	return obj, nil
}

// WriteJSONFile は値を2スペースインデントのJSONとして書き込む。
// 一時ファイルへ書き込んだ後にリネームするため、書き込み途中の内容が残らない。
func WriteJSONFile(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", path, err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
