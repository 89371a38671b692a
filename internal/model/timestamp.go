// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Timestamp は永続化ファイル上の時刻を表す。
// 保存済みの値が不正な形式でもJSONのデコード自体は失敗させず、
// 元の文字列を保持したまま無効な時刻として扱う。
// 1件の壊れた時刻のためにファイル全体の読み込みが失敗することを防ぐ。
type Timestamp struct {
	Time time.Time
	Raw  string
}

// NewTimestamp は有効な時刻からTimestampを生成する。UTCに正規化される。
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp はRFC3339形式（末尾Z表記を含む）の文字列をパースする。
// パースに失敗した場合は Raw のみを保持した無効なTimestampを返す。
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC(), Raw: s}
		}
	}
	return Timestamp{Raw: s}
}

// Valid は有効な暦時刻を保持しているかを返す。
func (t Timestamp) Valid() bool {
	return ValidCalendarTime(t.Time)
}

// String は永続化用の文字列表現を返す。
// 無効な時刻の場合は読み込んだ元の文字列をそのまま返す。
func (t Timestamp) String() string {
	if t.Valid() {
		return t.Time.UTC().Format(time.RFC3339Nano)
	}
	return t.Raw
}

// MarshalJSON はjson.Marshalerを実装する。
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid() && t.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
// 文字列以外の値や不正な形式でもエラーにしない。
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = Timestamp{Raw: strings.TrimSpace(string(data))}
		if t.Raw == "null" {
			t.Raw = ""
		}
		return nil
	}
	*t = ParseTimestamp(s)
	return nil
}

// ValidCalendarTime はゼロ値でなく、年が1〜9999の範囲にある時刻かを返す。
func ValidCalendarTime(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	y := t.UTC().Year()
	return y >= 1 && y <= 9999
}
