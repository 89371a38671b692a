// Package article はフィードエントリの正規化と、記事ストアのマージ処理を提供する。
package article

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/rssdigest/internal/model"
	"github.com/hitoshi/rssdigest/internal/security"
)

const (
	// MaxSummaryLength は保存するサマリーの最大文字数。
	MaxSummaryLength = 500
	// Ellipsis は切り詰めた場合に末尾へ付与する記号。
	Ellipsis = "..."
	// DefaultTitle はタイトルが空のエントリに付与するタイトル。
	DefaultTitle = "No title"
)

// summaryMarkers はタグ除去の前に置換する段落・改行マーカー。
var summaryMarkers = strings.NewReplacer(
	"<p>", "",
	"</p>", "\n",
	"<br />", "\n",
	"<br/>", "\n",
	"<br>", "\n",
)

// Normalizer はフィードエントリを記事レコードに変換する。
// 変換は純粋関数であり、ストアや外部への副作用を持たない。
type Normalizer struct {
	stripper security.ContentStripper
}

// NewNormalizer はNormalizerの新しいインスタンスを生成する。
func NewNormalizer(stripper security.ContentStripper) *Normalizer {
	return &Normalizer{stripper: stripper}
}

// Normalize はエントリを記事に変換する。
// ID・リンクのいずれも持たないエントリは KindTransform のエラーを返す。呼び出し元はそのエントリのみをスキップする。
// Fetched はストアへの初回挿入時に設定されるため、ここでは未設定のまま返す。
func (n *Normalizer) Normalize(entry model.RawEntry, src model.FeedSource, now time.Time) (model.Article, error) {
	id := Identity(entry)
	if id == "" {
		return model.Article{}, model.NewNoIdentityError(src.ID)
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = DefaultTitle
	}

	return model.Article{
		ID:        id,
		FeedID:    src.ID,
		FeedName:  src.Name,
		FeedURL:   feedOrigin(src.URL),
		Title:     title,
		Link:      strings.TrimSpace(entry.Link),
		Summary:   n.cleanSummary(entry),
		Published: model.NewTimestamp(ResolvePublished(entry, now)),
	}, nil
}

// Identity はエントリの同一性キーを返す。
// 優先順位: 明示的なID > リンク。どちらも空の場合は空文字列。
func Identity(entry model.RawEntry) string {
	if id := strings.TrimSpace(entry.ID); id != "" {
		return id
	}
	return strings.TrimSpace(entry.Link)
}

// ResolvePublished は記事の公開日時を決定する。
// published > updated > now の順に、有効な暦時刻である最初の値をUTCで返す。
func ResolvePublished(entry model.RawEntry, now time.Time) time.Time {
	for _, candidate := range []*time.Time{entry.Published, entry.Updated} {
		if candidate != nil && model.ValidCalendarTime(*candidate) {
			return candidate.UTC()
		}
	}
	return now.UTC()
}

func (n *Normalizer) cleanSummary(entry model.RawEntry) string {
	raw := entry.Summary
	if strings.TrimSpace(raw) == "" {
		raw = entry.Description
	}
	text := summaryMarkers.Replace(raw)
	if n.stripper != nil {
		text = n.stripper.Strip(text)
	}
	return Truncate(strings.TrimSpace(text), MaxSummaryLength)
}

// Truncate は文字列を最大 max 文字（ルーン単位）に切り詰める。
// 切り詰めた場合のみ末尾に "..." を付与し、付与後の長さも max 以内に収める。
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= len(Ellipsis) {
		return string([]rune(s)[:max])
	}
	return strings.TrimRightFunc(string([]rune(s)[:max-len(Ellipsis)]), isSpace) + Ellipsis
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

// feedOrigin はフィードURLのホスト部分から https://<host> を組み立てる。
func feedOrigin(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return "https://" + u.Host
}
