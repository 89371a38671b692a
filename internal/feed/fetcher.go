// Package feed はRSS/Atomフィードの取得と解析を提供する。
package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/hitoshi/rssdigest/internal/metrics"
	"github.com/hitoshi/rssdigest/internal/model"
	"github.com/hitoshi/rssdigest/internal/security"
)

const userAgent = "rssdigest/1.0 (+https://github.com/hitoshi/rssdigest)"

// Result は1フィード分の取得結果。
type Result struct {
	Entries []model.RawEntry
	// Malformed は本文を補正してから解析できた場合に true となる。
	Malformed bool
	// ParseErr は補正前の解析エラー。ログ出力のみに使用する。
	ParseErr   error
	StatusCode int
}

// Source はフィード取得のインターフェース。
type Source interface {
	Fetch(ctx context.Context, src model.FeedSource) (*Result, error)
}

// Fetcher は個別フィードのHTTP取得とパースを行う。
// SSRF検証、フィード間の取得間隔の制御、サイズ制限付きの読み込み、
// gofeedによるパースを実行する。再試行は行わない。
type Fetcher struct {
	guard       security.URLGuard
	client      *http.Client
	limiter     *rate.Limiter
	collector   metrics.MetricsCollector
	logger      *slog.Logger
	maxBodySize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
// ratePerSec はフィード間の取得レート（1秒あたりのリクエスト数）。
// collector は nil でもよい。
func NewFetcher(
	guard security.URLGuard,
	timeout time.Duration,
	maxBodySize int64,
	ratePerSec float64,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Fetcher {
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	return &Fetcher{
		guard:       guard,
		client:      guard.NewSafeClient(timeout),
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), 1),
		collector:   collector,
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

// Fetch はフィードを取得してエントリを返す。
// 失敗した場合は KindSource の *model.Error を返し、呼び出し元は他のフィードの処理を継続する。
func (f *Fetcher) Fetch(ctx context.Context, src model.FeedSource) (*Result, error) {
	if err := f.guard.ValidateURL(src.URL); err != nil {
		f.logger.Error("SSRF検証に失敗しました",
			slog.String("feed_id", src.ID),
			slog.String("feed_url", src.URL),
			slog.String("error", err.Error()),
		)
		return nil, model.NewSourceError(src.ID, ReasonBlockedURL, err)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, model.NewSourceError(src.ID, ReasonRequest, err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, model.NewSourceError(src.ID, ReasonRequest, fmt.Errorf("リクエスト作成に失敗: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("HTTPリクエストに失敗しました",
			slog.String("feed_id", src.ID),
			slog.String("feed_url", src.URL),
			slog.String("error", err.Error()),
		)
		return nil, model.NewSourceError(src.ID, ReasonRequest, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	if f.collector != nil {
		f.collector.RecordHTTPStatus(resp.StatusCode)
		f.collector.RecordFetchLatency(duration)
	}

	switch result := ClassifyHTTPStatus(resp.StatusCode); result {
	case FetchResultOK:
	case FetchResultNotModified:
		f.logger.Info("フィードは未変更です（304）",
			slog.String("feed_id", src.ID),
			slog.Int("http_status", resp.StatusCode),
			slog.String("reason", ReasonNotModified),
		)
		return &Result{StatusCode: resp.StatusCode}, nil
	default:
		f.logger.Warn("フィード取得がエラーステータスを返しました",
			slog.String("feed_id", src.ID),
			slog.String("feed_url", src.URL),
			slog.Int("http_status", resp.StatusCode),
			slog.String("reason", result.Reason()),
		)
		return nil, model.NewSourceError(src.ID, result.Reason(), fmt.Errorf("HTTPステータス %d", resp.StatusCode))
	}

	// 上限+1バイトまで読み、超過を検出する
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, model.NewSourceError(src.ID, ReasonRead, fmt.Errorf("レスポンス読み取り失敗: %w", err))
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, model.NewSourceError(src.ID, ReasonTooLarge, fmt.Errorf("レスポンスが上限 %d バイトを超えています", f.maxBodySize))
	}

	parsed, malformed, parseErr, err := parse(body)
	if err != nil {
		f.logger.Error("フィードのパースに失敗しました",
			slog.String("feed_id", src.ID),
			slog.String("feed_url", src.URL),
			slog.String("error", err.Error()),
		)
		return nil, model.NewSourceError(src.ID, ReasonParse, err)
	}

	res := &Result{
		Entries:    convertItems(parsed.Items),
		Malformed:  malformed,
		ParseErr:   parseErr,
		StatusCode: resp.StatusCode,
	}

	f.logger.Info("フィード取得が完了しました",
		slog.String("feed_id", src.ID),
		slog.String("feed_url", src.URL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("entries", len(res.Entries)),
		slog.Bool("malformed", malformed),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	return res, nil
}

// parse は本文をパースする。そのままでは解析できず、補正後に解析できた場合は
// malformed を true とし、補正前のエラーを parseErr に返す。
func parse(body []byte) (feed *gofeed.Feed, malformed bool, parseErr error, err error) {
	parser := gofeed.NewParser()
	feed, parseErr = parser.Parse(bytes.NewReader(body))
	if parseErr == nil {
		return feed, false, nil, nil
	}

	repaired := repairBody(body)
	if bytes.Equal(repaired, body) {
		return nil, false, nil, parseErr
	}
	feed, err = gofeed.NewParser().Parse(bytes.NewReader(repaired))
	if err != nil {
		return nil, false, nil, parseErr
	}
	return feed, true, parseErr, nil
}

// repairBody はよくある壊れ方を補正する。
// 先頭のBOMとXML宣言より前のゴミを除去し、XMLで使用できない制御文字と不正なUTF-8を取り除く。
func repairBody(body []byte) []byte {
	b := bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	if i := bytes.IndexByte(b, '<'); i > 0 {
		b = b[i:]
	}

	out := make([]byte, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if (r != utf8.RuneError || size > 1) && isXMLChar(r) {
			out = append(out, b[:size]...)
		}
		b = b[size:]
	}
	return out
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

// convertItems はgofeedの記事をmodel.RawEntryに変換する。
func convertItems(items []*gofeed.Item) []model.RawEntry {
	entries := make([]model.RawEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entry := model.RawEntry{
			ID:          item.GUID,
			Link:        item.Link,
			Title:       item.Title,
			Summary:     item.Description,
			Description: item.Content,
		}
		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			entry.Published = &t
		}
		if item.UpdatedParsed != nil {
			t := *item.UpdatedParsed
			entry.Updated = &t
		}
		entries = append(entries, entry)
	}
	return entries
}
