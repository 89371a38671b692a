package feed

// FetchResult はHTTPステータスコードに基づく取得結果の分類。
type FetchResult int

const (
	// FetchResultOK は取得成功（200）。
	FetchResultOK FetchResult = iota
	// FetchResultNotModified はコンテンツ未変更（304）。
	FetchResultNotModified
	// FetchResultGone はフィードが恒久的に利用できないステータス（404/410/401/403）。
	FetchResultGone
	// FetchResultRetryLater は一時的な失敗（429/5xx）。次回の実行で再取得される。
	FetchResultRetryLater
	// FetchResultUnknown は未知のステータスコード。
	FetchResultUnknown
)

// 取得結果の理由。失敗時はメトリクスのラベルとログに、未変更時はログに使う。
const (
	ReasonBlockedURL  = "blocked_url"
	ReasonRequest     = "request"
	ReasonGone        = "gone"
	ReasonRetryLater  = "retry_later"
	ReasonStatus      = "unexpected_status"
	ReasonRead        = "read"
	ReasonParse       = "parse"
	ReasonTooLarge    = "too_large"
	ReasonNotModified = "not_modified"
)

// ClassifyHTTPStatus はHTTPステータスコードを取得結果に分類する。
func ClassifyHTTPStatus(statusCode int) FetchResult {
	switch {
	case statusCode == 200:
		return FetchResultOK
	case statusCode == 304:
		return FetchResultNotModified
	case statusCode == 404 || statusCode == 410:
		return FetchResultGone
	case statusCode == 401 || statusCode == 403:
		return FetchResultGone
	case statusCode == 429:
		return FetchResultRetryLater
	case statusCode >= 500:
		return FetchResultRetryLater
	default:
		return FetchResultUnknown
	}
}

// Reason は取得失敗の理由を返す。成功・未変更の場合は空文字列。
func (r FetchResult) Reason() string {
	switch r {
	case FetchResultGone:
		return ReasonGone
	case FetchResultRetryLater:
		return ReasonRetryLater
	case FetchResultUnknown:
		return ReasonStatus
	default:
		return ""
	}
}
