package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL はSlack Web APIのベースURL。
	DefaultBaseURL = "https://slack.com/api"
	// maxResponseSize はAPIレスポンスとして読み取る最大バイト数。
	maxResponseSize = 1 << 20
)

// APIError はSlack APIが返したエラー。
// Code には Slack の機械可読なエラーコード（例: channel_not_found）、
// HTTPレベルの失敗の場合は http_<status> が入る。
type APIError struct {
	Code       string
	StatusCode int
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("slack api error: %s", e.Code)
}

// Poster はメッセージ投稿のインターフェース。
type Poster interface {
	// PostMessage はメッセージを投稿し、投稿メッセージのタイムスタンプを返す。
	PostMessage(ctx context.Context, msg Message) (string, error)
}

// Client はSlack Web APIのクライアント。
// 再試行は行わず、失敗は呼び出し元に返す。
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
// 投稿は1秒あたり1件に制限される。
func NewClient(httpClient *http.Client, token, baseURL string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		logger:     logger,
	}
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	TS    string `json:"ts"`
}

// PostMessage は chat.postMessage を呼び出す。
// リンク・メディアの展開は常に無効化する。
func (c *Client) PostMessage(ctx context.Context, msg Message) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("投稿の待機中にキャンセルされました: %w", err)
	}

	msg.UnfurlLinks = false
	msg.UnfurlMedia = false
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("メッセージのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Slack APIの呼び出しに失敗しました",
			slog.String("channel", msg.Channel),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Slack APIがエラーステータスを返しました",
			slog.String("channel", msg.Channel),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", &APIError{Code: fmt.Sprintf("http_%d", resp.StatusCode), StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result postMessageResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	if !result.OK {
		c.logger.Error("Slack APIがエラーを返しました",
			slog.String("channel", msg.Channel),
			slog.String("slack_error", result.Error),
		)
		return "", &APIError{Code: result.Error, StatusCode: resp.StatusCode}
	}

	return result.TS, nil
}
