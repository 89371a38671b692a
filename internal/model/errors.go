// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind はエラー分類を表す。
type ErrorKind string

const (
	// KindConfig は設定・認証情報の不備。実行を中断し非ゼロで終了する。
	KindConfig ErrorKind = "config"
	// KindTransform は単一エントリ・単一時刻の変換失敗。該当項目のみスキップする。
	KindTransform ErrorKind = "transform"
	// KindSource は単一フィードの取得・解析失敗。他フィードには影響しない。
	KindSource ErrorKind = "source"
	// KindTransport はメッセージ投稿の失敗。呼び出し元へ返す。
	KindTransport ErrorKind = "transport"
	// KindSideEffect はベストエフォートの副作用の失敗。ログのみ。
	KindSideEffect ErrorKind = "side_effect"
)

// Error は分類とエラーコードを持つ統一エラー。
type Error struct {
	Kind    ErrorKind
	Code    string // 機械可読なエラーコード
	Message string
	Reason  string // 取得失敗の分類（KindSource のみ）
	Err     error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は元のエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// 定義済みエラーコード
const (
	ErrCodeMissingCredential = "MISSING_CREDENTIAL"
	ErrCodeMissingConfig     = "MISSING_CONFIG"
	ErrCodeInvalidConfig     = "INVALID_CONFIG"
	ErrCodeInvalidArgument   = "INVALID_ARGUMENT"
	ErrCodeCorruptSnapshot   = "CORRUPT_SNAPSHOT"
	ErrCodeNoValidArticles   = "NO_VALID_ARTICLES"
	ErrCodePostFailed        = "POST_FAILED"
	ErrCodeFetchFailed       = "FETCH_FAILED"
	ErrCodeNoIdentity        = "NO_IDENTITY"
)

// NewMissingCredentialError は必須の認証情報が未設定の場合のエラーを生成する。
func NewMissingCredentialError(name string) *Error {
	return &Error{
		Kind:    KindConfig,
		Code:    ErrCodeMissingCredential,
		Message: fmt.Sprintf("%s is not configured", name),
	}
}

// NewMissingConfigError は必須の設定ファイルや設定項目が見つからない場合のエラーを生成する。
func NewMissingConfigError(what string, err error) *Error {
	return &Error{
		Kind:    KindConfig,
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("%s not found", what),
		Err:     err,
	}
}

// NewInvalidConfigError は設定内容が不正な場合のエラーを生成する。
func NewInvalidConfigError(reason string, err error) *Error {
	return &Error{
		Kind:    KindConfig,
		Code:    ErrCodeInvalidConfig,
		Message: reason,
		Err:     err,
	}
}

// NewInvalidArgumentError はコマンド引数が不正な場合のエラーを生成する。
func NewInvalidArgumentError(reason string, err error) *Error {
	return &Error{
		Kind:    KindConfig,
		Code:    ErrCodeInvalidArgument,
		Message: reason,
		Err:     err,
	}
}

// NewCorruptSnapshotError は永続化スナップショットが解析できない場合のエラーを生成する。
func NewCorruptSnapshotError(name string, err error) *Error {
	return &Error{
		Kind:    KindConfig,
		Code:    ErrCodeCorruptSnapshot,
		Message: fmt.Sprintf("snapshot %q is malformed", name),
		Err:     err,
	}
}

// NewNoValidArticlesError は公開対象の記事が1件も残らなかった場合のエラーを生成する。
func NewNoValidArticlesError() *Error {
	return &Error{
		Kind:    KindConfig,
		Code:    ErrCodeNoValidArticles,
		Message: "no valid articles to publish",
	}
}

// NewPostFailedError はメッセージ投稿の失敗を生成する。
func NewPostFailedError(err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Code:    ErrCodePostFailed,
		Message: "failed to post message",
		Err:     err,
	}
}

// NewNoIdentityError はIDとリンクをどちらも持たないエントリの変換失敗を生成する。
func NewNoIdentityError(feedID string) *Error {
	return &Error{
		Kind:    KindTransform,
		Code:    ErrCodeNoIdentity,
		Message: fmt.Sprintf("feed %s: entry has neither id nor link", feedID),
	}
}

// NewSourceError は単一フィードの取得・解析失敗を生成する。
// reason はメトリクスのラベルとしても使う短い識別子。
func NewSourceError(feedID, reason string, err error) *Error {
	return &Error{
		Kind:    KindSource,
		Code:    ErrCodeFetchFailed,
		Message: fmt.Sprintf("feed %s: %s", feedID, reason),
		Reason:  reason,
		Err:     err,
	}
}

// KindOf はエラーチェーン中の *Error の分類を返す。見つからない場合は空文字列。
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
