// Package security はフィード取り込み時のセキュリティ機能を提供する。
//
// TagStripper はフィード記事のサマリーからHTMLタグを除去し、
// Slackにそのまま流せるプレーンテキストにする。
// bluemondayのStrictPolicyで全タグを落とした後、エンティティを復元する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentStripper はHTMLをプレーンテキストにする機能のインターフェース。
type ContentStripper interface {
	// Strip は全てのHTMLタグを除去したテキストを返す。
	// script/style要素は中身ごと除去される。空文字列の入力には空文字列を返す。
	Strip(rawHTML string) string
}

// TagStripper はContentStripperの実装。
// bluemondayのポリシーはスレッドセーフなので使い回してよい。
type TagStripper struct {
	policy *bluemonday.Policy
}

// NewTagStripper はTagStripperの新しいインスタンスを生成する。
func NewTagStripper() *TagStripper {
	return &TagStripper{
		policy: bluemonday.StrictPolicy(),
	}
}

// Strip はHTMLタグを除去し、HTMLエンティティをデコードしたテキストを返す。
func (s *TagStripper) Strip(rawHTML string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}
	// StrictPolicyは出力をエスケープするため、最後にアンエスケープする
	return html.UnescapeString(s.policy.Sanitize(rawHTML))
}
