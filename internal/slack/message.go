// Package slack はSlack Web APIへのメッセージ投稿を提供する。
package slack

import "strings"

var (
	mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	linkEscaper   = strings.NewReplacer("&", "&amp;", "<", "%3C", ">", "%3E", "|", "%7C")
)

// Escape はmrkdwnの制御文字（&, <, >）をエスケープする。
func Escape(s string) string {
	return mrkdwnEscaper.Replace(s)
}

// Link は <url|text> 形式のリンクを返す。
// URL中の | と山括弧はパーセントエンコードし、表示テキストはエスケープする。
func Link(url, text string) string {
	return "<" + linkEscaper.Replace(url) + "|" + Escape(text) + ">"
}

// Message は chat.postMessage に送るメッセージ。
// Channel にはチャンネルIDのほか、DM送信時はユーザーIDを指定できる。
type Message struct {
	Channel     string  `json:"channel"`
	Text        string  `json:"text"`
	Blocks      []Block `json:"blocks,omitempty"`
	UnfurlLinks bool    `json:"unfurl_links"`
	UnfurlMedia bool    `json:"unfurl_media"`
}

// Block はBlock Kitのブロック。
type Block struct {
	Type     string    `json:"type"`
	Text     *Text     `json:"text,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

// Text はBlock Kitのテキストオブジェクト。
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Element はactionsブロックの要素。
type Element struct {
	Type  string `json:"type"`
	Text  *Text  `json:"text,omitempty"`
	URL   string `json:"url,omitempty"`
	Style string `json:"style,omitempty"`
}

// Section はmrkdwnテキストのsectionブロックを返す。
func Section(mrkdwn string) Block {
	return Block{Type: "section", Text: &Text{Type: "mrkdwn", Text: mrkdwn}}
}

// LinkButton はURLを開くボタンだけを持つactionsブロックを返す。
func LinkButton(label, url, style string) Block {
	return Block{
		Type: "actions",
		Elements: []Element{{
			Type:  "button",
			Text:  &Text{Type: "plain_text", Text: label},
			URL:   url,
			Style: style,
		}},
	}
}
