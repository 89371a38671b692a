package model

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"認証情報の不備", NewMissingCredentialError("SLACK_BOT_TOKEN"), KindConfig},
		{"Joinで包まれていても判定できる", errors.Join(errors.New("outer"), NewMissingCredentialError("SLACK_BOT_TOKEN")), KindConfig},
		{"fmt.Errorfで包まれていても判定できる", fmt.Errorf("wrap: %w", NewPostFailedError(io.EOF)), KindTransport},
		{"エントリの変換失敗", NewNoIdentityError("go"), KindTransform},
		{"フィードの取得失敗", NewSourceError("go", "gone", nil), KindSource},
		{"分類のないエラー", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	err := NewPostFailedError(io.EOF)

	if !errors.Is(err, io.EOF) {
		t.Error("expected wrapped cause to be reachable with errors.Is")
	}
	if got, want := err.Error(), "[POST_FAILED] failed to post message: EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := NewNoValidArticlesError().Error(), "[NO_VALID_ARTICLES] no valid articles to publish"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewSourceError_CarriesReason(t *testing.T) {
	err := NewSourceError("rust", "too_large", io.ErrUnexpectedEOF)
	if err.Reason != "too_large" || err.Code != ErrCodeFetchFailed {
		t.Errorf("Reason = %q, Code = %q", err.Reason, err.Code)
	}
}
