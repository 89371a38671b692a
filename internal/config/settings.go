package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/hitoshi/rssdigest/internal/model"
)

// reminderTimePattern は reminder_time の HH:MM 形式。
var reminderTimePattern = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// requiredSettingsFields は settings.json 更新時に必須のフィールド。
var requiredSettingsFields = []string{"reminder_time", "reminder_timezone", "message_template"}

// DefaultMessageTemplate は message_template 未設定時のテンプレート。
const DefaultMessageTemplate = "{articles}"

// Settings は settings.json の内容を保持する。
// 未知のキーも含めてそのまま書き戻せるよう、汎用マップで保持する。
type Settings map[string]any

// LoadSettings は settings.json を読み込む。
// ファイルが存在しない場合は空の設定と false を返す。
func LoadSettings(path string) (Settings, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, false, nil
		}
		return nil, false, model.NewInvalidConfigError(fmt.Sprintf("read %s", path), err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, model.NewInvalidConfigError(fmt.Sprintf("parse %s", path), err)
	}
	if s == nil {
		s = Settings{}
	}
	return s, true, nil
}

// ValidateSettingsDocument は settings.json として受け付けるJSONかを検証する。
// reminder_time・reminder_timezone・message_template が必須で、
// reminder_time は HH:MM 形式でなければならない。
func ValidateSettingsDocument(data []byte) (Settings, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, model.NewInvalidConfigError("settings JSON is not valid JSON", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, model.NewInvalidConfigError("settings data must be an object", nil)
	}

	for _, field := range requiredSettingsFields {
		if _, ok := obj[field]; !ok {
			return nil, model.NewInvalidConfigError(fmt.Sprintf("missing required field: %s", field), nil)
		}
	}

	reminderTime, _ := obj["reminder_time"].(string)
	if !reminderTimePattern.MatchString(reminderTime) {
		return nil, model.NewInvalidConfigError("reminder_time must be in HH:MM format", nil)
	}

	return Settings(obj), nil
}

func (s Settings) str(key string) string {
	v, _ := s[key].(string)
	return v
}

// ReminderTime は reminder_time（HH:MM）を返す。
func (s Settings) ReminderTime() string { return s.str("reminder_time") }

// ReminderTimezone は reminder_timezone（IANAタイムゾーン名）を返す。
func (s Settings) ReminderTimezone() string { return s.str("reminder_timezone") }

// MessageTemplate はダイジェストのテンプレートを返す。未設定の場合は記事一覧のみ。
func (s Settings) MessageTemplate() string {
	if v := s.str("message_template"); v != "" {
		return v
	}
	return DefaultMessageTemplate
}

// NewsChannelID は settings.json 上の投稿先チャンネルIDを返す。
func (s Settings) NewsChannelID() string { return s.str("news_channel_id") }

// SlackUserID はリマインダーの送信先ユーザーIDを返す。
func (s Settings) SlackUserID() string { return s.str("slack_user_id") }

// ReviewPageURL はレビューページのURLを返す。
func (s Settings) ReviewPageURL() string { return s.str("github_pages_url") }

// ScheduleChanged は reminder_time または reminder_timezone が変更されたかを返す。
// 旧設定が存在しない場合は変更ありとみなす。
func ScheduleChanged(prev Settings, hadPrev bool, next Settings) bool {
	if !hadPrev {
		return true
	}
	return prev.ReminderTime() != next.ReminderTime() ||
		prev.ReminderTimezone() != next.ReminderTimezone()
}
