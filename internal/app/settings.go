package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/hitoshi/rssdigest/internal/config"
	"github.com/hitoshi/rssdigest/internal/model"
	"github.com/hitoshi/rssdigest/internal/schedule"
)

// runUpdateFeeds は feeds.json を検証してから置き換える。
// フィードURLは取得時と同じ規則で事前に検証する。
func (a *App) runUpdateFeeds(ctx context.Context, rc *RunContext, raw string) error {
	doc, err := config.ValidateFeedsDocument([]byte(raw))
	if err != nil {
		return err
	}

	feeds, _ := doc["feeds"].([]any)
	for i, f := range feeds {
		entry, _ := f.(map[string]any)
		url, _ := entry["url"].(string)
		if err := a.guard.ValidateURL(url); err != nil {
			return model.NewInvalidConfigError(fmt.Sprintf("feed %d has a disallowed url", i), err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := config.WriteJSONFile(rc.Config.FeedsPath, doc); err != nil {
		return err
	}

	rc.Logger.Info("フィード設定を更新しました",
		slog.String("path", rc.Config.FeedsPath),
		slog.Int("feeds", len(feeds)),
	)
	return nil
}

// runUpdateSettings は settings.json を検証してから置き換える。
// リマインダーの時刻またはタイムゾーンが変わった場合はワークフローのcronを更新する。
// cronの更新はベストエフォートで、失敗してもコマンドは成功とする。
func (a *App) runUpdateSettings(ctx context.Context, rc *RunContext, raw string) error {
	next, err := config.ValidateSettingsDocument([]byte(raw))
	if err != nil {
		return err
	}

	path := rc.Config.SettingsPath()
	prev, hadPrev, err := config.LoadSettings(path)
	if err != nil {
		rc.Logger.Warn("既存の設定を読み込めないため新規として扱います",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		prev, hadPrev = config.Settings{}, false
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := config.WriteJSONFile(path, next); err != nil {
		return err
	}
	rc.Logger.Info("設定を更新しました", slog.String("path", path))

	if config.ScheduleChanged(prev, hadPrev, next) {
		a.updateReminderSchedule(rc, next)
	}
	return nil
}

// updateReminderSchedule はリマインダー時刻をUTCのcronに変換してワークフローに書き込む。
func (a *App) updateReminderSchedule(rc *RunContext, settings config.Settings) {
	log := rc.Logger.With(slog.String("kind", string(model.KindSideEffect)))

	cron, err := schedule.ToUTCCron(settings.ReminderTime(), settings.ReminderTimezone(), rc.Now())
	if err != nil {
		log.Warn("リマインダー時刻をcronに変換できませんでした",
			slog.String("reminder_time", settings.ReminderTime()),
			slog.String("reminder_timezone", settings.ReminderTimezone()),
			slog.String("error", err.Error()),
		)
		return
	}

	path := rc.Config.WorkflowPath
	found, err := schedule.RewriteWorkflowCron(path, cron)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("ワークフローファイルが見つからないためcronの更新をスキップします", slog.String("path", path))
	case err != nil:
		log.Warn("ワークフローのcron更新に失敗しました", slog.String("path", path), slog.String("error", err.Error()))
	case found == 0:
		log.Warn("ワークフローにcronの定義が見つかりません", slog.String("path", path))
	default:
		rc.Logger.Info("リマインダーのスケジュールを更新しました",
			slog.String("path", path),
			slog.String("cron", cron),
			slog.Int("cron_fields", found),
		)
	}
}
