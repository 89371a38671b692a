package app

import (
	"context"
	"log/slog"

	"github.com/hitoshi/rssdigest/internal/config"
	"github.com/hitoshi/rssdigest/internal/model"
	"github.com/hitoshi/rssdigest/internal/reminder"
	"github.com/hitoshi/rssdigest/internal/repository"
)

// runRemind はレビュー待ちの記事数をレビュー担当者にDMで通知する。
// 0件の場合も通知する。
func (a *App) runRemind(ctx context.Context, rc *RunContext) error {
	cfg := rc.Config
	if cfg.SlackBotToken == "" {
		return model.NewMissingCredentialError("SLACK_BOT_TOKEN")
	}

	settings, _, err := config.LoadSettings(cfg.SettingsPath())
	if err != nil {
		return err
	}
	userID := settings.SlackUserID()
	if userID == "" {
		userID = cfg.SlackUserID
	}
	if userID == "" {
		return model.NewMissingConfigError("slack_user_id", nil)
	}
	reviewURL := settings.ReviewPageURL()
	if reviewURL == "" {
		reviewURL = cfg.ReviewPageURL
	}

	backend, err := rc.Backend(ctx)
	if err != nil {
		return err
	}
	snap, err := repository.NewArticleRepository(backend).Load(ctx)
	if err != nil {
		return err
	}
	state, err := repository.NewPublishedRepository(backend).Load(ctx)
	if err != nil {
		return err
	}

	pending := reminder.Pending(snap.Articles, state.Set(), rc.Now(), cfg.LookbackWindow)
	rc.Metrics.RecordPendingArticles(len(pending))
	rc.Logger.Info("レビュー待ちの記事を集計しました",
		slog.Int("pending", len(pending)),
		slog.Duration("lookback", cfg.LookbackWindow),
	)

	msg := reminder.BuildMessage(userID, len(pending), reviewURL)
	if _, err := a.newPoster(rc, cfg.SlackBotToken).PostMessage(ctx, msg); err != nil {
		rc.Metrics.RecordMessageFailed(kindReminder)
		return model.NewPostFailedError(err)
	}
	rc.Metrics.RecordMessagePosted(kindReminder)

	rc.Logger.Info("リマインダーを送信しました", slog.Int("pending", len(pending)))
	return nil
}
