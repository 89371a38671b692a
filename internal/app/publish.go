package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/hitoshi/rssdigest/internal/article"
	"github.com/hitoshi/rssdigest/internal/config"
	"github.com/hitoshi/rssdigest/internal/digest"
	"github.com/hitoshi/rssdigest/internal/model"
	"github.com/hitoshi/rssdigest/internal/publish"
	"github.com/hitoshi/rssdigest/internal/repository"
	"github.com/hitoshi/rssdigest/internal/slack"
)

// メッセージの種類。rssdigest_messages_*_total の kind ラベルに使う。
const (
	kindDigest   = "digest"
	kindReminder = "reminder"
	kindItem     = "item"
)

// digestTarget はダイジェストの投稿先。
type digestTarget struct {
	token    string
	channel  string
	template string
}

// resolveDigestTarget は認証情報と投稿先チャンネルを確認する。
// チャンネルは settings.json の news_channel_id を優先し、未設定なら SLACK_NEWS_CHANNEL_ID を使う。
func resolveDigestTarget(cfg *config.Config, settings config.Settings) (digestTarget, error) {
	if cfg.SlackBotToken == "" {
		return digestTarget{}, model.NewMissingCredentialError("SLACK_BOT_TOKEN")
	}
	channel := settings.NewsChannelID()
	if channel == "" {
		channel = cfg.SlackNewsChannelID
	}
	if channel == "" {
		return digestTarget{}, model.NewMissingConfigError("news_channel_id", nil)
	}
	return digestTarget{
		token:    cfg.SlackBotToken,
		channel:  channel,
		template: settings.MessageTemplate(),
	}, nil
}

// parseArticleIDs はコマンド引数から記事IDを取り出す。
// 引数が1つでJSON配列の形式ならそれを解析し、それ以外は各引数をIDとして扱う。
func parseArticleIDs(args []string) ([]string, error) {
	var raw []string
	if len(args) == 1 && strings.HasPrefix(strings.TrimSpace(args[0]), "[") {
		if err := json.Unmarshal([]byte(args[0]), &raw); err != nil {
			return nil, model.NewInvalidArgumentError("article ids must be a JSON array of strings", err)
		}
	} else {
		raw = args
	}

	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, model.NewInvalidArgumentError("no article ids given", nil)
	}
	return ids, nil
}

// runPublish は指定された記事を1件のダイジェストとして投稿し、公開済みとして記録する。
func (a *App) runPublish(ctx context.Context, rc *RunContext, args []string) error {
	ids, err := parseArticleIDs(args)
	if err != nil {
		return err
	}

	settings, _, err := config.LoadSettings(rc.Config.SettingsPath())
	if err != nil {
		return err
	}
	target, err := resolveDigestTarget(rc.Config, settings)
	if err != nil {
		return err
	}

	backend, err := rc.Backend(ctx)
	if err != nil {
		return err
	}
	snap, err := repository.NewArticleRepository(backend).Load(ctx)
	if err != nil {
		return err
	}

	rc.Logger.Info("記事を公開します", slog.Int("requested", len(ids)))
	return a.publishDigest(ctx, rc, target, ids, snap.Index())
}

// publishDigest はダイジェストを投稿してから公開状態を更新する。
// 有効な記事が1件もない場合や投稿に失敗した場合は何も永続化しない。
func (a *App) publishDigest(
	ctx context.Context,
	rc *RunContext,
	target digestTarget,
	ids []string,
	index map[string]model.Article,
) error {
	backend, err := rc.Backend(ctx)
	if err != nil {
		return err
	}
	publishedRepo := repository.NewPublishedRepository(backend)
	state, err := publishedRepo.Load(ctx)
	if err != nil {
		return err
	}

	tracker := publish.NewTracker(rc.Config.HistoryLimit, rc.Logger)
	selected, valid := tracker.Resolve(ids, index)
	if len(valid) == 0 {
		return model.NewNoValidArticlesError()
	}
	article.SortByPublishedDesc(selected)

	msg := digest.BuildMessage(target.channel, selected, target.template)
	ts, err := a.newPoster(rc, target.token).PostMessage(ctx, msg)
	if err != nil {
		rc.Metrics.RecordMessageFailed(kindDigest)
		return model.NewPostFailedError(err)
	}
	rc.Metrics.RecordMessagePosted(kindDigest)

	next, err := tracker.MarkPublished(state, valid, index, ts, rc.Now())
	if err != nil {
		return err
	}
	if err := publishedRepo.Save(ctx, next); err != nil {
		return err
	}

	rc.Logger.Info("ダイジェストを投稿しました",
		slog.Int("article_count", len(valid)),
		slog.String("slack_ts", ts),
	)
	return nil
}

// newPoster はSlackクライアントを生成する。
func (a *App) newPoster(rc *RunContext, token string) slack.Poster {
	return slack.NewClient(a.httpClient, token, rc.Config.SlackAPIURL, rc.Logger)
}
