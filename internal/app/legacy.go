package app

import (
	"context"
	"log/slog"

	"github.com/hitoshi/rssdigest/internal/article"
	"github.com/hitoshi/rssdigest/internal/config"
	"github.com/hitoshi/rssdigest/internal/digest"
	"github.com/hitoshi/rssdigest/internal/feed"
	"github.com/hitoshi/rssdigest/internal/filter"
	"github.com/hitoshi/rssdigest/internal/model"
	"github.com/hitoshi/rssdigest/internal/publish"
	"github.com/hitoshi/rssdigest/internal/repository"
	"github.com/hitoshi/rssdigest/internal/security"
	"github.com/hitoshi/rssdigest/internal/slack"
)

// runLegacy は単発実行モード。レビューを挟まず、新しく関連度の高い記事を1件ずつ投稿する。
// 投稿に失敗した記事は投稿済みとして記録せず、次回の実行で再び対象になる。
func (a *App) runLegacy(ctx context.Context, rc *RunContext) error {
	cfg := rc.Config
	if cfg.SlackBotToken == "" {
		return model.NewMissingCredentialError("SLACK_BOT_TOKEN")
	}
	if cfg.SlackChannelID == "" {
		return model.NewMissingCredentialError("SLACK_CHANNEL_ID")
	}

	feeds, err := config.LoadFeeds(cfg.FeedsPath)
	if err != nil {
		return err
	}

	backend, err := rc.Backend(ctx)
	if err != nil {
		return err
	}
	trackingRepo := repository.NewTrackingRepository(backend)
	state, err := trackingRepo.Load(ctx)
	if err != nil {
		return err
	}
	posted := publish.Posted(state)

	fetcher := feed.NewFetcher(a.guard, cfg.FetchTimeout, cfg.FetchMaxSize, cfg.FetchRatePerSec, rc.Metrics, rc.Logger)
	batches, err := collect(ctx, rc, fetcher, article.NewNormalizer(security.NewTagStripper()), feeds.EnabledFeeds())
	if err != nil {
		return err
	}

	sel := filter.NewSelector(feeds.Settings, rc.Logger).Select(batches, func(id string) bool {
		_, ok := posted[id]
		return ok
	})
	rc.Metrics.RecordEntriesSkipped(skipLowRelevance, sel.Rejected)
	rc.Metrics.RecordEntriesSkipped(skipDeferred, sel.Deferred)
	rc.Metrics.RecordEntriesSkipped(skipPerFeedLimit, sel.Dropped)

	poster := a.newPoster(rc, cfg.SlackBotToken)
	postedIDs := make([]string, 0, len(sel.Accepted))
	for _, art := range sel.Accepted {
		if err := ctx.Err(); err != nil {
			break
		}
		msg := slack.Message{Channel: cfg.SlackChannelID, Text: digest.FormatSingle(art)}
		if _, err := poster.PostMessage(ctx, msg); err != nil {
			rc.Metrics.RecordMessageFailed(kindItem)
			rc.Logger.Error("記事の投稿に失敗しました",
				slog.String("article_id", art.ID),
				slog.String("feed_id", art.FeedID),
				slog.String("error", err.Error()),
			)
			continue
		}
		rc.Metrics.RecordMessagePosted(kindItem)
		rc.Logger.Info("記事を投稿しました",
			slog.String("article_id", art.ID),
			slog.String("title", art.Title),
		)
		postedIDs = append(postedIDs, art.ID)
	}

	next := publish.UpdateTracking(state, postedIDs, rc.Now(), cfg.TrackingLimit)
	if err := trackingRepo.Save(context.WithoutCancel(ctx), next); err != nil {
		return err
	}

	rc.Logger.Info("単発実行が完了しました",
		slog.Int("posted", len(postedIDs)),
		slog.Int("tracked", len(next.PostedItems)),
	)
	return ctx.Err()
}
