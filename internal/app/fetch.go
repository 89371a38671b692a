package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hitoshi/rssdigest/internal/article"
	"github.com/hitoshi/rssdigest/internal/config"
	"github.com/hitoshi/rssdigest/internal/feed"
	"github.com/hitoshi/rssdigest/internal/filter"
	"github.com/hitoshi/rssdigest/internal/model"
	"github.com/hitoshi/rssdigest/internal/repository"
	"github.com/hitoshi/rssdigest/internal/security"
)

// スキップ理由。rssdigest_entries_skipped_total のラベルに使う。
const (
	skipNoIdentity   = "no_identity"
	skipLowRelevance = "low_relevance"
	skipDeferred     = "deferred"
	skipPerFeedLimit = "per_feed_limit"
	skipOutOfWindow  = "out_of_window"
)

// runFetch は有効なフィードをすべて取得し、記事ストアを更新する。
// 個別フィードの失敗はログに残して処理を継続する。
// autoPublish が true の場合は今回新たに追加した記事をダイジェストとして投稿する。
func (a *App) runFetch(ctx context.Context, rc *RunContext, autoPublish bool) error {
	cfg := rc.Config

	feeds, err := config.LoadFeeds(cfg.FeedsPath)
	if err != nil {
		return err
	}

	var target *digestTarget
	if autoPublish {
		settings, _, err := config.LoadSettings(cfg.SettingsPath())
		if err != nil {
			return err
		}
		t, err := resolveDigestTarget(cfg, settings)
		if err != nil {
			return err
		}
		target = &t
	}

	backend, err := rc.Backend(ctx)
	if err != nil {
		return err
	}
	store := repository.NewArticleRepository(backend)
	snap, err := store.Load(ctx)
	if err != nil {
		return err
	}
	index := snap.Index()

	sources := feeds.EnabledFeeds()
	rc.Logger.Info("フィードの取得を開始します",
		slog.Int("enabled_feeds", len(sources)),
		slog.Int("existing_articles", len(snap.Articles)),
	)

	fetcher := feed.NewFetcher(a.guard, cfg.FetchTimeout, cfg.FetchMaxSize, cfg.FetchRatePerSec, rc.Metrics, rc.Logger)
	normalizer := article.NewNormalizer(security.NewTagStripper())
	now := rc.Now()

	batches, err := collect(ctx, rc, fetcher, normalizer, sources)
	if err != nil {
		return err
	}

	window := cfg.RetentionWindow
	selector := filter.NewSelector(feeds.Settings, rc.Logger).WithCutoff(now.Add(-window))
	sel := selector.Select(batches, func(id string) bool {
		_, ok := index[id]
		return ok
	})

	fresh := make([]model.Article, 0, len(sel.Known)+len(sel.Accepted))
	fresh = append(fresh, sel.Known...)
	fresh = append(fresh, sel.Accepted...)
	result := article.Merge(snap.Articles, fresh, now, window)

	rc.Metrics.RecordEntriesSkipped(skipLowRelevance, sel.Rejected)
	rc.Metrics.RecordEntriesSkipped(skipDeferred, sel.Deferred)
	rc.Metrics.RecordEntriesSkipped(skipPerFeedLimit, sel.Dropped)
	rc.Metrics.RecordEntriesSkipped(skipOutOfWindow, sel.Stale+result.Skipped)
	rc.Metrics.RecordMerge(len(result.Inserted), result.Retained, result.Pruned)

	if err := store.Save(ctx, result.Articles, now); err != nil {
		return err
	}

	rc.Logger.Info("記事ストアを更新しました",
		slog.Int("articles", len(result.Articles)),
		slog.Int("inserted", len(result.Inserted)),
		slog.Int("retained", result.Retained),
		slog.Int("pruned", result.Pruned),
		slog.Int("rejected", sel.Rejected),
		slog.Int("deferred", sel.Deferred),
		slog.Int("out_of_window", sel.Stale+result.Skipped),
	)

	if target == nil {
		return nil
	}
	if len(result.Inserted) == 0 {
		rc.Logger.Info("新しい記事がないため投稿をスキップします")
		return nil
	}

	ids := make([]string, 0, len(result.Inserted))
	for _, art := range result.Inserted {
		ids = append(ids, art.ID)
	}
	stored := model.ArticleSnapshot{Articles: result.Articles}
	return a.publishDigest(ctx, rc, *target, ids, stored.Index())
}

// collect はフィードを定義順に取得し、正規化済みの記事をフィードごとにまとめる。
// 取得に失敗したフィードは結果に含めない。
func collect(
	ctx context.Context,
	rc *RunContext,
	source feed.Source,
	normalizer *article.Normalizer,
	sources []model.FeedSource,
) ([]filter.Batch, error) {
	batches := make([]filter.Batch, 0, len(sources))

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := source.Fetch(ctx, src)
		if err != nil {
			reason := feed.ReasonRequest
			var e *model.Error
			if errors.As(err, &e) && e.Reason != "" {
				reason = e.Reason
			}
			rc.Metrics.RecordFetchFailure(src.ID, reason)
			rc.Logger.Warn("フィードの取得に失敗したためスキップします",
				slog.String("feed_id", src.ID),
				slog.String("feed_name", src.Name),
				slog.String("reason", reason),
				slog.String("error", err.Error()),
			)
			continue
		}
		rc.Metrics.RecordFetchSuccess(src.ID)

		if res.Malformed {
			rc.Metrics.RecordMalformedFeed(src.ID)
			attrs := []any{slog.String("feed_id", src.ID), slog.String("feed_name", src.Name)}
			if res.ParseErr != nil {
				attrs = append(attrs, slog.String("parse_error", res.ParseErr.Error()))
			}
			rc.Logger.Warn("フィードの形式に問題がありますが補正して解析しました", attrs...)
		}

		now := rc.Now()
		articles := make([]model.Article, 0, len(res.Entries))
		skipped := 0
		for _, entry := range res.Entries {
			art, err := normalizer.Normalize(entry, src, now)
			if err != nil {
				rc.Logger.Debug("エントリを変換できないためスキップします",
					slog.String("feed_id", src.ID),
					slog.String("title", entry.Title),
					slog.String("kind", string(model.KindOf(err))),
					slog.String("error", err.Error()),
				)
				skipped++
				continue
			}
			articles = append(articles, art)
		}
		rc.Metrics.RecordEntriesSkipped(skipNoIdentity, skipped)

		rc.Logger.Info("フィードを処理しました",
			slog.String("feed_id", src.ID),
			slog.String("feed_name", src.Name),
			slog.Int("entries", len(res.Entries)),
			slog.Int("articles", len(articles)),
		)
		batches = append(batches, filter.Batch{Source: src, Articles: articles})
	}

	return batches, nil
}
