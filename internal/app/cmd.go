package app

import (
	"context"

	"github.com/spf13/cobra"
)

// Command は実行するサブコマンドを表す。ログの command 属性とメトリクスのグルーピングに使う。
type Command string

const (
	// CommandFetch はフィードを取得して記事ストアを更新する。
	CommandFetch Command = "fetch"
	// CommandPublish は選択した記事をダイジェストとして投稿する。
	CommandPublish Command = "publish"
	// CommandRemind はレビュー担当者にリマインダーを送信する。
	CommandRemind Command = "remind"
	// CommandUpdateFeeds は feeds.json を置き換える。
	CommandUpdateFeeds Command = "update-feeds"
	// CommandUpdateSettings は settings.json を置き換え、必要ならスケジュールを更新する。
	CommandUpdateSettings Command = "update-settings"
	// CommandRun は単発実行モード（取得と個別投稿を1回で行う）。
	CommandRun Command = "run"
	// CommandMigrate はデータベースマイグレーションを実行する。
	CommandMigrate Command = "migrate"
)

// newRootCmd はサブコマンドを登録したルートコマンドを生成する。
func (a *App) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rssdigest",
		Short:         "RSS feed digest pipeline for Slack",
		Long:          "rssdigest collects articles from RSS/Atom feeds, keeps a review store, and publishes curated digests to Slack.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.out)

	var autoPublish bool
	fetchCmd := &cobra.Command{
		Use:   string(CommandFetch),
		Short: "Fetch enabled feeds and update the article store",
		Args:  cobra.NoArgs,
		RunE: a.runE(CommandFetch, func(ctx context.Context, rc *RunContext, args []string) error {
			return a.runFetch(ctx, rc, autoPublish)
		}),
	}
	fetchCmd.Flags().BoolVar(&autoPublish, "auto-publish", false, "post a digest of newly stored articles and mark them published")

	publishCmd := &cobra.Command{
		Use:   string(CommandPublish) + " <ids...|json-array>",
		Short: "Publish the selected articles as one digest message",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runE(CommandPublish, a.runPublish),
	}

	remindCmd := &cobra.Command{
		Use:   string(CommandRemind),
		Short: "Send the reviewer a reminder with the pending article count",
		Args:  cobra.NoArgs,
		RunE: a.runE(CommandRemind, func(ctx context.Context, rc *RunContext, args []string) error {
			return a.runRemind(ctx, rc)
		}),
	}

	updateFeedsCmd := &cobra.Command{
		Use:   string(CommandUpdateFeeds) + " <json>",
		Short: "Validate and replace the feeds configuration",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(CommandUpdateFeeds, func(ctx context.Context, rc *RunContext, args []string) error {
			return a.runUpdateFeeds(ctx, rc, args[0])
		}),
	}

	updateSettingsCmd := &cobra.Command{
		Use:   string(CommandUpdateSettings) + " <json>",
		Short: "Validate and replace settings, rescheduling the reminder when its time changes",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(CommandUpdateSettings, func(ctx context.Context, rc *RunContext, args []string) error {
			return a.runUpdateSettings(ctx, rc, args[0])
		}),
	}

	runCmd := &cobra.Command{
		Use:   string(CommandRun),
		Short: "Legacy single-run mode: post each new relevant item individually",
		Args:  cobra.NoArgs,
		RunE: a.runE(CommandRun, func(ctx context.Context, rc *RunContext, args []string) error {
			return a.runLegacy(ctx, rc)
		}),
	}

	migrateCmd := &cobra.Command{
		Use:   string(CommandMigrate),
		Short: "Apply PostgreSQL schema migrations",
		Args:  cobra.NoArgs,
		RunE: a.runE(CommandMigrate, func(ctx context.Context, rc *RunContext, args []string) error {
			return runMigrate(ctx, rc)
		}),
	}

	root.AddCommand(fetchCmd, publishCmd, remindCmd, updateFeedsCmd, updateSettingsCmd, runCmd, migrateCmd)
	return root
}
