// Package app はコマンドラインからの起動と各コマンドの処理の組み立てを提供する。
package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hitoshi/rssdigest/internal/model"
	"github.com/hitoshi/rssdigest/internal/security"
)

// App はコマンドの実行に必要な外部依存を保持する。
type App struct {
	out        io.Writer
	now        func() time.Time
	guard      security.URLGuard
	httpClient *http.Client
}

// Option はAppの依存を差し替える。
type Option func(*App)

// WithClock は現在時刻の取得元を差し替える。
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithURLGuard はフィード取得時のURL検証とHTTPクライアントを差し替える。
func WithURLGuard(guard security.URLGuard) Option {
	return func(a *App) { a.guard = guard }
}

// WithHTTPClient はSlack APIの呼び出しに使うHTTPクライアントを差し替える。
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) { a.httpClient = c }
}

// New はAppを生成する。ログはwに出力する。
func New(w io.Writer, opts ...Option) *App {
	if w == nil {
		w = os.Stdout
	}
	a := &App{
		out:        w,
		now:        time.Now,
		guard:      security.NewSSRFGuard(),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Execute は引数に対応するコマンドを実行する。
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。SIGINTまたはSIGTERMを受信すると実行中の処理をキャンセルする。
func Run(w io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return New(w).Execute(ctx, args)
}

// runE は実行コンテキストを構築してコマンド処理を呼び出す cobra の RunE を返す。
// 終了時に実行コンテキストを閉じ、失敗はエラー分類とともにログに残す。
func (a *App) runE(command Command, fn func(ctx context.Context, rc *RunContext, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		rc, err := a.newRunContext(command)
		if err != nil {
			return err
		}
		defer rc.Close(ctx)

		start := time.Now()
		rc.Logger.Info("コマンドを開始します")

		if err := fn(ctx, rc, args); err != nil {
			rc.Logger.Error("コマンドが失敗しました",
				slog.String("error", err.Error()),
				slog.String("kind", string(model.KindOf(err))),
			)
			return err
		}

		rc.Logger.Info("コマンドが完了しました",
			slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
		)
		return nil
	}
}
