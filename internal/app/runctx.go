package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/rssdigest/internal/config"
	"github.com/hitoshi/rssdigest/internal/database"
	"github.com/hitoshi/rssdigest/internal/logger"
	"github.com/hitoshi/rssdigest/internal/metrics"
	"github.com/hitoshi/rssdigest/internal/model"
	"github.com/hitoshi/rssdigest/internal/repository"
)

// pushTimeout はPushgatewayへの送信に使う時間の上限。
const pushTimeout = 10 * time.Second

// metricsJob はPushgatewayのjobラベル。
const metricsJob = "rssdigest"

// RunContext は1回の起動で共有する実行コンテキスト。
// 起動時に1回構築し、終了時に Close する。
type RunContext struct {
	ID       string
	Command  Command
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Collector
	Now      func() time.Time

	backend repository.Backend
	db      *sql.DB
}

// newRunContext は環境変数から設定を読み込み、実行コンテキストを構築する。
func (a *App) newRunContext(command Command) (*RunContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, model.NewInvalidConfigError("failed to load config", err)
	}

	id := uuid.NewString()
	l := logger.Setup(a.out, logger.ParseLevel(cfg.LogLevel)).With(
		slog.String("run_id", id),
		slog.String("command", string(command)),
	)

	reg := prometheus.NewRegistry()
	return &RunContext{
		ID:       id,
		Command:  command,
		Config:   cfg,
		Logger:   l,
		Registry: reg,
		Metrics:  metrics.NewCollector(reg),
		Now:      a.now,
	}, nil
}

// Backend は設定されたスナップショット保存先を返す。初回呼び出し時に接続する。
func (rc *RunContext) Backend(ctx context.Context) (repository.Backend, error) {
	if rc.backend != nil {
		return rc.backend, nil
	}

	cfg := rc.Config
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		rc.db = db
		rc.backend = repository.NewPostgresBackend(db)

	case config.StoreBackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create directory for %s: %w", cfg.SQLitePath, err)
		}
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		backend, err := repository.NewSQLiteBackend(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		rc.db = db
		rc.backend = backend

	default:
		rc.backend = repository.NewFileBackend(cfg.DataDir)
	}

	rc.Logger.Debug("スナップショットの保存先を初期化しました",
		slog.String("store_backend", string(cfg.StoreBackend)),
	)
	return rc.backend, nil
}

// Close はデータベース接続を閉じ、PUSHGATEWAY_URL が設定されていればメトリクスを送信する。
// 送信の失敗はログに残すのみで、コマンドの結果には影響しない。
func (rc *RunContext) Close(ctx context.Context) {
	if rc.db != nil {
		if err := rc.db.Close(); err != nil {
			rc.Logger.Warn("データベース接続のクローズに失敗しました", slog.String("error", err.Error()))
		}
	}

	if rc.Config.PushgatewayURL == "" {
		return
	}

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	if err := metrics.Push(pushCtx, rc.Config.PushgatewayURL, metricsJob, string(rc.Command), rc.Registry); err != nil {
		rc.Logger.Warn("メトリクスの送信に失敗しました",
			slog.String("error", err.Error()),
			slog.String("kind", string(model.KindSideEffect)),
		)
		return
	}
	rc.Logger.Debug("メトリクスを送信しました")
}
