package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/rssdigest/internal/database"
	"github.com/hitoshi/rssdigest/internal/model"
)

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(ctx context.Context, rc *RunContext) error {
	if rc.Config.DatabaseURL == "" {
		return model.NewMissingConfigError("DATABASE_URL", nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rc.Logger.Info("データベースマイグレーションを実行します",
		slog.String("database_url", maskDatabaseURL(rc.Config.DatabaseURL)),
	)

	if err := database.RunMigrations(rc.Config.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	rc.Logger.Info("データベースマイグレーションが完了しました")
	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
