package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// dialect はデータベースごとのSQL文。
type dialect struct {
	name   string
	schema string
	load   string
	upsert string
}

// PostgreSQLのスキーマはマイグレーションで作成するため schema は空。
var postgresDialect = dialect{
	name: "postgres",
	load: `SELECT body FROM snapshots WHERE name = $1`,
	upsert: `INSERT INTO snapshots (name, body, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (name) DO UPDATE
		 SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS snapshots (
			name       TEXT PRIMARY KEY,
			body       TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	load: `SELECT body FROM snapshots WHERE name = ?`,
	upsert: `INSERT INTO snapshots (name, body, updated_at)
		 VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		 ON CONFLICT (name) DO UPDATE
		 SET body = excluded.body, updated_at = excluded.updated_at`,
}

// SQLBackend はsnapshotsテーブルの1行を1スナップショットとして保存する。
type SQLBackend struct {
	db      *sql.DB
	dialect dialect
}

// NewPostgresBackend はPostgreSQL用のSQLBackendを生成する。
// snapshotsテーブルは database.RunMigrations で作成しておくこと。
func NewPostgresBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db, dialect: postgresDialect}
}

// NewSQLiteBackend はSQLite用のSQLBackendを生成し、テーブルがなければ作成する。
func NewSQLiteBackend(ctx context.Context, db *sql.DB) (*SQLBackend, error) {
	b := &SQLBackend{db: db, dialect: sqliteDialect}
	if _, err := db.ExecContext(ctx, b.dialect.schema); err != nil {
		return nil, fmt.Errorf("snapshotsテーブルの作成に失敗しました: %w", err)
	}
	return b, nil
}

// Load は指定名のスナップショット本文を取得する。
func (b *SQLBackend) Load(ctx context.Context, name string) ([]byte, error) {
	var body []byte
	err := b.db.QueryRowContext(ctx, b.dialect.load, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: スナップショットの取得に失敗しました: %w", b.dialect.name, err)
	}
	return body, nil
}

// Replace は1文のUPSERTでスナップショット本文を置き換える。
func (b *SQLBackend) Replace(ctx context.Context, name string, body []byte) error {
	if _, err := b.db.ExecContext(ctx, b.dialect.upsert, name, string(body)); err != nil {
		return fmt.Errorf("%s: スナップショットの保存に失敗しました: %w", b.dialect.name, err)
	}
	return nil
}
