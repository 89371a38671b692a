package repository

import (
	"context"
	"time"

	"github.com/hitoshi/rssdigest/internal/model"
)

// ArticleRepository は articles スナップショットを扱う。
type ArticleRepository struct {
	backend Backend
}

// NewArticleRepository はArticleRepositoryを生成する。
func NewArticleRepository(backend Backend) *ArticleRepository {
	return &ArticleRepository{backend: backend}
}

// Load は記事ストアを読み込む。未保存の場合は空のストアを返す。
func (r *ArticleRepository) Load(ctx context.Context) (model.ArticleSnapshot, error) {
	var snap model.ArticleSnapshot
	if _, err := loadSnapshot(ctx, r.backend, SnapshotArticles, &snap); err != nil {
		return model.ArticleSnapshot{}, err
	}
	if snap.Articles == nil {
		snap.Articles = []model.Article{}
	}
	return snap, nil
}

// Save は記事一覧と更新時刻でストア全体を置き換える。
func (r *ArticleRepository) Save(ctx context.Context, articles []model.Article, now time.Time) error {
	if articles == nil {
		articles = []model.Article{}
	}
	snap := model.ArticleSnapshot{
		Articles:    articles,
		LastUpdated: model.NewTimestamp(now),
	}
	return saveSnapshot(ctx, r.backend, SnapshotArticles, snap)
}
