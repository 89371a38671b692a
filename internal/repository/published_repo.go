package repository

import (
	"context"

	"github.com/hitoshi/rssdigest/internal/model"
)

// PublishedRepository は published スナップショットを扱う。
type PublishedRepository struct {
	backend Backend
}

// NewPublishedRepository はPublishedRepositoryを生成する。
func NewPublishedRepository(backend Backend) *PublishedRepository {
	return &PublishedRepository{backend: backend}
}

// Load は公開状態を読み込む。未保存の場合は空の状態を返す。
func (r *PublishedRepository) Load(ctx context.Context) (model.PublishedState, error) {
	var state model.PublishedState
	if _, err := loadSnapshot(ctx, r.backend, SnapshotPublished, &state); err != nil {
		return model.PublishedState{}, err
	}
	if state.PublishedArticles == nil {
		state.PublishedArticles = []string{}
	}
	if state.History == nil {
		state.History = []model.PublishRecord{}
	}
	return state, nil
}

// Save は公開状態全体を置き換える。
func (r *PublishedRepository) Save(ctx context.Context, state model.PublishedState) error {
	if state.PublishedArticles == nil {
		state.PublishedArticles = []string{}
	}
	if state.History == nil {
		state.History = []model.PublishRecord{}
	}
	return saveSnapshot(ctx, r.backend, SnapshotPublished, state)
}
