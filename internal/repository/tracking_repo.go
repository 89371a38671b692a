package repository

import (
	"context"

	"github.com/hitoshi/rssdigest/internal/model"
)

// TrackingRepository は単発実行モードの tracking スナップショットを扱う。
type TrackingRepository struct {
	backend Backend
}

// NewTrackingRepository はTrackingRepositoryを生成する。
func NewTrackingRepository(backend Backend) *TrackingRepository {
	return &TrackingRepository{backend: backend}
}

// Load は投稿済み管理状態を読み込む。未保存の場合は空の状態を返す。
func (r *TrackingRepository) Load(ctx context.Context) (model.TrackingState, error) {
	var state model.TrackingState
	if _, err := loadSnapshot(ctx, r.backend, SnapshotTracking, &state); err != nil {
		return model.TrackingState{}, err
	}
	if state.PostedItems == nil {
		state.PostedItems = []string{}
	}
	return state, nil
}

// Save は投稿済み管理状態全体を置き換える。
func (r *TrackingRepository) Save(ctx context.Context, state model.TrackingState) error {
	if state.PostedItems == nil {
		state.PostedItems = []string{}
	}
	return saveSnapshot(ctx, r.backend, SnapshotTracking, state)
}
