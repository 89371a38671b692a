package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend はディレクトリ配下の <name>.json としてスナップショットを保存する。
type FileBackend struct {
	dir string
}

// NewFileBackend はFileBackendを生成する。ディレクトリは初回保存時に作成される。
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Path はスナップショットのファイルパスを返す。
func (b *FileBackend) Path(name string) string {
	return filepath.Join(b.dir, name+".json")
}

// Load はスナップショットファイルを読み込む。
func (b *FileBackend) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.Path(name), err)
	}
	return data, nil
}

// Replace は一時ファイルに書き込んでからリネームする。
func (b *FileBackend) Replace(ctx context.Context, name string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", b.dir, err)
	}

	path := b.Path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
