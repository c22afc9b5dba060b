package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileDocumentRepo はローカルディレクトリ上のファイルをドキュメントとして扱うリポジトリ。
// 書き込みは <name>.tmp に書いてからrenameで置き換える。
type FileDocumentRepo struct {
	dir string
}

// NewFileDocumentRepo はFileDocumentRepoを生成する。
// ディレクトリは最初のアクセス時に作成される。
func NewFileDocumentRepo(dir string) *FileDocumentRepo {
	return &FileDocumentRepo{dir: dir}
}

// Dir はドキュメントを格納するディレクトリを返す。
func (r *FileDocumentRepo) Dir() string {
	return r.dir
}

// Get は指定名のファイル内容を返す。
func (r *FileDocumentRepo) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := r.path(name)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

// Put は一時ファイルへ書き込んだ後にrenameでアトミックに置き換える。
func (r *FileDocumentRepo) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := r.path(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp document: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

// PingContext はデータディレクトリが作成可能であることを確認する。
func (r *FileDocumentRepo) PingContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("data dir is not writable: %w", err)
	}
	return nil
}

// path はドキュメント名をファイルパスに変換する。ディレクトリ外への参照は拒否する。
func (r *FileDocumentRepo) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid document name: %q", name)
	}
	return filepath.Join(r.dir, name), nil
}

// compile-time interface check
var (
	_ DocumentStore = (*FileDocumentRepo)(nil)
	_ Pinger        = (*FileDocumentRepo)(nil)
)
