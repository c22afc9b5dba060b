// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
)

// ErrDocumentNotFound は指定名のドキュメントが存在しないことを示す。
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore は名前付きJSONドキュメントの永続化インターフェース。
// ドキュメント全体を読み込み、全体をアトミックに置き換える。
// 楽観的ロックは持たないため、同一ドキュメントへの並行書き込みは後勝ちとなる。
type DocumentStore interface {
	// Get は指定名のドキュメントを返す。存在しない場合はErrDocumentNotFoundを返す。
	Get(ctx context.Context, name string) ([]byte, error)

	// Put は指定名のドキュメントをアトミックに置き換える。
	// 書き込み途中の状態が他の読み手から見えることはない。
	Put(ctx context.Context, name string, data []byte) error
}

// Pinger はバックエンドの疎通確認インターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// FallbackRecorder は読み込み失敗によるデフォルト値への置き換えを記録する。
// DocumentStoreの実装が任意で実装する。
type FallbackRecorder interface {
	RecordFallback(name, reason string)
}
