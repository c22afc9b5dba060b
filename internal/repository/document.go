package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// DocumentVersion は永続化ドキュメントのスキーマバージョン。
const DocumentVersion = 1

// Document はバージョン判別フィールドを持つ永続化ドキュメント。
type Document interface {
	SchemaVersion() int
}

// フォールバック理由
const (
	FallbackReadError       = "read_error"
	FallbackCorrupt         = "corrupt"
	FallbackVersionMismatch = "version_mismatch"
)

// LoadDocument は指定名のドキュメントを読み込む。
// 存在しない、読み込めない、JSONが壊れている、バージョンが一致しない場合は
// emptyの戻り値を返し、呼び出し元にエラーを返さない。
func LoadDocument[T Document](ctx context.Context, store DocumentStore, name string, empty func() T) T {
	data, err := store.Get(ctx, name)
	if errors.Is(err, ErrDocumentNotFound) {
		return empty()
	}
	if err != nil {
		slog.Warn("document read failed, using default",
			slog.String("document", name),
			slog.String("error", err.Error()),
		)
		recordFallback(store, name, FallbackReadError)
		return empty()
	}

	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("document is corrupt, using default",
			slog.String("document", name),
			slog.String("error", err.Error()),
		)
		recordFallback(store, name, FallbackCorrupt)
		return empty()
	}

	if v := doc.SchemaVersion(); v != DocumentVersion {
		slog.Warn("document version mismatch, using default",
			slog.String("document", name),
			slog.Int("version", v),
		)
		recordFallback(store, name, FallbackVersionMismatch)
		return empty()
	}

	return doc
}

// SaveDocument はドキュメントをインデント付きJSONにシリアライズして保存する。
func SaveDocument[T Document](ctx context.Context, store DocumentStore, name string, doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", name, err)
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("failed to save document %s: %w", name, err)
	}
	return nil
}

func recordFallback(store DocumentStore, name, reason string) {
	if r, ok := store.(FallbackRecorder); ok {
		r.RecordFallback(name, reason)
	}
}
