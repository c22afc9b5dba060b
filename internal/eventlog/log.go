// Package eventlog はユーザー操作の追記専用イベントログを提供する。
package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/hitoshi/burnoutbuddy/internal/model"
	"github.com/hitoshi/burnoutbuddy/internal/repository"
)

const (
	// DocumentName はイベントログを保存するドキュメント名。
	DocumentName = "events.json"
	// DefaultCapacity はログに保持するイベント数の上限のデフォルト値。
	DefaultCapacity = 50000
)

// document はイベントログの永続化形式。
type document struct {
	Version int                    `json:"version"`
	Events  []model.AnalyticsEvent `json:"events"`
}

func (d document) SchemaVersion() int { return d.Version }

func emptyDocument() document {
	return document{Version: repository.DocumentVersion, Events: []model.AnalyticsEvent{}}
}

// Log はDocumentStore上に保存されるイベントログ。
// 呼び出しごとにドキュメント全体を読み直し、キャッシュしない。
type Log struct {
	docs     repository.DocumentStore
	capacity int

	// 同一プロセス内のAppendの読み込み→追加→保存を直列化する
	mu sync.Mutex
}

// NewLog はLogを生成する。capacityが0以下の場合はDefaultCapacityを使用する。
func NewLog(docs repository.DocumentStore, capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{docs: docs, capacity: capacity}
}

// Capacity は保持するイベント数の上限を返す。
func (l *Log) Capacity() int {
	return l.capacity
}

// Append はイベントを末尾に追加し、上限を超えた古いイベントを先頭から捨てて保存する。
// 保存後のイベント数を返す。
func (l *Log) Append(ctx context.Context, ev model.AnalyticsEvent) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := repository.LoadDocument(ctx, l.docs, DocumentName, emptyDocument)
	events := append(doc.Events, ev)
	if over := len(events) - l.capacity; over > 0 {
		kept := make([]model.AnalyticsEvent, l.capacity)
		copy(kept, events[over:])
		events = kept
	}
	doc.Events = events

	if err := repository.SaveDocument(ctx, l.docs, DocumentName, doc); err != nil {
		return 0, fmt.Errorf("failed to append %s event: %w", ev.Kind, err)
	}
	return len(events), nil
}

// List はログ上の全イベントを挿入順で返す。
func (l *Log) List(ctx context.Context) ([]model.AnalyticsEvent, error) {
	doc := repository.LoadDocument(ctx, l.docs, DocumentName, emptyDocument)
	if doc.Events == nil {
		return []model.AnalyticsEvent{}, nil
	}
	return doc.Events, nil
}
