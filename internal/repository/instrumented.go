package repository

import (
	"context"
	"errors"
	"time"
)

// StoreMetrics はドキュメントストア操作のメトリクス記録インターフェース。
// metrics.Collector が実装する。
type StoreMetrics interface {
	RecordStoreOperation(op, name string, duration time.Duration, err error)
	RecordStoreFallback(name, reason string)
}

// InstrumentedStore はDocumentStoreの各操作のレイテンシと結果を記録するデコレータ。
type InstrumentedStore struct {
	next    DocumentStore
	metrics StoreMetrics
}

// NewInstrumentedStore はInstrumentedStoreを生成する。
func NewInstrumentedStore(next DocumentStore, metrics StoreMetrics) *InstrumentedStore {
	return &InstrumentedStore{next: next, metrics: metrics}
}

// Get は委譲先のGetを計測する。存在しないドキュメントはエラーとして扱わない。
func (s *InstrumentedStore) Get(ctx context.Context, name string) ([]byte, error) {
	start := time.Now()
	data, err := s.next.Get(ctx, name)

	recorded := err
	if errors.Is(err, ErrDocumentNotFound) {
		recorded = nil
	}
	s.metrics.RecordStoreOperation("get", name, time.Since(start), recorded)
	return data, err
}

// Put は委譲先のPutを計測する。
func (s *InstrumentedStore) Put(ctx context.Context, name string, data []byte) error {
	start := time.Now()
	err := s.next.Put(ctx, name, data)
	s.metrics.RecordStoreOperation("put", name, time.Since(start), err)
	return err
}

// RecordFallback はデフォルト値への置き換えを記録する。
func (s *InstrumentedStore) RecordFallback(name, reason string) {
	s.metrics.RecordStoreFallback(name, reason)
}

// PingContext は委譲先がPingerを実装していれば委譲する。
func (s *InstrumentedStore) PingContext(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.PingContext(ctx)
	}
	return nil
}

// compile-time interface check
var (
	_ DocumentStore    = (*InstrumentedStore)(nil)
	_ FallbackRecorder = (*InstrumentedStore)(nil)
	_ Pinger           = (*InstrumentedStore)(nil)
)
