package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/burnoutbuddy/internal/model"
)

// EventLister はイベントログの読み込みインターフェース。
// eventlog.Log が実装する。
type EventLister interface {
	List(ctx context.Context) ([]model.AnalyticsEvent, error)
}

// Report は管理画面向けに両方の指標セットを1つのJSONオブジェクトにまとめたもの。
type Report struct {
	DashboardMetrics
	BurnoutMetrics
}

// Service はイベントログを読み込んで指標を算出するサービス層。
type Service struct {
	events EventLister
	now    func() time.Time
}

// NewService はServiceを生成する。locがnilの場合はローカルタイムゾーンを使用する。
func NewService(events EventLister, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		events: events,
		now:    func() time.Time { return time.Now().In(loc) },
	}
}

// Report はイベントログ全体から指標を再計算する。結果は保存しない。
func (s *Service) Report(ctx context.Context) (*Report, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return &Report{
		DashboardMetrics: ComputeDashboard(events, s.now()),
		BurnoutMetrics:   ComputeBurnout(events),
	}, nil
}
