// Package cleanup は長期間利用のないユーザー記憶の自動削除ジョブを提供する。
// 保持期間（デフォルト180日）を超えて最終利用日時が更新されていない
// ユーザーの記憶を定期バッチで削除する。イベントログは対象外。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pruner は最終利用日時がcutoffより前のユーザー記憶を削除するインターフェース。
// memory.Store が実装する。
type Pruner interface {
	PruneInactive(ctx context.Context, cutoff time.Time) (int, error)
}

// PruneRecorder は削除件数の記録インターフェース。
type PruneRecorder interface {
	RecordMemoryPruned(count int)
}

// CleanupJob は保持期間を超過したユーザー記憶の自動削除ジョブ。
// 冪等な削除処理を保証する。
type CleanupJob struct {
	pruner        Pruner
	logger        *slog.Logger
	recorder      PruneRecorder
	now           func() time.Time
	RetentionDays int // 記憶の保持日数（デフォルト: 180）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は180日。recorderはnilでもよい。
func NewCleanupJob(pruner Pruner, logger *slog.Logger, recorder PruneRecorder) *CleanupJob {
	return &CleanupJob{
		pruner:        pruner,
		logger:        logger,
		recorder:      recorder,
		now:           time.Now,
		RetentionDays: 180,
	}
}

// Cutoff は現在時刻から保持日数を引いた削除基準日時を返す。
func (j *CleanupJob) Cutoff() time.Time {
	return j.now().AddDate(0, 0, -j.RetentionDays)
}

// Run は保持期間を超過したユーザー記憶を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := j.Cutoff()

	deletedCount, err := j.pruner.PruneInactive(ctx, cutoff)
	if err != nil {
		j.logger.Error("記憶クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("記憶クリーンアップの実行に失敗: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordMemoryPruned(deletedCount)
	}

	duration := time.Since(start)
	j.logger.Info("記憶クリーンアップジョブが完了しました",
		slog.Int("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は指定間隔のティッカーでジョブを繰り返し実行する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("記憶クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Int("retention_days", j.RetentionDays),
	)

	// エラーはRun内でログ済みのため、次のサイクルで再試行する
	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("記憶クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
