// Package user は匿名ユーザーの記憶の参照と削除を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/burnoutbuddy/internal/model"
)

// MemoryRepository はユーザー記憶の参照・削除インターフェース。
// memory.Store が実装する。
type MemoryRepository interface {
	Find(ctx context.Context, uid string) (model.UserMemory, bool)
	Delete(ctx context.Context, uid string) (bool, error)
}

// Service はユーザー管理のサービス層。
type Service struct {
	memories MemoryRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(memories MemoryRepository) *Service {
	return &Service{memories: memories}
}

// Memory はユーザーの保存済み記憶を返す。
// 記憶がない場合は USER_NOT_FOUND を返す。読み取りでは記憶を作成しない。
func (s *Service) Memory(ctx context.Context, userID string) (*model.UserMemory, error) {
	mem, ok := s.memories.Find(ctx, userID)
	if !ok {
		return nil, model.NewUserNotFoundError()
	}
	return &mem, nil
}

// Withdraw はユーザーの記憶を削除する。
// 分析イベントは追記専用のため残す（uidはCookieの不透明なIDのみ）。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	deleted, err := s.memories.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("記憶の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)
	return nil
}
