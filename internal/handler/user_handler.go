package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/burnoutbuddy/internal/middleware"
	"github.com/hitoshi/burnoutbuddy/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Memory はユーザーの保存済み記憶を返す。
	Memory(ctx context.Context, userID string) (*model.UserMemory, error)
	// Withdraw はユーザーの記憶を削除する。分析イベントは残す。
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service  UserServiceInterface
	identity middleware.IdentityConfig
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, identity middleware.IdentityConfig) *UserHandler {
	return &UserHandler{
		service:  service,
		identity: identity,
	}
}

// GetMemory はユーザーの記憶を返す。
// GET /api/users/me/memory
func (h *UserHandler) GetMemory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	mem, err := h.service.Memory(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mem)
}

// Withdraw はユーザーの記憶を削除し、ユーザーIDCookieを破棄する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.ClearUserIDCookie(w, h.identity)
	w.WriteHeader(http.StatusNoContent)
}
