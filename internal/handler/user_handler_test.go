package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/burnoutbuddy/internal/middleware"
	"github.com/hitoshi/burnoutbuddy/internal/model"
)

// --- モック定義 ---

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	memoryFn   func(ctx context.Context, userID string) (*model.UserMemory, error)
	withdrawFn func(ctx context.Context, userID string) error
}

func (m *mockUserService) Memory(ctx context.Context, userID string) (*model.UserMemory, error) {
	if m.memoryFn != nil {
		return m.memoryFn(ctx, userID)
	}
	return nil, model.NewUserNotFoundError()
}

func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

// --- DELETE /api/users/me テスト ---

func TestUserHandler_Withdraw_Success(t *testing.T) {
	withdrawCalled := false
	svc := &mockUserService{
		withdrawFn: func(ctx context.Context, userID string) error {
			withdrawCalled = true
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			return nil
		},
	}

	h := NewUserHandler(svc, middleware.IdentityConfig{})

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if !withdrawCalled {
		t.Error("expected Withdraw to be called")
	}

	// ユーザーIDCookieが破棄されること
	cookie := findCookie(resp, middleware.UserIDCookieName)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("expected bb_uid cookie to be cleared, got %+v", cookie)
	}
}

func TestUserHandler_Withdraw_NoUserID_ReturnsUnauthorized(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, middleware.IdentityConfig{})

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	// ユーザーIDを注入しない
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestUserHandler_Withdraw_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "記憶なし", err: model.NewUserNotFoundError(), wantStatus: http.StatusNotFound, wantCode: "USER_NOT_FOUND"},
		{name: "内部エラー", err: errors.New("disk full"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{
				withdrawFn: func(ctx context.Context, userID string) error { return tt.err },
			}
			h := NewUserHandler(svc, middleware.IdentityConfig{})

			req := withUserID(httptest.NewRequest(http.MethodDelete, "/api/users/me", nil), "user-123")
			w := httptest.NewRecorder()
			h.Withdraw(w, req)

			if w.Result().StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, tt.wantStatus)
			}
			if body := parseAPIErrorResponse(t, w); body["code"] != tt.wantCode {
				t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
			}
			if findCookie(w.Result(), middleware.UserIDCookieName) != nil {
				t.Error("cookie must not be cleared on failure")
			}
		})
	}
}

// --- GET /api/users/me/memory テスト ---

func TestUserHandler_GetMemory_Success(t *testing.T) {
	svc := &mockUserService{
		memoryFn: func(ctx context.Context, userID string) (*model.UserMemory, error) {
			mem := model.UserMemory{
				UID:       userID,
				Profile:   model.Profile{Name: "민수"},
				Stressors: []string{"상사", "야근"},
				Turns:     []model.MemoryTurn{},
			}
			return &mem, nil
		},
	}
	h := NewUserHandler(svc, middleware.IdentityConfig{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/users/me/memory", nil), "user-123")
	w := httptest.NewRecorder()
	h.GetMemory(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body struct {
		UID       string   `json:"uid"`
		Stressors []string `json:"stressors"`
		Profile   struct {
			Name string `json:"name"`
		} `json:"profile"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.UID != "user-123" || body.Profile.Name != "민수" || len(body.Stressors) != 2 {
		t.Errorf("body = %+v", body)
	}
}

func TestUserHandler_GetMemory_NotFound(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, middleware.IdentityConfig{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/users/me/memory", nil), "user-123")
	w := httptest.NewRecorder()
	h.GetMemory(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}
