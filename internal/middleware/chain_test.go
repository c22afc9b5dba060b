package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestMiddlewareChain_IdentityThenCSRF_DELETE は
// Identity -> CSRF の順で適用したときに、同じユーザーがトークン付きで削除できることを検証する。
func TestMiddlewareChain_IdentityThenCSRF_DELETE(t *testing.T) {
	cfg := IdentityConfig{}
	existing := "6f1c7d1e-3a44-4b0c-9a57-1a2b3c4d5e6f"

	var capturedUserID string
	handler := NewIdentityMiddleware(cfg)(NewCSRFMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	req.AddCookie(&http.Cookie{Name: UserIDCookieName, Value: existing})
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	req.Header.Set(csrfHeaderName, "tok")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if capturedUserID != existing {
		t.Errorf("userID = %q, want %q", capturedUserID, existing)
	}
}

// TestMiddlewareChain_NewVisitor_GETIssuesBothCookies は
// 初回訪問のGETでユーザーIDとCSRFトークンの両方が発行されることを検証する。
func TestMiddlewareChain_NewVisitor_GETIssuesBothCookies(t *testing.T) {
	cfg := IdentityConfig{}

	handler := NewIdentityMiddleware(cfg)(NewCSRFMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/me/memory", nil))

	if findCookie(w.Result(), UserIDCookieName) == nil {
		t.Error("expected bb_uid cookie")
	}
	if findCookie(w.Result(), csrfCookieName) == nil {
		t.Error("expected bb_csrf cookie")
	}
}

// TestMiddlewareChain_RecoveryWrapsIdentity は
// Identity配下のpanicがRecoveryで500に変換されることを検証する。
func TestMiddlewareChain_RecoveryWrapsIdentity(t *testing.T) {
	handler := NewRecoveryMiddleware()(NewIdentityMiddleware(IdentityConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("unexpected")
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/analyze", nil))

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}
