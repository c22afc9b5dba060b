package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestIdentityMiddleware_NoCookie_IssuesNewID(t *testing.T) {
	mw := NewIdentityMiddleware(IdentityConfig{CookieSecure: true})

	var capturedUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		capturedUserID = userID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if _, err := uuid.Parse(capturedUserID); err != nil {
		t.Fatalf("issued userID %q is not a UUID: %v", capturedUserID, err)
	}

	cookie := findCookie(resp, UserIDCookieName)
	if cookie == nil {
		t.Fatal("expected bb_uid cookie to be set")
	}
	if cookie.Value != capturedUserID {
		t.Errorf("cookie value = %q, want %q", cookie.Value, capturedUserID)
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if !cookie.Secure {
		t.Error("cookie should be Secure")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", cookie.SameSite)
	}
	if cookie.MaxAge != userIDCookieMaxAge {
		t.Errorf("MaxAge = %d, want %d", cookie.MaxAge, userIDCookieMaxAge)
	}
	if cookie.Path != "/" {
		t.Errorf("Path = %q, want /", cookie.Path)
	}
}

func TestIdentityMiddleware_ExistingCookie_ReusesID(t *testing.T) {
	mw := NewIdentityMiddleware(IdentityConfig{})
	existing := uuid.NewString()

	var capturedUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/event", nil)
	req.AddCookie(&http.Cookie{Name: UserIDCookieName, Value: existing})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if capturedUserID != existing {
		t.Errorf("userID = %q, want %q", capturedUserID, existing)
	}
	if findCookie(w.Result(), UserIDCookieName) != nil {
		t.Error("cookie should not be re-issued for a known user")
	}
}

func TestIdentityMiddleware_InvalidCookie_IssuesNewID(t *testing.T) {
	mw := NewIdentityMiddleware(IdentityConfig{})

	var capturedUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserID, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me/memory", nil)
	req.AddCookie(&http.Cookie{Name: UserIDCookieName, Value: "../../etc/passwd"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if capturedUserID == "../../etc/passwd" {
		t.Fatal("invalid cookie value must not be trusted")
	}
	if findCookie(w.Result(), UserIDCookieName) == nil {
		t.Error("expected a replacement cookie")
	}
}

func TestClearUserIDCookie(t *testing.T) {
	w := httptest.NewRecorder()

	ClearUserIDCookie(w, IdentityConfig{})

	cookie := findCookie(w.Result(), UserIDCookieName)
	if cookie == nil {
		t.Fatal("expected bb_uid cookie")
	}
	if cookie.MaxAge >= 0 {
		t.Errorf("MaxAge = %d, want negative", cookie.MaxAge)
	}
}

func TestUserIDFromContext_NoUserID_ReturnsError(t *testing.T) {
	_, err := UserIDFromContext(context.Background())
	if err == nil {
		t.Fatal("expected error for context without user ID")
	}
}

func TestContextWithUserID_RoundTrip(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "user-456")

	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if userID != "user-456" {
		t.Errorf("userID = %q, want %q", userID, "user-456")
	}
}
