// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// UserIDCookieName は匿名ユーザーIDを保持するCookie名。
const UserIDCookieName = "bb_uid"

// userIDCookieMaxAge はユーザーIDCookieの有効期間（1年、秒）。
const userIDCookieMaxAge = 60 * 60 * 24 * 365

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// IdentityConfig は匿名ユーザーIDCookieの設定。
type IdentityConfig struct {
	CookieDomain string
	CookieSecure bool
}

// NewIdentityMiddleware はCookieから匿名ユーザーIDを読み取り、
// リクエストコンテキストに注入するミドルウェアを返す。
// Cookieが無い、またはUUIDとして不正な場合は新しいIDを発行してCookieに設定する。
// ログインは存在しないため、このIDは識別子であって認証ではない。
func NewIdentityMiddleware(cfg IdentityConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			if cookie, err := r.Cookie(UserIDCookieName); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					userID = id.String()
				}
			}

			if userID == "" {
				userID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     UserIDCookieName,
					Value:    userID,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					MaxAge:   userIDCookieMaxAge,
					HttpOnly: true,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			noteUserID(r.Context(), userID)
			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClearUserIDCookie はユーザーIDCookieを削除するSet-Cookieを書き込む。
// 退会（記憶の削除）後に使用する。
func ClearUserIDCookie(w http.ResponseWriter, cfg IdentityConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     UserIDCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// Identityミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
