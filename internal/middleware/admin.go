package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/hitoshi/burnoutbuddy/internal/model"
)

// AdminKeyHeader は管理者キーを送るヘッダー名。
const AdminKeyHeader = "X-Admin-Key"

// NewAdminKeyMiddleware は管理者向けエンドポイントを保護するミドルウェアを返す。
// キーはX-Admin-Keyヘッダーまたはkeyクエリパラメータで受け付ける。
// adminKeyが空の場合は保護なしで通過させる。
func NewAdminKeyMiddleware(adminKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(AdminKeyHeader)
			if provided == "" {
				provided = r.URL.Query().Get("key")
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
