// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, config, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest           = "INVALID_REQUEST"
	ErrCodeTextRequired             = "TEXT_REQUIRED"
	ErrCodeInvalidEventType         = "INVALID_EVENT_TYPE"
	ErrCodePaymentLinkNotConfigured = "PAYMENT_LINK_NOT_CONFIGURED"
	ErrCodeUserNotFound             = "USER_NOT_FOUND"
	ErrCodeUnauthorized             = "UNAUTHORIZED"
	ErrCodeCSRFTokenInvalid         = "CSRF_TOKEN_INVALID"
	ErrCodeInternal                 = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewTextRequiredError は入力テキストが空の場合のエラーを生成する。
func NewTextRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTextRequired,
		Message:  "text is required",
		Category: "validation",
		Action:   "話したい内容を入力してください。",
	}
}

// NewInvalidEventTypeError は受け付けないイベント種別のエラーを生成する。
func NewInvalidEventTypeError(kind string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEventType,
		Message:  fmt.Sprintf("invalid event type: %q", kind),
		Category: "validation",
		Action:   "type には session_end、checkout_clicked、checkout_succeeded のいずれかを指定してください。",
	}
}

// NewPaymentLinkNotConfiguredError は決済リンクが未設定の場合のエラーを生成する。
func NewPaymentLinkNotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodePaymentLinkNotConfigured,
		Message:  "PAYMENT_LINK_URL is not set",
		Category: "config",
		Action:   "管理者に決済リンクの設定を依頼してください。",
	}
}

// NewUserNotFoundError はユーザーの記憶が見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "一度会話を始めてから再度お試しください。",
	}
}

// NewUnauthorizedError は管理者キーが一致しない場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "管理者キーを指定してください。",
	}
}

// NewCSRFError はCSRFトークンの検証に失敗した場合のエラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFTokenInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
