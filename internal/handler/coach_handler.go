package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/burnoutbuddy/internal/coach"
	"github.com/hitoshi/burnoutbuddy/internal/model"
)

// CoachServiceInterface は会話・イベント・決済ハンドラーが必要とするサービスインターフェース。
type CoachServiceInterface interface {
	// Respond はテキストを分類して応答を生成し、記憶とイベントを更新する。
	Respond(ctx context.Context, uid, text, name string) (*coach.Reply, error)
	// LogEvent はクライアントから送られたイベントを記録する。
	LogEvent(ctx context.Context, uid string, kind model.EventKind, meta []byte) error
	// StartCheckout は checkout_started を記録して決済ページのURLを返す。
	StartCheckout(ctx context.Context, uid string) (string, error)
}

// CoachHandler は会話・イベント・決済導線のHTTPハンドラー。
type CoachHandler struct {
	service CoachServiceInterface
}

// NewCoachHandler はCoachHandlerを生成する。
func NewCoachHandler(service CoachServiceInterface) *CoachHandler {
	return &CoachHandler{service: service}
}

// analyzeRequest は会話リクエストのボディ。
type analyzeRequest struct {
	Text string `json:"text"`
	Name string `json:"name"`
}

// eventRequest はイベント記録リクエストのボディ。
type eventRequest struct {
	Type model.EventKind `json:"type"`
	Meta json.RawMessage `json:"meta"`
}

// checkoutResponse は決済開始のレスポンス。
type checkoutResponse struct {
	URL string `json:"url"`
}

// Analyze は会話の1往復を処理する。
// POST /api/analyze
func (h *CoachHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req analyzeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	reply, err := h.service.Respond(r.Context(), userID, req.Text, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// Event はクライアントのイベントを記録する。
// POST /api/event
func (h *CoachHandler) Event(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if err := h.service.LogEvent(r.Context(), userID, req.Type, req.Meta); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Checkout は決済ページのURLを返す。
// POST /api/stripe/checkout
func (h *CoachHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	url, err := h.service.StartCheckout(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("checkout started", slog.String("user_id", userID))
	writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
}
