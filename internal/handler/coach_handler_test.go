package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/burnoutbuddy/internal/coach"
	"github.com/hitoshi/burnoutbuddy/internal/model"
	"github.com/hitoshi/burnoutbuddy/internal/script"
)

// --- モック定義 ---

// mockCoachService はCoachServiceInterfaceのモック実装。
type mockCoachService struct {
	respondFn       func(ctx context.Context, uid, text, name string) (*coach.Reply, error)
	logEventFn      func(ctx context.Context, uid string, kind model.EventKind, meta []byte) error
	startCheckoutFn func(ctx context.Context, uid string) (string, error)
}

func (m *mockCoachService) Respond(ctx context.Context, uid, text, name string) (*coach.Reply, error) {
	if m.respondFn != nil {
		return m.respondFn(ctx, uid, text, name)
	}
	return &coach.Reply{}, nil
}

func (m *mockCoachService) LogEvent(ctx context.Context, uid string, kind model.EventKind, meta []byte) error {
	if m.logEventFn != nil {
		return m.logEventFn(ctx, uid, kind, meta)
	}
	return nil
}

func (m *mockCoachService) StartCheckout(ctx context.Context, uid string) (string, error) {
	if m.startCheckoutFn != nil {
		return m.startCheckoutFn(ctx, uid)
	}
	return "", nil
}

// --- POST /api/analyze テスト ---

func TestCoachHandler_Analyze_Success(t *testing.T) {
	svc := &mockCoachService{
		respondFn: func(ctx context.Context, uid, text, name string) (*coach.Reply, error) {
			if uid != "user-123" || text != "회의 힘들어" || name != "민수" {
				t.Errorf("args = %q %q %q", uid, text, name)
			}
			return &coach.Reply{
				Reply:           "민수님, ...",
				VoiceText:       "voice",
				Meditation:      "breath",
				Tags:            script.Tags{EmotionLabel: "무기력/번아웃", SituationLabel: "회의"},
				ResilienceScore: 0,
				Offer:           coach.Offer{PriceUSDMonthly: coach.OfferPriceUSDMonthly, CTA: coach.OfferCTA},
			}, nil
		},
	}
	h := NewCoachHandler(svc)

	body := `{"text":"회의 힘들어","name":"민수"}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body)), "user-123")
	w := httptest.NewRecorder()
	h.Analyze(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	for _, key := range []string{"reply", "voiceText", "meditation", "tags", "resilienceScore", "offer"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing field %q", key)
		}
	}

	var offer coach.Offer
	if err := json.Unmarshal(raw["offer"], &offer); err != nil {
		t.Fatalf("failed to decode offer: %v", err)
	}
	if offer.PriceUSDMonthly != 9.9 || offer.CTA != "전담 AI 코치와 무제한 대화하기" {
		t.Errorf("offer = %+v", offer)
	}

	var tags map[string]string
	if err := json.Unmarshal(raw["tags"], &tags); err != nil {
		t.Fatalf("failed to decode tags: %v", err)
	}
	if tags["emotionLabel"] != "무기력/번아웃" || tags["situationLabel"] != "회의" {
		t.Errorf("tags = %v", tags)
	}
}

func TestCoachHandler_Analyze_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{name: "不正なJSON", body: `{"text":`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REQUEST"},
		{name: "型が違う", body: `{"text":123}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REQUEST"},
		{name: "テキストなし", body: `{}`, serviceErr: model.NewTextRequiredError(), wantStatus: http.StatusBadRequest, wantCode: "TEXT_REQUIRED"},
		{name: "空ボディ", body: ``, serviceErr: model.NewTextRequiredError(), wantStatus: http.StatusBadRequest, wantCode: "TEXT_REQUIRED"},
		{name: "保存失敗", body: `{"text":"회의"}`, serviceErr: errors.New("disk full"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCoachService{
				respondFn: func(ctx context.Context, uid, text, name string) (*coach.Reply, error) {
					if tt.serviceErr == nil {
						t.Fatal("service should not be called")
					}
					return nil, tt.serviceErr
				},
			}
			h := NewCoachHandler(svc)

			req := withUserID(httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(tt.body)), "user-123")
			w := httptest.NewRecorder()
			h.Analyze(w, req)

			if w.Result().StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, tt.wantStatus)
			}
			if body := parseAPIErrorResponse(t, w); body["code"] != tt.wantCode {
				t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
			}
		})
	}
}

func TestCoachHandler_Analyze_BodyTooLarge(t *testing.T) {
	h := NewCoachHandler(&mockCoachService{
		respondFn: func(ctx context.Context, uid, text, name string) (*coach.Reply, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	})

	big := `{"text":"` + strings.Repeat("가", maxRequestBodyBytes) + `"}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(big)), "user-123")
	w := httptest.NewRecorder()
	h.Analyze(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestCoachHandler_Analyze_NoUserID_ReturnsUnauthorized(t *testing.T) {
	h := NewCoachHandler(&mockCoachService{})

	w := httptest.NewRecorder()
	h.Analyze(w, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"text":"a"}`)))

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// --- POST /api/event テスト ---

func TestCoachHandler_Event_Success(t *testing.T) {
	var gotKind model.EventKind
	var gotMeta []byte
	svc := &mockCoachService{
		logEventFn: func(ctx context.Context, uid string, kind model.EventKind, meta []byte) error {
			gotKind = kind
			gotMeta = meta
			return nil
		},
	}
	h := NewCoachHandler(svc)

	body := `{"type":"checkout_succeeded","meta":{"source":"stripe"}}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader(body)), "user-123")
	w := httptest.NewRecorder()
	h.Event(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if gotKind != model.EventCheckoutSucceeded {
		t.Errorf("kind = %q", gotKind)
	}
	if !bytes.Equal(gotMeta, []byte(`{"source":"stripe"}`)) {
		t.Errorf("meta = %s", gotMeta)
	}

	var resp map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !resp["ok"] {
		t.Errorf("response = %v, want ok:true", resp)
	}
}

func TestCoachHandler_Event_InvalidType(t *testing.T) {
	svc := &mockCoachService{
		logEventFn: func(ctx context.Context, uid string, kind model.EventKind, meta []byte) error {
			return model.NewInvalidEventTypeError(string(kind))
		},
	}
	h := NewCoachHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader(`{"type":"session_start"}`)), "user-123")
	w := httptest.NewRecorder()
	h.Event(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
	if body := parseAPIErrorResponse(t, w); body["code"] != "INVALID_EVENT_TYPE" {
		t.Errorf("code = %q, want INVALID_EVENT_TYPE", body["code"])
	}
}

// --- POST /api/stripe/checkout テスト ---

func TestCoachHandler_Checkout_Success(t *testing.T) {
	svc := &mockCoachService{
		startCheckoutFn: func(ctx context.Context, uid string) (string, error) {
			return "https://buy.stripe.com/test_123", nil
		},
	}
	h := NewCoachHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/stripe/checkout", nil), "user-123")
	w := httptest.NewRecorder()
	h.Checkout(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body["url"] != "https://buy.stripe.com/test_123" {
		t.Errorf("url = %q", body["url"])
	}
}

func TestCoachHandler_Checkout_NotConfigured_Returns500(t *testing.T) {
	svc := &mockCoachService{
		startCheckoutFn: func(ctx context.Context, uid string) (string, error) {
			return "", model.NewPaymentLinkNotConfiguredError()
		},
	}
	h := NewCoachHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/stripe/checkout", nil), "user-123")
	w := httptest.NewRecorder()
	h.Checkout(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
	if body := parseAPIErrorResponse(t, w); body["code"] != "PAYMENT_LINK_NOT_CONFIGURED" {
		t.Errorf("code = %q, want PAYMENT_LINK_NOT_CONFIGURED", body["code"])
	}
}
