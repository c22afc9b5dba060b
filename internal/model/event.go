package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// EventKind は分析イベントの種別タグを表す。
type EventKind string

const (
	EventSessionStart      EventKind = "session_start"
	EventSessionEnd        EventKind = "session_end"
	EventCheckoutClicked   EventKind = "checkout_clicked"
	EventCheckoutStarted   EventKind = "checkout_started"
	EventCheckoutSucceeded EventKind = "checkout_succeeded"
)

// Valid は定義済みのイベント種別かどうかを判定する。
func (k EventKind) Valid() bool {
	switch k {
	case EventSessionStart, EventSessionEnd, EventCheckoutClicked,
		EventCheckoutStarted, EventCheckoutSucceeded:
		return true
	default:
		return false
	}
}

// EventPayload はイベント種別ごとに型付けされたメタデータ。
// 具象型は種別と1対1に対応する。
type EventPayload interface {
	EventKind() EventKind
}

// SessionStartPayload は session_start のメタデータ。
type SessionStartPayload struct {
	Emotion   Emotion   `json:"emotion,omitempty"`
	Situation Situation `json:"situation,omitempty"`
}

func (SessionStartPayload) EventKind() EventKind { return EventSessionStart }

// SessionEndPayload は session_end のメタデータ（フィールドなし）。
type SessionEndPayload struct{}

func (SessionEndPayload) EventKind() EventKind { return EventSessionEnd }

// CheckoutClickedPayload は checkout_clicked のメタデータ（フィールドなし）。
type CheckoutClickedPayload struct{}

func (CheckoutClickedPayload) EventKind() EventKind { return EventCheckoutClicked }

// CheckoutStartedPayload は checkout_started のメタデータ。
type CheckoutStartedPayload struct {
	Provider string `json:"provider,omitempty"`
}

func (CheckoutStartedPayload) EventKind() EventKind { return EventCheckoutStarted }

// CheckoutSucceededPayload は checkout_succeeded のメタデータ。
type CheckoutSucceededPayload struct {
	Source string `json:"source,omitempty"`
}

func (CheckoutSucceededPayload) EventKind() EventKind { return EventCheckoutSucceeded }

// rawPayload は未知の種別のメタデータをそのまま保持する。
// 古い/新しいバージョンが書いたイベントを書き戻しで失わないために使う。
type rawPayload struct {
	kind EventKind
	raw  json.RawMessage
}

func (p rawPayload) EventKind() EventKind { return p.kind }

// AnalyticsEvent はユーザー操作を表す追記専用のイベント。
// 一度ログに追加されたら変更しない。順序はログ上の挿入順。
type AnalyticsEvent struct {
	Timestamp time.Time
	UserID    string
	Kind      EventKind
	Payload   EventPayload
}

// NewEvent はペイロードの種別からイベントを生成する。
func NewEvent(ts time.Time, userID string, payload EventPayload) AnalyticsEvent {
	return AnalyticsEvent{
		Timestamp: ts,
		UserID:    userID,
		Kind:      payload.EventKind(),
		Payload:   payload,
	}
}

// SessionEmotion は session_start イベントの感情を返す。
// 感情が記録されていない場合や読み取れない場合は NEUTRAL を返す。
func (e AnalyticsEvent) SessionEmotion() Emotion {
	if p, ok := e.Payload.(SessionStartPayload); ok && p.Emotion != "" {
		return p.Emotion
	}
	return EmotionNeutral
}

// eventWire は永続化/通信用のJSON表現。
// {"ts": <unix ms>, "uid": "...", "type": "...", "meta": {...}}
type eventWire struct {
	TS   UnixMillis      `json:"ts"`
	UID  string          `json:"uid"`
	Type EventKind       `json:"type"`
	Meta json.RawMessage `json:"meta,omitempty"`
}

// MarshalJSON はイベントをワイヤ形式で書き出す。
func (e AnalyticsEvent) MarshalJSON() ([]byte, error) {
	w := eventWire{
		TS:   MillisOf(e.Timestamp),
		UID:  e.UserID,
		Type: e.Kind,
	}

	switch p := e.Payload.(type) {
	case nil:
	case rawPayload:
		w.Meta = p.raw
	default:
		meta, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", e.Kind, err)
		}
		if !bytes.Equal(meta, []byte("{}")) {
			w.Meta = meta
		}
	}

	return json.Marshal(w)
}

// UnmarshalJSON はワイヤ形式のイベントを読み込み、種別に応じたペイロードに復元する。
func (e *AnalyticsEvent) UnmarshalJSON(b []byte) error {
	var w eventWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	// 型が合わないメタデータはそのまま保持し、ログ全体を読めなくしない
	payload, err := DecodePayload(w.Type, w.Meta)
	if err != nil {
		payload = rawPayload{kind: w.Type, raw: append(json.RawMessage(nil), w.Meta...)}
	}

	e.Timestamp = w.TS.Time
	e.UserID = w.UID
	e.Kind = w.Type
	e.Payload = payload
	return nil
}

// DecodePayload はメタデータJSONを種別に対応する具象ペイロードに変換する。
// 種別に存在しないキーは無視する。未知の種別は生のJSONを保持する。
func DecodePayload(kind EventKind, meta json.RawMessage) (EventPayload, error) {
	empty := len(meta) == 0 || bytes.Equal(meta, []byte("null"))

	switch kind {
	case EventSessionStart:
		var p SessionStartPayload
		if !empty {
			if err := json.Unmarshal(meta, &p); err != nil {
				return nil, fmt.Errorf("invalid %s meta: %w", kind, err)
			}
		}
		return p, nil
	case EventSessionEnd:
		return SessionEndPayload{}, nil
	case EventCheckoutClicked:
		return CheckoutClickedPayload{}, nil
	case EventCheckoutStarted:
		var p CheckoutStartedPayload
		if !empty {
			if err := json.Unmarshal(meta, &p); err != nil {
				return nil, fmt.Errorf("invalid %s meta: %w", kind, err)
			}
		}
		return p, nil
	case EventCheckoutSucceeded:
		var p CheckoutSucceededPayload
		if !empty {
			if err := json.Unmarshal(meta, &p); err != nil {
				return nil, fmt.Errorf("invalid %s meta: %w", kind, err)
			}
		}
		return p, nil
	default:
		if empty {
			return rawPayload{kind: kind}, nil
		}
		return rawPayload{kind: kind, raw: append(json.RawMessage(nil), meta...)}, nil
	}
}
