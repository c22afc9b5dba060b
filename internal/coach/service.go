// Package coach は分類・記憶・イベント記録をまとめて会話の1往復を処理する。
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/burnoutbuddy/internal/analyze"
	"github.com/hitoshi/burnoutbuddy/internal/memory"
	"github.com/hitoshi/burnoutbuddy/internal/model"
	"github.com/hitoshi/burnoutbuddy/internal/script"
)

const (
	// OfferPriceUSDMonthly は有料プランの月額（USD）。
	OfferPriceUSDMonthly = 9.9
	// OfferCTA は有料プランの案内文。
	OfferCTA = "전담 AI 코치와 무제한 대화하기"
	// CheckoutProvider は checkout_started に記録する決済方法。
	CheckoutProvider = "stripe_payment_link"
)

// Classifier はテキスト分類インターフェース。
type Classifier interface {
	Analyze(raw string) analyze.Result
}

// ScriptBuilder は応答スクリプト生成インターフェース。
type ScriptBuilder interface {
	Build(in script.Input) script.Script
}

// MemoryStore はユーザー記憶の読み書きインターフェース。
type MemoryStore interface {
	Get(ctx context.Context, uid string) (model.UserMemory, error)
	Upsert(ctx context.Context, uid string, patch func(model.UserMemory) model.UserMemory) (model.UserMemory, error)
}

// EventAppender はイベントログへの追記インターフェース。
type EventAppender interface {
	Append(ctx context.Context, ev model.AnalyticsEvent) (int, error)
}

// Recorder は処理結果のメトリクス記録インターフェース。
// metrics.Collector が実装する。
type Recorder interface {
	RecordEventLogged(eventType string, logSize int)
	RecordAnalysis(emotion, situation string, microAction bool)
}

// Offer は有料プランの案内。
type Offer struct {
	PriceUSDMonthly float64 `json:"priceUsdMonthly"`
	CTA             string  `json:"cta"`
}

// Reply は会話1往復の応答。
type Reply struct {
	Reply           string      `json:"reply"`
	VoiceText       string      `json:"voiceText"`
	Meditation      string      `json:"meditation"`
	Tags            script.Tags `json:"tags"`
	ResilienceScore int         `json:"resilienceScore"`
	Offer           Offer       `json:"offer"`
}

// Service は会話・イベント・決済導線のサービス層。
type Service struct {
	classifier  Classifier
	builder     ScriptBuilder
	memories    MemoryStore
	events      EventAppender
	recorder    Recorder
	paymentLink string
	now         func() time.Time
}

// Option はServiceの任意設定。
type Option func(*Service)

// WithRecorder はメトリクス記録先を設定する。
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithPaymentLink は決済ページのURLを設定する。
func WithPaymentLink(url string) Option {
	return func(s *Service) { s.paymentLink = url }
}

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService はServiceを生成する。
func NewService(classifier Classifier, builder ScriptBuilder, memories MemoryStore, events EventAppender, opts ...Option) *Service {
	s := &Service{
		classifier: classifier,
		builder:    builder,
		memories:   memories,
		events:     events,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Respond はテキストを分類して応答を生成し、記憶の更新と session_start の記録を行う。
// 名前は リクエスト → 保存済みプロフィール → 本文からの推定 の順で採用する。
func (s *Service) Respond(ctx context.Context, uid, text, name string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.NewTextRequiredError()
	}

	mem, err := s.memories.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory: %w", err)
	}

	res := s.classifier.Analyze(text)

	resolvedName := strings.TrimSpace(name)
	if resolvedName == "" {
		resolvedName = mem.Profile.Name
	}
	if resolvedName == "" {
		resolvedName = res.InferredName
	}

	sc := s.builder.Build(script.Input{
		Name:            resolvedName,
		Text:            text,
		Emotion:         res.Emotion,
		Situation:       res.Situation,
		LastMemoryNudge: mem.LastNudge(),
	})

	now := s.now()
	_, err = s.memories.Upsert(ctx, uid, func(m model.UserMemory) model.UserMemory {
		m.Stressors = memory.AddUniqueStressors(m.Stressors, res.Stressors)
		m.Turns = memory.AppendTurn(m.Turns, model.MemoryTurn{
			TS:                 model.MillisOf(now),
			UserText:           text,
			AIText:             sc.ReplyText,
			Emotion:            res.Emotion,
			Situation:          res.Situation,
			ExtractedStressors: res.Stressors,
		})
		m.LastSeenAt = model.MillisOf(now)
		if resolvedName != "" {
			m.Profile.Name = resolvedName
		}
		return m
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update memory: %w", err)
	}

	if err := s.append(ctx, model.NewEvent(now, uid, model.SessionStartPayload{
		Emotion:   res.Emotion,
		Situation: res.Situation,
	})); err != nil {
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordAnalysis(string(res.Emotion), string(res.Situation), sc.MicroAction)
	}

	slog.Debug("analysis completed",
		slog.String("user_id", uid),
		slog.String("emotion", string(res.Emotion)),
		slog.String("situation", string(res.Situation)),
		slog.Int("stressors", len(res.Stressors)),
	)

	return &Reply{
		Reply:           sc.ReplyText,
		VoiceText:       sc.VoiceText,
		Meditation:      sc.MeditationText,
		Tags:            sc.Tags,
		ResilienceScore: sc.ResilienceScore,
		Offer: Offer{
			PriceUSDMonthly: OfferPriceUSDMonthly,
			CTA:             OfferCTA,
		},
	}, nil
}

// clientEventKinds はクライアントから記録できるイベント種別。
// session_start と checkout_started はサーバー側の処理でのみ記録する。
var clientEventKinds = map[model.EventKind]bool{
	model.EventSessionEnd:        true,
	model.EventCheckoutClicked:   true,
	model.EventCheckoutSucceeded: true,
}

// IsClientEventKind はクライアントから記録できるイベント種別かどうかを判定する。
func IsClientEventKind(kind model.EventKind) bool {
	return clientEventKinds[kind]
}

// LogEvent はクライアントから送られたイベントを記録する。
// 種別が許可されていない場合は INVALID_EVENT_TYPE、メタデータが不正な場合は INVALID_REQUEST を返す。
func (s *Service) LogEvent(ctx context.Context, uid string, kind model.EventKind, meta []byte) error {
	if !IsClientEventKind(kind) {
		return model.NewInvalidEventTypeError(string(kind))
	}

	payload, err := model.DecodePayload(kind, meta)
	if err != nil {
		slog.Warn("invalid event meta",
			slog.String("type", string(kind)),
			slog.String("error", err.Error()),
		)
		return model.NewInvalidRequestError()
	}

	return s.append(ctx, model.NewEvent(s.now(), uid, payload))
}

// StartCheckout は checkout_started を記録して決済ページのURLを返す。
// URLが設定されていない場合は PAYMENT_LINK_NOT_CONFIGURED を返す。
func (s *Service) StartCheckout(ctx context.Context, uid string) (string, error) {
	if s.paymentLink == "" {
		return "", model.NewPaymentLinkNotConfiguredError()
	}

	if err := s.append(ctx, model.NewEvent(s.now(), uid, model.CheckoutStartedPayload{
		Provider: CheckoutProvider,
	})); err != nil {
		return "", err
	}
	return s.paymentLink, nil
}

func (s *Service) append(ctx context.Context, ev model.AnalyticsEvent) error {
	size, err := s.events.Append(ctx, ev)
	if err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	if s.recorder != nil {
		s.recorder.RecordEventLogged(string(ev.Kind), size)
	}
	return nil
}
