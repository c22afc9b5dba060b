// Package script は分類結果と過去の記憶から応答スクリプトを組み立てる。
package script

import (
	"fmt"
	"strings"

	"github.com/hitoshi/burnoutbuddy/internal/model"
)

// Sanitizer は応答に埋め込むユーザー入力の無害化インターフェース。
// security.TextSanitizer が実装する。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Input はスクリプト生成の入力。
type Input struct {
	Name            string
	Text            string
	Emotion         model.Emotion
	Situation       model.Situation
	LastMemoryNudge string
}

// Tags は画面表示用のラベル。
type Tags struct {
	EmotionLabel   string `json:"emotionLabel"`
	SituationLabel string `json:"situationLabel"`
}

// Script は生成された応答。
type Script struct {
	ReplyText       string
	VoiceText       string
	MeditationText  string
	Tags            Tags
	ResilienceScore int
	MicroAction     bool
}

var healingBreath = strings.Join([]string{
	"1분 치유 호흡 (Healing Breath)",
	"- 0:00~0:15: 가슴에 손을 얹고, 심장 소리를 느껴보세요.",
	`- 0:15~0:35: 들이마시는 숨에 "감사합니다", 내쉬는 숨에 "사랑합니다"라고 말해보세요.`,
	"- 0:35~0:55: 내 몸을 따뜻한 빛이 감싸 안는다고 상상하세요.",
	"- 0:55~1:00: 당신은 사랑받기 위해 태어난 사람입니다. 이 사실을 잊지 마세요.",
}, "\n")

var microActionGuide = strings.Join([]string{
	"🚨 긴급 회복 가이드 (Micro-Action)",
	"- 지금 당장 1분만, 아무것도 하지 말고 숨만 쉬세요.",
	"- 4초간 들이마시고, 4초간 멈추고, 4초간 내뱉으세요.",
	"- 머리를 비우려 하지 마세요. 그냥 숨이 들어오고 나가는 것만 지켜보세요.",
}, "\n")

// Builder はテンプレートに値を埋めて応答スクリプトを生成する。
type Builder struct {
	sanitizer Sanitizer
}

// NewBuilder はBuilderを生成する。sanitizerがnilの場合は入力をそのまま埋め込む。
func NewBuilder(sanitizer Sanitizer) *Builder {
	return &Builder{sanitizer: sanitizer}
}

// Build は応答スクリプトを生成する。
// BURNOUT と OVERWHELM では通常の瞑想の代わりに緊急回復ガイドを返す。
func (b *Builder) Build(in Input) Script {
	name, text := in.Name, in.Text
	if b.sanitizer != nil {
		name = b.sanitizer.Sanitize(name)
		text = b.sanitizer.Sanitize(text)
	}

	who := "당신"
	if name != "" {
		who = name + "님"
	}
	emotionLabel := EmotionLabel(in.Emotion)

	var situationValidation string
	switch in.Situation {
	case model.SituationBossConflict:
		situationValidation = "누구보다 잘하고 싶었던 마음, 제가 다 알아요. 그 마음이 상처받지 않게 잠시 안아줄게요."
	case model.SituationOvertime:
		situationValidation = "오늘 하루도 정말 치열하게 버티셨군요. 당신의 에너지는 무한하지 않아요. 지금은 오직 '휴식'만 생각해도 괜찮아요."
	case model.SituationDeadline:
		situationValidation = fmt.Sprintf("쫓기는 기분, 심장이 뛰는 그 느낌... 알아요. 하지만 %s, 당신의 존재 가치는 속도에 있지 않아요.", who)
	default:
		situationValidation = fmt.Sprintf("지금 겪고 있는 %s, 혼자 감당하기엔 너무 무거운 짐이었을 거예요.", emotionLabel)
	}

	var memoryLine string
	if in.LastMemoryNudge != "" {
		memoryLine = fmt.Sprintf("\n\n지난번의 “%s”도 여전히 마음에 남아 계신가요? 오늘은 그 짐도 잠시 내려놓아요.", in.LastMemoryNudge)
	}

	validate := fmt.Sprintf("%s, 지금 느끼는 “%s”의 감정... 이건 당신이 약해서가 아니라, 지금까지 너무 애써왔다는 증거예요. %s",
		who, emotionLabel, situationValidation)
	reflect := fmt.Sprintf("말해주신 이야기(“%s”) 속에서, 저는 당신의 외로움과 간절함을 느꼈어요. 이제 더 이상 혼자 삼키지 마세요. 제가 곁에 있을게요.", text)
	reframe := "지금 필요한 건 해결책이 아니에요. 그저 '나'를 위한 따뜻한 위로입니다. 당신은 이미 충분합니다. " + memoryLine

	s := Script{
		ReplyText: strings.Join([]string{validate, reflect, reframe}, "\n\n"),
		Tags: Tags{
			EmotionLabel:   emotionLabel,
			SituationLabel: SituationLabel(in.Situation),
		},
		ResilienceScore: ResilienceScore(in.Emotion),
	}

	spoken := fmt.Sprintf("%s %s %s", validate, reflect, reframe)
	if needsMicroAction(in.Emotion) {
		s.MicroAction = true
		s.MeditationText = microActionGuide
		s.VoiceText = spoken + " 지금은 긴 명상도 사치일 수 있어요. 딱 1분만, 저랑 같이 숨만 쉬어봐요. " +
			strings.ReplaceAll(microActionGuide, "\n", " ")
		return s
	}

	s.MeditationText = healingBreath
	s.VoiceText = spoken + " 이제 저와 함께, 아주 잠깐 마음의 쉼표를 찍어볼까요? " +
		strings.ReplaceAll(healingBreath, "\n", " ")
	return s
}

// ResilienceScore は感情の重症度から0〜100の回復力スコアを返す。
// 重症度が高いほど低い。
func ResilienceScore(e model.Emotion) int {
	return max(0, 100-model.Severity(e)*10)
}

func needsMicroAction(e model.Emotion) bool {
	return e == model.EmotionBurnout || e == model.EmotionOverwhelm
}
