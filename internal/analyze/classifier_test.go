package analyze

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/hitoshi/burnoutbuddy/internal/model"
)

func TestAnalyze_BossFeedbackBurnout(t *testing.T) {
	c := NewClassifier(nil)

	res := c.Analyze("상사 피드백 때문에 너무 지치고 번아웃 왔어")

	if res.Emotion != model.EmotionBurnout {
		t.Errorf("Emotion = %s, want BURNOUT", res.Emotion)
	}
	if res.Situation != model.SituationBossConflict {
		t.Errorf("Situation = %s, want BOSS_CONFLICT", res.Situation)
	}
	for _, want := range []string{"상사", "피드백", "번아웃"} {
		if !slices.Contains(res.Stressors, want) {
			t.Errorf("Stressors = %v, missing %s", res.Stressors, want)
		}
	}
}

func TestAnalyze(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name          string
		text          string
		wantEmotion   model.Emotion
		wantSituation model.Situation
	}{
		{
			name:          "キーワードなしはNEUTRAL/GENERAL",
			text:          "오늘 점심은 김치찌개였어",
			wantEmotion:   model.EmotionNeutral,
			wantSituation: model.SituationGeneral,
		},
		{
			name:          "空文字列はNEUTRAL/GENERAL",
			text:          "   ",
			wantEmotion:   model.EmotionNeutral,
			wantSituation: model.SituationGeneral,
		},
		{
			name:          "会議と不安",
			text:          "내일 발표가 있어서 너무 불안하고 긴장돼",
			wantEmotion:   model.EmotionAnxiety,
			wantSituation: model.SituationMeeting,
		},
		{
			name:          "同点は先に宣言された感情",
			text:          "걱정도 되고 짜증도 나",
			wantEmotion:   model.EmotionAnxiety,
			wantSituation: model.SituationGeneral,
		},
		{
			name:          "同点は先に宣言された状況",
			text:          "야근하고 마감까지 맞춰야 해",
			wantEmotion:   model.EmotionNeutral,
			wantSituation: model.SituationOvertime,
		},
		{
			name:          "スコアが高い方が勝つ",
			text:          "회의 끝나고 마감이 데드라인이라 기한 안에 못 끝낼 것 같아",
			wantEmotion:   model.EmotionNeutral,
			wantSituation: model.SituationDeadline,
		},
		{
			name:          "英字キーワード",
			text:          "KPI 때문에 압박이 심해",
			wantEmotion:   model.EmotionOverwhelm,
			wantSituation: model.SituationPerformanceReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Analyze(tt.text)
			if res.Emotion != tt.wantEmotion {
				t.Errorf("Emotion = %s, want %s", res.Emotion, tt.wantEmotion)
			}
			if res.Situation != tt.wantSituation {
				t.Errorf("Situation = %s, want %s", res.Situation, tt.wantSituation)
			}
		})
	}
}

func TestAnalyze_StressorsCappedInDeclarationOrder(t *testing.T) {
	c := NewClassifier(nil)

	res := c.Analyze("번아웃 자존감 협업 동료 성과 마감 회의 야근 피드백 상사")

	want := []string{"상사", "피드백", "야근", "회의", "마감", "성과"}
	if !slices.Equal(res.Stressors, want) {
		t.Errorf("Stressors = %v, want %v", res.Stressors, want)
	}
}

func TestAnalyze_InferredName(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		text string
		want string
	}{
		{text: "내 이름은 김민수 그리고 오늘 힘들었어", want: "김민수"},
		{text: "저는 지영 이고 마케팅팀이에요", want: "지영"},
		{text: "나는 서연 이야. 야근 너무 많아", want: "서연"},
		{text: "나는 하준입니다", want: "하준"},
		{text: "그냥 힘들어", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := c.Analyze(tt.text).InferredName; got != tt.want {
				t.Errorf("InferredName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultLexicon_DeclarationOrder(t *testing.T) {
	lex := DefaultLexicon()

	if lex.Emotions[0].Tag != model.EmotionAnxiety || lex.Emotions[len(lex.Emotions)-1].Tag != model.EmotionOverwhelm {
		t.Errorf("unexpected emotion order: %v", lex.Emotions)
	}
	if lex.Situations[0].Tag != model.SituationMeeting {
		t.Errorf("unexpected situation order: %v", lex.Situations)
	}
	if len(lex.Stressors) != 10 {
		t.Errorf("len(Stressors) = %d, want 10", len(lex.Stressors))
	}
}

func TestLoadLexicon_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `
emotions:
  - tag: ANGER
    keywords: [빡침]
situations:
  - tag: OVERTIME
    keywords: [철야]
stressors: [철야]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write lexicon: %v", err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon failed: %v", err)
	}

	res := NewClassifier(lex).Analyze("어제 철야해서 빡침")
	if res.Emotion != model.EmotionAnger || res.Situation != model.SituationOvertime {
		t.Errorf("res = %+v", res)
	}
	if !slices.Equal(res.Stressors, []string{"철야"}) {
		t.Errorf("Stressors = %v", res.Stressors)
	}
}

func TestLoadLexicon_EmptyPathUsesDefault(t *testing.T) {
	lex, err := LoadLexicon("")
	if err != nil {
		t.Fatalf("LoadLexicon failed: %v", err)
	}
	if len(lex.Emotions) != 6 || len(lex.Situations) != 6 {
		t.Errorf("default lexicon has %d emotions and %d situations", len(lex.Emotions), len(lex.Situations))
	}
}

func TestLoadLexicon_MissingFile(t *testing.T) {
	if _, err := LoadLexicon(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseLexicon_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "壊れたYAML", yaml: "emotions: [\n"},
		{name: "感情なし", yaml: "situations:\n  - tag: MEETING\n    keywords: [회의]\n"},
		{name: "未知の感情", yaml: "emotions:\n  - tag: JOY\n    keywords: [기쁨]\nsituations:\n  - tag: MEETING\n    keywords: [회의]\n"},
		{name: "NEUTRALは宣言できない", yaml: "emotions:\n  - tag: NEUTRAL\n    keywords: [그냥]\nsituations:\n  - tag: MEETING\n    keywords: [회의]\n"},
		{name: "重複した状況", yaml: "emotions:\n  - tag: ANGER\n    keywords: [화]\nsituations:\n  - tag: MEETING\n    keywords: [회의]\n  - tag: MEETING\n    keywords: [미팅]\n"},
		{name: "空のキーワード", yaml: "emotions:\n  - tag: ANGER\n    keywords: [\"\"]\nsituations:\n  - tag: MEETING\n    keywords: [회의]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLexicon([]byte(tt.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
