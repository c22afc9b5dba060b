// Package analyze はキーワード照合によるテキスト分類を提供する。
// 自然言語理解は行わず、固定キーワードの出現数だけで判定する。
package analyze

import (
	"regexp"
	"strings"

	"github.com/hitoshi/burnoutbuddy/internal/model"
)

// MaxStressors は1回の分類で抽出するストレス要因の上限。
const MaxStressors = 6

// namePatterns は自己紹介から名前を推定するパターン。先に一致したものを採用する。
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`내\s*이름은\s*([가-힣]{2,6})`),
	regexp.MustCompile(`저는\s*([가-힣]{2,6})\s*이고`),
	regexp.MustCompile(`나는\s*([가-힣]{2,6})\s*(이야|입니다|야)`),
}

// Result はテキスト分類の結果。
type Result struct {
	Emotion      model.Emotion
	Situation    model.Situation
	Stressors    []string
	InferredName string
}

// Classifier はキーワード表に基づいてテキストを分類する。
type Classifier struct {
	lexicon *Lexicon
}

// NewClassifier はClassifierを生成する。lexがnilの場合は埋め込みのキーワード表を使用する。
func NewClassifier(lex *Lexicon) *Classifier {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Classifier{lexicon: lex}
}

// Analyze はテキストの支配的な感情と状況、ストレス要因、推定名を返す。
// 最高スコアが同点の場合はキーワード表で先に宣言されたタグを採用し、
// 全て0の場合は NEUTRAL / GENERAL を返す。
func (c *Classifier) Analyze(raw string) Result {
	text := strings.TrimSpace(raw)

	res := Result{
		Emotion:   model.EmotionNeutral,
		Situation: model.SituationGeneral,
		Stressors: []string{},
	}

	best := 0
	for _, r := range c.lexicon.Emotions {
		if s := score(text, r.Keywords); s > best {
			best = s
			res.Emotion = r.Tag
		}
	}

	best = 0
	for _, r := range c.lexicon.Situations {
		if s := score(text, r.Keywords); s > best {
			best = s
			res.Situation = r.Tag
		}
	}

	seen := make(map[string]bool)
	for _, k := range c.lexicon.Stressors {
		if len(res.Stressors) == MaxStressors {
			break
		}
		if seen[k] || !strings.Contains(text, k) {
			continue
		}
		seen[k] = true
		res.Stressors = append(res.Stressors, k)
	}

	res.InferredName = inferName(text)
	return res
}

// score はテキストに含まれるキーワードの種類数を返す。
func score(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

func inferName(text string) string {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
