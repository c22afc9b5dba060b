package analyze

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hitoshi/burnoutbuddy/internal/model"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// EmotionRule は1つの感情タグとその判定キーワード。
type EmotionRule struct {
	Tag      model.Emotion `yaml:"tag"`
	Keywords []string      `yaml:"keywords"`
}

// SituationRule は1つの状況タグとその判定キーワード。
type SituationRule struct {
	Tag      model.Situation `yaml:"tag"`
	Keywords []string        `yaml:"keywords"`
}

// Lexicon は分類に使うキーワード表。
// スライスの順序が同点時の優先順位になる。
type Lexicon struct {
	Emotions   []EmotionRule   `yaml:"emotions"`
	Situations []SituationRule `yaml:"situations"`
	Stressors  []string        `yaml:"stressors"`
}

// DefaultLexicon は埋め込みのキーワード表を返す。
func DefaultLexicon() *Lexicon {
	lex, err := ParseLexicon(defaultLexiconYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon is invalid: %v", err))
	}
	return lex
}

// LoadLexicon はYAMLファイルからキーワード表を読み込む。
// pathが空の場合は埋め込みのキーワード表を返す。
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}
	lex, err := ParseLexicon(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon %s: %w", path, err)
	}
	return lex, nil
}

// ParseLexicon はYAMLをパースし、内容を検証する。
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("invalid lexicon yaml: %w", err)
	}
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// Validate はタグが既知であること、重複がないこと、空のキーワードがないことを検証する。
func (l *Lexicon) Validate() error {
	if len(l.Emotions) == 0 {
		return fmt.Errorf("lexicon has no emotions")
	}
	if len(l.Situations) == 0 {
		return fmt.Errorf("lexicon has no situations")
	}

	seenEmotion := make(map[model.Emotion]bool)
	for _, r := range l.Emotions {
		if !model.IsKnownEmotion(r.Tag) || r.Tag == model.EmotionNeutral {
			return fmt.Errorf("unknown emotion tag: %q", r.Tag)
		}
		if seenEmotion[r.Tag] {
			return fmt.Errorf("duplicate emotion tag: %s", r.Tag)
		}
		seenEmotion[r.Tag] = true
		if err := validateKeywords(string(r.Tag), r.Keywords); err != nil {
			return err
		}
	}

	seenSituation := make(map[model.Situation]bool)
	for _, r := range l.Situations {
		if !model.IsKnownSituation(r.Tag) || r.Tag == model.SituationGeneral {
			return fmt.Errorf("unknown situation tag: %q", r.Tag)
		}
		if seenSituation[r.Tag] {
			return fmt.Errorf("duplicate situation tag: %s", r.Tag)
		}
		seenSituation[r.Tag] = true
		if err := validateKeywords(string(r.Tag), r.Keywords); err != nil {
			return err
		}
	}

	return validateKeywords("stressors", l.Stressors)
}

func validateKeywords(owner string, keywords []string) error {
	for _, k := range keywords {
		if k == "" {
			return fmt.Errorf("%s: empty keyword", owner)
		}
	}
	return nil
}
