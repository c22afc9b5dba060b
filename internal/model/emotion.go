// Package model はドメインモデルを定義する。
package model

// Emotion はテキストから判定される支配的な感情タグを表す。
type Emotion string

const (
	EmotionAnxiety   Emotion = "ANXIETY"
	EmotionAnger     Emotion = "ANGER"
	EmotionSadness   Emotion = "SADNESS"
	EmotionShame     Emotion = "SHAME"
	EmotionBurnout   Emotion = "BURNOUT"
	EmotionOverwhelm Emotion = "OVERWHELM"
	EmotionNeutral   Emotion = "NEUTRAL"
)

// Situation はテキストから判定される職場の状況タグを表す。
type Situation string

const (
	SituationMeeting           Situation = "MEETING"
	SituationOvertime          Situation = "OVERTIME"
	SituationBossConflict      Situation = "BOSS_CONFLICT"
	SituationDeadline          Situation = "DEADLINE"
	SituationTeamConflict      Situation = "TEAM_CONFLICT"
	SituationPerformanceReview Situation = "PERFORMANCE_REVIEW"
	SituationGeneral           Situation = "GENERAL"
)

// DefaultSeverity は重症度テーブルに存在しない感情に割り当てる値。
const DefaultSeverity = 5

// emotionSeverity は感情タグから1〜10の序数スコアへの固定マッピング。
var emotionSeverity = map[Emotion]int{
	EmotionBurnout:   10,
	EmotionOverwhelm: 9,
	EmotionAnxiety:   8,
	EmotionAnger:     7,
	EmotionSadness:   6,
	EmotionShame:     5,
	EmotionNeutral:   2,
}

// Severity は感情の重症度を返す。未知の感情にはDefaultSeverityを返す。
func Severity(e Emotion) int {
	if s, ok := emotionSeverity[e]; ok {
		return s
	}
	return DefaultSeverity
}

// IsKnownEmotion は定義済みの感情タグかどうかを判定する。
func IsKnownEmotion(e Emotion) bool {
	_, ok := emotionSeverity[e]
	return ok
}

// IsKnownSituation は定義済みの状況タグかどうかを判定する。
func IsKnownSituation(s Situation) bool {
	switch s {
	case SituationMeeting, SituationOvertime, SituationBossConflict, SituationDeadline,
		SituationTeamConflict, SituationPerformanceReview, SituationGeneral:
		return true
	default:
		return false
	}
}
