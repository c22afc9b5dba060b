package script

import "github.com/hitoshi/burnoutbuddy/internal/model"

// EmotionLabel は感情タグの韓国語表示名を返す。
func EmotionLabel(e model.Emotion) string {
	switch e {
	case model.EmotionAnxiety:
		return "불안/긴장"
	case model.EmotionAnger:
		return "분노/짜증"
	case model.EmotionSadness:
		return "우울/슬픔"
	case model.EmotionShame:
		return "자존감 저하/수치심"
	case model.EmotionBurnout:
		return "소진/번아웃"
	case model.EmotionOverwhelm:
		return "압박/과부하"
	default:
		return "복합 감정"
	}
}

// SituationLabel は状況タグの韓国語表示名を返す。
func SituationLabel(s model.Situation) string {
	switch s {
	case model.SituationMeeting:
		return "회의/발표 상황"
	case model.SituationOvertime:
		return "야근/과로 상황"
	case model.SituationBossConflict:
		return "상사와의 갈등/피드백 상황"
	case model.SituationDeadline:
		return "마감/데드라인 상황"
	case model.SituationTeamConflict:
		return "동료/팀 갈등 상황"
	case model.SituationPerformanceReview:
		return "성과/평가 압박 상황"
	default:
		return "업무 스트레스 상황"
	}
}
