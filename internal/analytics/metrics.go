// Package analytics はイベントログからグロース指標を算出する。
// ComputeDashboard と ComputeBurnout は副作用を持たない純粋関数。
package analytics

import (
	"sort"
	"time"

	"github.com/hitoshi/burnoutbuddy/internal/model"
)

// Retention は7日リテンション指標。
type Retention struct {
	CohortSize int     `json:"cohortSize"`
	Retained   int     `json:"retained"`
	Rate       float64 `json:"rate"`
}

// Conversion は直近7日のコンバージョン指標。
type Conversion struct {
	Sessions              int     `json:"sessions"`
	CheckoutStarted       int     `json:"checkoutStarted"`
	CheckoutSucceeded     int     `json:"checkoutSucceeded"`
	RateBySession         float64 `json:"rateBySession"`
	RateByCheckoutStarted float64 `json:"rateByCheckoutStarted"`
}

// DashboardMetrics はリテンションとコンバージョンの指標セット。
type DashboardMetrics struct {
	Retention7d  Retention  `json:"retention7d"`
	Conversion7d Conversion `json:"conversion7d"`
}

// BurnoutMetrics は感情改善とエンゲージメントの指標セット。
type BurnoutMetrics struct {
	AvgEmotionImprovement float64               `json:"avgEmotionImprovement"`
	EmotionDistribution   map[model.Emotion]int `json:"emotionDistribution"`
	SessionCompletionRate float64               `json:"sessionCompletionRate"`
	TotalSessions         int                   `json:"totalSessions"`
	UniqueUsers           int                   `json:"uniqueUsers"`
	AvgSessionsPerUser    float64               `json:"avgSessionsPerUser"`
}

// improvementOffset は平均改善度に加算してから[0,1]に丸める補正値。
const improvementOffset = 0.5

// daysAgo はnowと同じロケーションでの当日0時からn日前の0時を返す。
func daysAgo(now time.Time, n int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-n, 0, 0, 0, 0, now.Location())
}

// startOfDay はtをlocでの0時に切り捨てる。
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// sessionsByUser はユーザーごとの session_start をタイムスタンプ昇順で返す。
// 同時刻のイベントは挿入順を保つ。ユーザーの並びは最初に現れた順。
func sessionsByUser(events []model.AnalyticsEvent) ([]string, map[string][]model.AnalyticsEvent) {
	var order []string
	byUser := make(map[string][]model.AnalyticsEvent)
	for _, e := range events {
		if e.Kind != model.EventSessionStart {
			continue
		}
		if _, ok := byUser[e.UserID]; !ok {
			order = append(order, e.UserID)
		}
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}
	for _, uid := range order {
		s := byUser[uid]
		sort.SliceStable(s, func(i, j int) bool {
			return s[i].Timestamp.Before(s[j].Timestamp)
		})
	}
	return order, byUser
}

// ComputeDashboard は7日リテンションと7日コンバージョンを算出する。
// 日の境界はnowのロケーションの0時。
func ComputeDashboard(events []model.AnalyticsEvent, now time.Time) DashboardMetrics {
	loc := now.Location()
	windowStart := daysAgo(now, 7)
	cohortStart := daysAgo(now, 14)
	cohortEnd := windowStart

	inWindow := func(t time.Time) bool {
		return !t.Before(windowStart) && !t.After(now)
	}

	var conv Conversion
	for _, e := range events {
		if !inWindow(e.Timestamp) {
			continue
		}
		switch e.Kind {
		case model.EventSessionStart:
			conv.Sessions++
		case model.EventCheckoutStarted:
			conv.CheckoutStarted++
		case model.EventCheckoutSucceeded:
			conv.CheckoutSucceeded++
		}
	}
	// checkout_succeeded はクライアントから送られるため分子が分母を超えうる
	conv.RateBySession = clamp01(ratio(conv.CheckoutSucceeded, conv.Sessions))
	conv.RateByCheckoutStarted = clamp01(ratio(conv.CheckoutSucceeded, conv.CheckoutStarted))

	// コホート: 初回セッションが (14日前, 7日前] のユーザー
	// 定着: 7日前の0時以降にセッション日があるユーザー
	var ret Retention
	order, byUser := sessionsByUser(events)
	for _, uid := range order {
		sessions := byUser[uid]
		first := sessions[0].Timestamp
		if !first.After(cohortStart) || first.After(cohortEnd) {
			continue
		}
		ret.CohortSize++
		for _, s := range sessions {
			if !startOfDay(s.Timestamp, loc).Before(cohortEnd) {
				ret.Retained++
				break
			}
		}
	}
	ret.Rate = ratio(ret.Retained, ret.CohortSize)

	return DashboardMetrics{Retention7d: ret, Conversion7d: conv}
}

// ComputeBurnout は感情分布・感情改善度・セッション完了率を算出する。
func ComputeBurnout(events []model.AnalyticsEvent) BurnoutMetrics {
	m := BurnoutMetrics{EmotionDistribution: map[model.Emotion]int{}}

	sessionEnds := 0
	for _, e := range events {
		switch e.Kind {
		case model.EventSessionStart:
			m.TotalSessions++
			m.EmotionDistribution[e.SessionEmotion()]++
		case model.EventSessionEnd:
			sessionEnds++
		}
	}

	order, byUser := sessionsByUser(events)
	m.UniqueUsers = len(order)

	var sum float64
	qualified := 0
	for _, uid := range order {
		sessions := byUser[uid]
		if len(sessions) < 2 {
			continue
		}
		first := model.Severity(sessions[0].SessionEmotion())
		last := model.Severity(sessions[len(sessions)-1].SessionEmotion())
		sum += float64(first-last) / 10
		qualified++
	}
	if qualified > 0 {
		m.AvgEmotionImprovement = clamp01(sum/float64(qualified) + improvementOffset)
	}

	m.SessionCompletionRate = ratio(sessionEnds, m.TotalSessions)
	m.AvgSessionsPerUser = ratio(m.TotalSessions, m.UniqueUsers)
	return m
}
