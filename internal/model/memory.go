package model

import "time"

const (
	// MaxMemoryTurns はユーザーごとに保持する会話ターンの上限。
	MaxMemoryTurns = 30
	// MaxStressors はユーザーごとに保持するストレス要因キーワードの上限。
	MaxStressors = 30
	// MaxStressorLength はストレス要因キーワード1件の最大文字数（rune数）。
	MaxStressorLength = 60
)

// Profile はユーザーのプロフィール情報。
type Profile struct {
	Name string `json:"name,omitempty"`
}

// MemoryTurn は1往復の会話記録を表す。
type MemoryTurn struct {
	TS                 UnixMillis `json:"ts"`
	UserText           string     `json:"userText"`
	AIText             string     `json:"aiText"`
	Emotion            Emotion    `json:"emotion"`
	Situation          Situation  `json:"situation"`
	ExtractedStressors []string   `json:"extractedStressors"`
}

// UserMemory はユーザーごとの会話履歴と抽出済みストレス要因。
// 読み込み→変更→保存のサイクルで更新され、プロセス間では後勝ちとなる。
type UserMemory struct {
	UID        string       `json:"uid"`
	CreatedAt  UnixMillis   `json:"createdAt"`
	LastSeenAt UnixMillis   `json:"lastSeenAt"`
	Profile    Profile      `json:"profile"`
	Stressors  []string     `json:"stressors"`
	Turns      []MemoryTurn `json:"turns"`
}

// NewUserMemory は空のUserMemoryを生成する。
func NewUserMemory(uid string, now time.Time) UserMemory {
	return UserMemory{
		UID:        uid,
		CreatedAt:  MillisOf(now),
		LastSeenAt: MillisOf(now),
		Stressors:  []string{},
		Turns:      []MemoryTurn{},
	}
}

// LastNudge は前回の会話から引き継ぐストレス要因を返す。
// 蓄積済みストレス要因の先頭、なければ直近ターンの先頭の要因。どちらもなければ空文字。
func (m UserMemory) LastNudge() string {
	if len(m.Stressors) > 0 {
		return m.Stressors[0]
	}
	if n := len(m.Turns); n > 0 && len(m.Turns[n-1].ExtractedStressors) > 0 {
		return m.Turns[n-1].ExtractedStressors[0]
	}
	return ""
}
