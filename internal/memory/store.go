// Package memory はユーザーごとの会話履歴とストレス要因を管理する。
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/burnoutbuddy/internal/model"
	"github.com/hitoshi/burnoutbuddy/internal/repository"
)

// DocumentName は全ユーザーの記憶を保存するドキュメント名。
const DocumentName = "memory.json"

// document は記憶ドキュメントの永続化形式。
type document struct {
	Version int                         `json:"version"`
	Users   map[string]model.UserMemory `json:"users"`
}

func (d document) SchemaVersion() int { return d.Version }

func emptyDocument() document {
	return document{Version: repository.DocumentVersion, Users: map[string]model.UserMemory{}}
}

// Store はDocumentStore上のユーザー記憶ストア。
// 更新は読み込み→変更→保存の単位で行い、プロセス間では後勝ちとなる。
type Store struct {
	docs repository.DocumentStore
	now  func() time.Time

	mu sync.Mutex
}

// NewStore はStoreを生成する。
func NewStore(docs repository.DocumentStore) *Store {
	return &Store{docs: docs, now: time.Now}
}

func (s *Store) load(ctx context.Context) document {
	doc := repository.LoadDocument(ctx, s.docs, DocumentName, emptyDocument)
	if doc.Users == nil {
		doc.Users = map[string]model.UserMemory{}
	}
	return doc
}

func (s *Store) save(ctx context.Context, doc document) error {
	return repository.SaveDocument(ctx, s.docs, DocumentName, doc)
}

// Get はユーザーの記憶を返す。存在しない場合は空の記憶を作成して保存する。
func (s *Store) Get(ctx context.Context, uid string) (model.UserMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load(ctx)
	if m, ok := doc.Users[uid]; ok {
		return normalize(m), nil
	}

	created := model.NewUserMemory(uid, s.now())
	doc.Users[uid] = created
	if err := s.save(ctx, doc); err != nil {
		return model.UserMemory{}, fmt.Errorf("failed to create memory: %w", err)
	}
	return created, nil
}

// Find はユーザーの記憶を返す。存在しない場合は作成せずfalseを返す。
func (s *Store) Find(ctx context.Context, uid string) (model.UserMemory, bool) {
	doc := s.load(ctx)
	m, ok := doc.Users[uid]
	if !ok {
		return model.UserMemory{}, false
	}
	return normalize(m), true
}

// Upsert はユーザーの記憶（なければ新規作成した空の記憶）をpatchで更新して保存し、
// 更新後の記憶を返す。
func (s *Store) Upsert(ctx context.Context, uid string, patch func(model.UserMemory) model.UserMemory) (model.UserMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load(ctx)
	base, ok := doc.Users[uid]
	if !ok {
		base = model.NewUserMemory(uid, s.now())
	}

	next := normalize(patch(clone(normalize(base))))
	next.UID = uid
	doc.Users[uid] = next

	if err := s.save(ctx, doc); err != nil {
		return model.UserMemory{}, fmt.Errorf("failed to save memory: %w", err)
	}
	return next, nil
}

// Delete はユーザーの記憶を削除する。存在しなかった場合はfalseを返す。
func (s *Store) Delete(ctx context.Context, uid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load(ctx)
	if _, ok := doc.Users[uid]; !ok {
		return false, nil
	}
	delete(doc.Users, uid)

	if err := s.save(ctx, doc); err != nil {
		return false, fmt.Errorf("failed to delete memory: %w", err)
	}
	return true, nil
}

// PruneInactive は最終利用日時がcutoffより前のユーザーを削除し、削除件数を返す。
func (s *Store) PruneInactive(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load(ctx)
	removed := 0
	for uid, m := range doc.Users {
		if m.LastSeenAt.Before(cutoff) {
			delete(doc.Users, uid)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	if err := s.save(ctx, doc); err != nil {
		return 0, fmt.Errorf("failed to prune memory: %w", err)
	}
	return removed, nil
}

// AddUniqueStressors は既存のストレス要因に新しい要因を追加する。
// 前後の空白を除去し、空文字とMaxStressorLength文字を超えるものは捨てる。
// 重複は最初の出現を残し、先頭からMaxStressors件までを返す。
func AddUniqueStressors(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))

	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range existing {
		add(s)
	}
	for _, s := range incoming {
		t := strings.TrimSpace(s)
		if t == "" || utf8.RuneCountInString(t) > model.MaxStressorLength {
			continue
		}
		add(t)
	}

	if len(out) > model.MaxStressors {
		out = out[:model.MaxStressors]
	}
	return out
}

// AppendTurn は会話ターンを追加し、直近MaxMemoryTurns件のみを残す。
func AppendTurn(turns []model.MemoryTurn, turn model.MemoryTurn) []model.MemoryTurn {
	next := make([]model.MemoryTurn, 0, len(turns)+1)
	next = append(next, turns...)
	next = append(next, turn)
	if over := len(next) - model.MaxMemoryTurns; over > 0 {
		next = next[over:]
	}
	return next
}

// normalize はnilのスライスを空スライスにし、上限を超えた要素を切り詰める。
func normalize(m model.UserMemory) model.UserMemory {
	if m.Stressors == nil {
		m.Stressors = []string{}
	}
	if len(m.Stressors) > model.MaxStressors {
		m.Stressors = m.Stressors[:model.MaxStressors]
	}
	if m.Turns == nil {
		m.Turns = []model.MemoryTurn{}
	}
	if over := len(m.Turns) - model.MaxMemoryTurns; over > 0 {
		m.Turns = m.Turns[over:]
	}
	return m
}

// clone はpatchが元ドキュメントのスライスを書き換えないようにコピーを作る。
func clone(m model.UserMemory) model.UserMemory {
	m.Stressors = append([]string{}, m.Stressors...)
	m.Turns = append([]model.MemoryTurn{}, m.Turns...)
	return m
}
