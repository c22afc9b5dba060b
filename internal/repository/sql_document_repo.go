package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect はSQLバックエンドの方言を表す。
type Dialect string

const (
	// DialectPostgres はPostgreSQL（lib/pq）を表す。
	DialectPostgres Dialect = "postgres"
	// DialectSQLite はSQLite（modernc.org/sqlite）を表す。
	DialectSQLite Dialect = "sqlite"
)

// SQLDocumentRepo はdocumentsテーブルを使用したドキュメントリポジトリ。
// 1文のUPSERTで置き換えるため書き込みはアトミック。
// revisionは書き込みごとに1増える。
type SQLDocumentRepo struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLDocumentRepo はSQLDocumentRepoを生成する。
func NewSQLDocumentRepo(db *sql.DB, dialect Dialect) *SQLDocumentRepo {
	return &SQLDocumentRepo{
		db:      db,
		dialect: dialect,
		now:     time.Now,
	}
}

// Get は指定名のドキュメント本文を返す。
func (r *SQLDocumentRepo) Get(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT body FROM documents WHERE name = ?`),
		name,
	).Scan(&body)

	if err == sql.ErrNoRows {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return []byte(body), nil
}

// Put はドキュメントを挿入または置き換える。
func (r *SQLDocumentRepo) Put(ctx context.Context, name string, data []byte) error {
	// lib/pq は []byte をbytea表現で送るため、TEXT列には文字列として渡す
	_, err := r.db.ExecContext(ctx,
		r.rebind(`INSERT INTO documents (name, body, revision, updated_at)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT (name) DO UPDATE
		 SET body = excluded.body,
		     revision = documents.revision + 1,
		     updated_at = excluded.updated_at`),
		name, string(data), r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

// Revision は指定名のドキュメントの現在のリビジョンを返す。
// 存在しない場合はErrDocumentNotFoundを返す。
func (r *SQLDocumentRepo) Revision(ctx context.Context, name string) (int64, error) {
	var rev int64
	err := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT revision FROM documents WHERE name = ?`),
		name,
	).Scan(&rev)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDocumentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get document revision: %w", err)
	}
	return rev, nil
}

// PingContext はデータベースへの疎通を確認する。
func (r *SQLDocumentRepo) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rebind は ? プレースホルダを方言に合わせて書き換える。
func (r *SQLDocumentRepo) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// compile-time interface check
var (
	_ DocumentStore = (*SQLDocumentRepo)(nil)
	_ Pinger        = (*SQLDocumentRepo)(nil)
)
