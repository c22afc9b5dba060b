// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// MigrationURL はバックエンドとDSNからgolang-migrate用のURLを組み立てる。
// postgresはDSNをそのまま使い、sqliteは sqlite:// スキームを付与する。
func MigrationURL(backend Backend, dsn string) (string, error) {
	switch backend {
	case BackendPostgres:
		return dsn, nil
	case BackendSQLite:
		return "sqlite://" + dsn, nil
	default:
		return "", fmt.Errorf("unsupported database backend: %q", backend)
	}
}

// NewMigrator はマイグレーション実行用のmigrateインスタンスを生成する。
// マイグレーションSQLはバックエンドごとのディレクトリから読み込む。
func NewMigrator(backend Backend, dsn string) (*migrate.Migrate, error) {
	databaseURL, err := MigrationURL(backend, dsn)
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrationsFS, "migrations/"+string(backend))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// RunMigrations はすべてのマイグレーションを適用する。
// すでに最新の場合はエラーなしで返る。
func RunMigrations(backend Backend, dsn string) error {
	m, err := NewMigrator(backend, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
