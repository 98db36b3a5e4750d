// Package database はPostgreSQL接続と埋め込みマイグレーションを扱う。
package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationState は適用済みスキーマのバージョン。
type MigrationState struct {
	Version uint
	Dirty   bool
}

// NewMigrator は埋め込みSQLをソースとするmigrateインスタンスを返す。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// RunMigrations は未適用のマイグレーションをすべて適用し、適用後の状態を返す。
// 最新の場合はErrNoChangeを成功として扱う。
func RunMigrations(databaseURL string) (MigrationState, error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return MigrationState{}, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationState{}, fmt.Errorf("failed to run migrations: %w", err)
	}
	return currentState(m)
}

func currentState(m *migrate.Migrate) (MigrationState, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationState{}, nil
	}
	if err != nil {
		return MigrationState{}, fmt.Errorf("failed to read migration version: %w", err)
	}
	return MigrationState{Version: v, Dirty: dirty}, nil
}
