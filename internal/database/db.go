package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// 接続プールの上限。APIとワーカーが同じDBを共有する前提の値。
const (
	maxOpenConns    = 20
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// Open はPostgreSQLへの接続プールを生成する。
// sql.Openは接続を試行しないので、疎通確認はWaitReadyで行う。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	return db, nil
}

// WaitReady はPingが成功するまでinterval間隔で最大attempts回試行する。
// docker compose起動直後はDBの受け付け開始が遅れるため、serveとworkerの起動時に使う。
func WaitReady(ctx context.Context, db *sql.DB, attempts int, interval time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		slog.Warn("database not ready, retrying",
			slog.Int("attempt", i),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("database not ready after %d attempts: %w", attempts, err)
}
