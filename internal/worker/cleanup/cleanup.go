// Package cleanup は期限切れログインセッションの定期削除ジョブを提供する。
// 認証ミドルウェアは期限切れセッションを参照しないため、削除は表示に影響しない。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// DefaultSchedule はジョブの既定実行間隔。
const DefaultSchedule = "@every 1h"

// runTimeout は1回のジョブ実行の上限時間。
const runTimeout = 5 * time.Minute

// CleanupJob は期限切れセッションの削除ジョブ。冪等。
type CleanupJob struct {
	db     Executor
	logger *slog.Logger
	now    func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Run はexpires_atが現在時刻より前のセッションを削除する。
// 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := j.now()

	result, err := j.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, cutoff)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Scheduler はcron式に従ってCleanupJobを定期実行する。
type Scheduler struct {
	job      *CleanupJob
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger
}

// NewScheduler はScheduler を生成する。scheduleが空の場合はDefaultScheduleを使う。
// scheduleは5フィールドのcron式または"@every 1h"形式の記述子。
func NewScheduler(job *CleanupJob, schedule string, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		job:      job,
		cron:     cron.New(cron.WithLogger(cron.DiscardLogger)),
		schedule: schedule,
		logger:   logger,
	}
}

// Start はジョブを登録してバックグラウンドで実行を開始する。
// 不正なcron式の場合はエラーを返し、何も開始しない。
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runOnce)
	if err != nil {
		return fmt.Errorf("failed to add cron job %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("session cleanup scheduler started", slog.String("schedule", s.schedule))
	return nil
}

// Stop は新規実行を止め、実行中のジョブの完了を待つ。
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("session cleanup scheduler stopped")
}

// Run はctxが終了するまでスケジューラを動かす。起動直後に1回実行する。
func (s *Scheduler) Run(ctx context.Context) error {
	s.runOnce()
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	// エラーはRun内でログ出力済み
	_ = s.job.Run(ctx)
}
