package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/mindjournal/internal/model"
)

// PostgresPomodoroSessionRepo はPostgreSQLを使用したポモドーロセッションリポジトリ。
type PostgresPomodoroSessionRepo struct {
	db *sql.DB
}

// NewPostgresPomodoroSessionRepo はPostgresPomodoroSessionRepoを生成する。
func NewPostgresPomodoroSessionRepo(db *sql.DB) *PostgresPomodoroSessionRepo {
	return &PostgresPomodoroSessionRepo{db: db}
}

// CreateWithTaskLink はセッションを記録し、必要ならタスクの完了数を同一トランザクションで加算する。
func (r *PostgresPomodoroSessionRepo) CreateWithTaskLink(ctx context.Context, session *model.PomodoroSession, linkTask bool) (bool, error) {
	var completedAt any
	if !session.CompletedAt.IsZero() {
		completedAt = session.CompletedAt
	}

	linked := false
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO pomodoro_sessions (user_id, type, duration_minutes, task_id, completed_at)
			 VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, now()))
			 RETURNING id, completed_at, created_at, updated_at`,
			session.UserID, string(session.Type), session.DurationMinutes, session.TaskID, completedAt,
		).Scan(&session.ID, &session.CompletedAt, &session.CreatedAt, &session.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert pomodoro session: %w", err)
		}

		if !linkTask || session.TaskID == nil {
			return nil
		}
		result, err := tx.ExecContext(ctx, incrementCompletedPomodorosSQL, *session.TaskID, session.UserID)
		if err != nil {
			return fmt.Errorf("failed to increment completed pomodoros: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		linked = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return linked, nil
}

// List はセッション履歴をcompleted_at降順で返す。
func (r *PostgresPomodoroSessionRepo) List(ctx context.Context, userID string, limit int) ([]*model.PomodoroSession, error) {
	query := `SELECT id, user_id, type, duration_minutes, task_id, completed_at, created_at, updated_at
		 FROM pomodoro_sessions
		 WHERE user_id = $1
		 ORDER BY completed_at DESC`
	args := []any{userID}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pomodoro sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*model.PomodoroSession{}
	for rows.Next() {
		s := &model.PomodoroSession{}
		var typ string
		if err := rows.Scan(&s.ID, &s.UserID, &typ, &s.DurationMinutes, &s.TaskID, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pomodoro session: %w", err)
		}
		s.Type = model.SessionType(typ)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pomodoro sessions: %w", err)
	}
	return sessions, nil
}

// Stats はセッション履歴を集計する。
func (r *PostgresPomodoroSessionRepo) Stats(ctx context.Context, userID string, since time.Time) (*model.PomodoroStats, error) {
	stats := &model.PomodoroStats{}
	err := r.db.QueryRowContext(ctx,
		`SELECT
		     count(*) FILTER (WHERE type = 'work' AND completed_at >= $2),
		     count(*),
		     COALESCE(sum(duration_minutes) FILTER (WHERE type = 'work'), 0)
		 FROM pomodoro_sessions
		 WHERE user_id = $1`,
		userID, since,
	).Scan(&stats.CompletedToday, &stats.TotalSessions, &stats.TotalFocusMinutes)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate pomodoro sessions: %w", err)
	}
	return stats, nil
}

// compile-time interface check
var _ PomodoroSessionRepository = (*PostgresPomodoroSessionRepo)(nil)
