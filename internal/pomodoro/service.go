// Package pomodoro はポモドーロセッションの記録、タスク連携、タイマーを提供する。
package pomodoro

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/repository"
)

// 一覧取得の件数
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// NewSession はセッション記録時の入力。
type NewSession struct {
	Type            model.SessionType `json:"type"`
	DurationMinutes *int              `json:"duration_minutes"`
	TaskID          *string           `json:"task_id"`
}

// MetricsRecorder はセッション記録の計測に使うインターフェース。
type MetricsRecorder interface {
	RecordPomodoroSession(sessionType string, minutes int)
	RecordTaskLink(linked bool)
}

// Service はポモドーロセッションのサービス層。
type Service struct {
	repo    repository.PomodoroSessionRepository
	metrics MetricsRecorder
	now     func() time.Time
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(repo repository.PomodoroSessionRepository, metrics MetricsRecorder) *Service {
	return &Service{repo: repo, metrics: metrics, now: time.Now}
}

// CreateSession はセッションを記録する。
// 作業セッションにタスクが紐づいている場合、同一トランザクションでタスクの
// 完了ポモドーロ数を1加算する。タスクが既に削除されていた場合は加算を
// スキップし、セッションのみ記録する。
func (s *Service) CreateSession(ctx context.Context, userID string, in NewSession) (*model.PomodoroSession, error) {
	var fields []model.FieldError
	if in.Type == "" {
		in.Type = model.SessionWork
	} else if !in.Type.Valid() {
		fields = append(fields, model.FieldError{Field: "type", Reason: "work, short_break, long_break のいずれかを指定してください"})
	}
	minutes := model.DefaultSessionMinutes
	if in.DurationMinutes != nil {
		minutes = *in.DurationMinutes
		if minutes < 1 {
			fields = append(fields, model.FieldError{Field: "duration_minutes", Reason: "1以上を指定してください"})
		}
	}
	if in.TaskID != nil && !model.IsValidID(*in.TaskID) {
		fields = append(fields, model.FieldError{Field: "task_id", Reason: "タスクIDの形式が不正です"})
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	session := &model.PomodoroSession{
		UserID:          userID,
		Type:            in.Type,
		DurationMinutes: minutes,
		TaskID:          in.TaskID,
	}
	linkTask := session.Type == model.SessionWork && session.TaskID != nil

	linked, err := s.repo.CreateWithTaskLink(ctx, session, linkTask)
	if err != nil {
		return nil, fmt.Errorf("セッションの記録に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordPomodoroSession(string(session.Type), session.DurationMinutes)
		if linkTask {
			s.metrics.RecordTaskLink(linked)
		}
	}

	attrs := []any{
		slog.String("user_id", userID),
		slog.String("session_id", session.ID),
		slog.String("type", string(session.Type)),
		slog.Int("duration_minutes", session.DurationMinutes),
	}
	switch {
	case linkTask && !linked:
		slog.Info("linked task no longer exists, increment skipped",
			append(attrs, slog.String("task_id", *session.TaskID))...)
	case linked:
		slog.Info("pomodoro session recorded",
			append(attrs, slog.String("task_id", *session.TaskID))...)
	default:
		slog.Info("pomodoro session recorded", attrs...)
	}
	return session, nil
}

// ListSessions はセッション履歴を新しい順に返す。
func (s *Service) ListSessions(ctx context.Context, userID string, limit int) ([]*model.PomodoroSession, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	sessions, err := s.repo.List(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("セッション履歴の取得に失敗しました: %w", err)
	}
	return sessions, nil
}

// Stats はセッション履歴を集計する。「今日」はUTCの日付で判定する。
func (s *Service) Stats(ctx context.Context, userID string) (*model.PomodoroStats, error) {
	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stats, err := s.repo.Stats(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("セッション集計に失敗しました: %w", err)
	}
	return stats, nil
}

// ServiceRecorder はServiceをタイマーのSessionRecorderとして使うためのアダプタ。
type ServiceRecorder struct {
	Service *Service
	UserID  string
}

// RecordSession は完了したセッションを記録する。
func (r ServiceRecorder) RecordSession(ctx context.Context, cs CompletedSession) error {
	minutes := cs.DurationMinutes
	_, err := r.Service.CreateSession(ctx, r.UserID, NewSession{
		Type:            cs.Type,
		DurationMinutes: &minutes,
		TaskID:          cs.TaskID,
	})
	return err
}

var _ SessionRecorder = ServiceRecorder{}
