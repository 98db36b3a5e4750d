// Package practice は呼吸法の練習記録を扱う。
package practice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/repository"
)

// 一覧取得の件数
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// NewPractice は練習記録作成時の入力。
type NewPractice struct {
	Type            model.PracticeType `json:"type"`
	DurationSeconds *int               `json:"duration_seconds"`
}

// MetricsRecorder は練習時間の計測に使うインターフェース。
type MetricsRecorder interface {
	RecordPracticeCompleted(practiceType string, seconds int)
}

// Service は練習記録のサービス層。
type Service struct {
	repo    repository.PracticeRepository
	metrics MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(repo repository.PracticeRepository, metrics MetricsRecorder) *Service {
	return &Service{repo: repo, metrics: metrics}
}

// CreatePractice は練習記録を作成する。完了日時は作成時刻となる。
func (s *Service) CreatePractice(ctx context.Context, userID string, in NewPractice) (*model.Practice, error) {
	var fields []model.FieldError
	if !in.Type.Valid() {
		fields = append(fields, model.FieldError{Field: "type", Reason: "breathing_478, square_breathing, calm_breathing のいずれかを指定してください"})
	}
	switch {
	case in.DurationSeconds == nil:
		fields = append(fields, model.FieldError{Field: "duration_seconds", Reason: "必須項目です"})
	case *in.DurationSeconds < 0:
		fields = append(fields, model.FieldError{Field: "duration_seconds", Reason: "0以上を指定してください"})
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	p := &model.Practice{
		UserID:          userID,
		Type:            in.Type,
		DurationSeconds: *in.DurationSeconds,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("練習記録の作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordPracticeCompleted(string(p.Type), p.DurationSeconds)
	}
	slog.Info("practice recorded",
		slog.String("user_id", userID),
		slog.String("type", string(p.Type)),
		slog.Int("duration_seconds", p.DurationSeconds),
	)
	return p, nil
}

// ListPractices は練習記録を新しい順に返す。
func (s *Service) ListPractices(ctx context.Context, userID string, limit int) ([]*model.Practice, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	practices, err := s.repo.List(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("練習記録一覧の取得に失敗しました: %w", err)
	}
	return practices, nil
}

// ListAllPractices はエクスポート用に全練習記録を返す。
func (s *Service) ListAllPractices(ctx context.Context, userID string) ([]*model.Practice, error) {
	practices, err := s.repo.List(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("練習記録一覧の取得に失敗しました: %w", err)
	}
	return practices, nil
}

// DeletePractice は練習記録を削除する。
func (s *Service) DeletePractice(ctx context.Context, userID, practiceID string) error {
	if !model.IsValidID(practiceID) {
		return model.NewPracticeNotFoundError(practiceID)
	}
	deleted, err := s.repo.Delete(ctx, userID, practiceID)
	if err != nil {
		return fmt.Errorf("練習記録の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewPracticeNotFoundError(practiceID)
	}
	return nil
}
