// Package journal は朝・夜の振り返り回答のドメインロジックを提供する。
package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/repository"
	"github.com/hitoshi/mindjournal/internal/security"
)

// 一覧取得の件数
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// NewAnswer は回答作成時の入力。3つの回答欄はすべて必須（空文字は可）。
type NewAnswer struct {
	Type      model.AnswerType `json:"type"`
	Question1 *string          `json:"question_1"`
	Question2 *string          `json:"question_2"`
	Question3 *string          `json:"question_3"`
}

// MetricsRecorder は回答作成の計測に使うインターフェース。
type MetricsRecorder interface {
	RecordAnswerCreated(answerType string)
}

// Service は振り返り回答のサービス層。
type Service struct {
	repo      repository.AnswerRepository
	sanitizer security.TextSanitizer
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(repo repository.AnswerRepository, sanitizer security.TextSanitizer, metrics MetricsRecorder) *Service {
	return &Service{repo: repo, sanitizer: sanitizer, metrics: metrics}
}

// CreateAnswer は回答を作成する。
func (s *Service) CreateAnswer(ctx context.Context, userID string, in NewAnswer) (*model.Answer, error) {
	var fields []model.FieldError
	if !in.Type.Valid() {
		fields = append(fields, model.FieldError{Field: "type", Reason: "morning または evening を指定してください"})
	}
	required := []struct {
		name  string
		value *string
	}{
		{"question_1", in.Question1},
		{"question_2", in.Question2},
		{"question_3", in.Question3},
	}
	for _, q := range required {
		if q.value == nil {
			fields = append(fields, model.FieldError{Field: q.name, Reason: "必須項目です"})
		}
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	answer := &model.Answer{
		UserID:    userID,
		Type:      in.Type,
		Question1: security.SanitizePtr(s.sanitizer, in.Question1),
		Question2: security.SanitizePtr(s.sanitizer, in.Question2),
		Question3: security.SanitizePtr(s.sanitizer, in.Question3),
	}
	if err := s.repo.Create(ctx, answer); err != nil {
		return nil, fmt.Errorf("回答の作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordAnswerCreated(string(answer.Type))
	}
	slog.Info("answer created",
		slog.String("user_id", userID),
		slog.String("answer_id", answer.ID),
		slog.String("type", string(answer.Type)),
	)
	return answer, nil
}

// ListAnswers は回答一覧を新しい順に返す。
// typeは空文字または"all"で全種別、limitは0以下でDefaultListLimitとなる。
func (s *Service) ListAnswers(ctx context.Context, userID string, filter model.AnswerFilter) ([]*model.Answer, error) {
	if filter.Type == "all" {
		filter.Type = ""
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, model.NewInvalidFilterError("type", string(filter.Type))
	}
	if filter.Offset < 0 {
		return nil, model.NewInvalidFilterError("offset", fmt.Sprint(filter.Offset))
	}
	filter.Limit = normalizeLimit(filter.Limit)

	answers, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("回答一覧の取得に失敗しました: %w", err)
	}
	return answers, nil
}

// UpdateAnswer はpatchで指定された回答欄のみを更新する。
// 存在しないID、他ユーザーのIDはいずれもNotFoundとなる。
func (s *Service) UpdateAnswer(ctx context.Context, userID, answerID string, patch model.AnswerPatch) (*model.Answer, error) {
	if !model.IsValidID(answerID) {
		return nil, model.NewAnswerNotFoundError(answerID)
	}

	patch.Question1 = sanitizeOptional(s.sanitizer, patch.Question1)
	patch.Question2 = sanitizeOptional(s.sanitizer, patch.Question2)
	patch.Question3 = sanitizeOptional(s.sanitizer, patch.Question3)

	answer, err := s.repo.Update(ctx, userID, answerID, patch)
	if err != nil {
		return nil, fmt.Errorf("回答の更新に失敗しました: %w", err)
	}
	if answer == nil {
		return nil, model.NewAnswerNotFoundError(answerID)
	}
	return answer, nil
}

// DeleteAnswer は回答を削除する。
func (s *Service) DeleteAnswer(ctx context.Context, userID, answerID string) error {
	if !model.IsValidID(answerID) {
		return model.NewAnswerNotFoundError(answerID)
	}
	deleted, err := s.repo.Delete(ctx, userID, answerID)
	if err != nil {
		return fmt.Errorf("回答の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewAnswerNotFoundError(answerID)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func sanitizeOptional(s security.TextSanitizer, o model.Optional[string]) model.Optional[string] {
	if o.HasValue() {
		o.Value = s.SanitizeText(o.Value)
	}
	return o
}
