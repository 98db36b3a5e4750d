// Package settings はユーザー設定を扱う。
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/repository"
)

// Service はユーザー設定のサービス層。
type Service struct {
	repo repository.SettingsRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.SettingsRepository) *Service {
	return &Service{repo: repo}
}

// GetSettings は設定を返す。初回アクセス時はデフォルト値で作成する。
func (s *Service) GetSettings(ctx context.Context, userID string) (*model.UserSettings, error) {
	us, created, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("設定の取得に失敗しました: %w", err)
	}
	if created {
		slog.Info("user settings created with defaults", slog.String("user_id", userID))
	}
	return us, nil
}

// UpdateSettings はpatchで指定されたフィールドのみを更新する。
// 通知時刻はHH:MM形式、nullで解除する。
func (s *Service) UpdateSettings(ctx context.Context, userID string, patch model.SettingsPatch) (*model.UserSettings, error) {
	var fields []model.FieldError
	if patch.MorningNotificationTime.HasValue() && !validClock(patch.MorningNotificationTime.Value) {
		fields = append(fields, clockFieldError("morning_notification_time"))
	}
	if patch.EveningNotificationTime.HasValue() && !validClock(patch.EveningNotificationTime.Value) {
		fields = append(fields, clockFieldError("evening_notification_time"))
	}
	if patch.Theme.Set && !patch.Theme.Value.Valid() {
		fields = append(fields, model.FieldError{Field: "theme", Reason: "light または dark を指定してください"})
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	us, err := s.repo.Update(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("設定の更新に失敗しました: %w", err)
	}
	return us, nil
}

func validClock(v string) bool {
	if len(v) != len("15:04") {
		return false
	}
	_, err := time.Parse("15:04", v)
	return err == nil
}

func clockFieldError(field string) model.FieldError {
	return model.FieldError{Field: field, Reason: "HH:MM形式で指定してください"}
}
