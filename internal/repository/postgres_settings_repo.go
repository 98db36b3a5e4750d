package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mindjournal/internal/model"
)

const settingsColumns = `id, user_id, morning_notification_time, evening_notification_time, theme, created_at, updated_at`

// PostgresSettingsRepo はPostgreSQLを使用したユーザー設定リポジトリ。
type PostgresSettingsRepo struct {
	db *sql.DB
}

// NewPostgresSettingsRepo はPostgresSettingsRepoを生成する。
func NewPostgresSettingsRepo(db *sql.DB) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{db: db}
}

// GetOrCreate は設定を返す。存在しない場合はデフォルト値で作成する。
// user_idのユニーク制約によって同時アクセスでも1行しか作成されない。
func (r *PostgresSettingsRepo) GetOrCreate(ctx context.Context, userID string) (*model.UserSettings, bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user settings: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	s, err := scanSettings(r.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM user_settings WHERE user_id = $1`, userID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to find user settings: %w", err)
	}
	return s, n > 0, nil
}

// Update はpatchで指定されたフィールドのみを更新する。
func (r *PostgresSettingsRepo) Update(ctx context.Context, userID string, patch model.SettingsPatch) (*model.UserSettings, error) {
	if _, _, err := r.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	b := newUpdateBuilder("user_settings", userID)
	setOptional(b, "morning_notification_time", patch.MorningNotificationTime)
	setOptional(b, "evening_notification_time", patch.EveningNotificationTime)
	setOptional(b, "theme", patch.Theme)

	s, err := scanSettings(r.db.QueryRowContext(ctx, b.query("user_id = $1", settingsColumns), b.args...))
	if err != nil {
		return nil, fmt.Errorf("failed to update user settings: %w", err)
	}
	return s, nil
}

func scanSettings(s rowScanner) (*model.UserSettings, error) {
	us := &model.UserSettings{}
	var theme string
	if err := s.Scan(&us.ID, &us.UserID, &us.MorningNotificationTime, &us.EveningNotificationTime, &theme, &us.CreatedAt, &us.UpdatedAt); err != nil {
		return nil, err
	}
	us.Theme = model.Theme(theme)
	return us, nil
}

// compile-time interface check
var _ SettingsRepository = (*PostgresSettingsRepo)(nil)
