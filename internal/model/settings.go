package model

import "time"

// Theme は表示テーマを表す。
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid は定義済みのテーマかどうかを返す。
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// UserSettings はユーザーごとの設定を表す。初回取得時にデフォルト値で作成される。
type UserSettings struct {
	ID                      string
	UserID                  string
	MorningNotificationTime *string // HH:MM
	EveningNotificationTime *string // HH:MM
	Theme                   Theme
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// SettingsPatch は設定の部分更新内容。
type SettingsPatch struct {
	MorningNotificationTime Optional[string] `json:"morning_notification_time"`
	EveningNotificationTime Optional[string] `json:"evening_notification_time"`
	Theme                   Optional[Theme]  `json:"theme"`
}
