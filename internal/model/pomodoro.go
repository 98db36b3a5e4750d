package model

import "time"

// SessionType はポモドーロのセッション種別を表す。
type SessionType string

const (
	SessionWork       SessionType = "work"
	SessionShortBreak SessionType = "short_break"
	SessionLongBreak  SessionType = "long_break"
)

// Valid は定義済みの種別かどうかを返す。
func (t SessionType) Valid() bool {
	switch t {
	case SessionWork, SessionShortBreak, SessionLongBreak:
		return true
	}
	return false
}

// DefaultSessionMinutes はセッション記録の既定の長さ（分）。
const DefaultSessionMinutes = 25

// PomodoroSession は完了したポモドーロセッションの記録を表す。
// TaskID はタスク削除後も残る（外部キー制約なし）。
type PomodoroSession struct {
	ID              string
	UserID          string
	Type            SessionType
	DurationMinutes int
	TaskID          *string
	CompletedAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PomodoroStats はセッション履歴の集計値。
type PomodoroStats struct {
	CompletedToday    int
	TotalSessions     int
	TotalFocusMinutes int
}
