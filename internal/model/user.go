// Package model はジャーナル・タスク・ポモドーロのドメインモデルとAPIエラーを定義する。
package model

import "time"

// ProviderGoogle はGoogleログインで作られるidentityのprovider名。
const ProviderGoogle = "google"

// User はアカウント。削除すると回答・練習記録・タスク・セッション・設定も消える。
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity はIdP側のユーザーとの対応。(Provider, ProviderUserID)で一意。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はsession_id Cookieで参照されるログインセッション。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CookieMaxAge はnow時点から失効までの秒数を返す。失効済みなら0。
func (s *Session) CookieMaxAge(now time.Time) int {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return int(d / time.Second)
	}
	return 0
}
