package model

import "time"

// AnswerType は振り返りの種別を表す。
type AnswerType string

const (
	// AnswerTypeMorning は朝の振り返り。
	AnswerTypeMorning AnswerType = "morning"
	// AnswerTypeEvening は夜の振り返り。
	AnswerTypeEvening AnswerType = "evening"
)

// Valid は定義済みの種別かどうかを返す。
func (t AnswerType) Valid() bool {
	return t == AnswerTypeMorning || t == AnswerTypeEvening
}

// Answer は朝・夜の振り返りに対する回答を表す。
// 3つの回答欄は作成時は必須、以降は個別にnullへ変更できる。
type Answer struct {
	ID        string
	UserID    string
	Type      AnswerType
	Question1 *string
	Question2 *string
	Question3 *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AnswerPatch は回答の部分更新内容。
type AnswerPatch struct {
	Question1 Optional[string] `json:"question_1"`
	Question2 Optional[string] `json:"question_2"`
	Question3 Optional[string] `json:"question_3"`
}

// AnswerFilter は回答一覧の検索条件。
type AnswerFilter struct {
	Type   AnswerType // 空文字は全種別
	Search string     // question_1〜3 の部分一致（大文字小文字を区別しない）
	Limit  int
	Offset int
}

// PracticeType は呼吸法の種別を表す。
type PracticeType string

const (
	PracticeBreathing478    PracticeType = "breathing_478"
	PracticeSquareBreathing PracticeType = "square_breathing"
	PracticeCalmBreathing   PracticeType = "calm_breathing"
)

// Valid は定義済みの種別かどうかを返す。
func (t PracticeType) Valid() bool {
	switch t {
	case PracticeBreathing478, PracticeSquareBreathing, PracticeCalmBreathing:
		return true
	}
	return false
}

// Practice は呼吸法の練習記録を表す。
type Practice struct {
	ID              string
	UserID          string
	Type            PracticeType
	DurationSeconds int
	CompletedAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
