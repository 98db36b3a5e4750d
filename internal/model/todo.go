package model

import "time"

// Priority はタスクの優先度を表す。
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid は定義済みの優先度かどうかを返す。
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Rank は表示順で使う優先度の順位を返す。high=0, medium=1, low=2。
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// タスクのデフォルト値
const (
	DefaultListName           = "My Tasks"
	DefaultEstimatedPomodoros = 1
)

// Todo はタスクを表す。
// CompletedPomodoros はポモドーロ完了時の連携でのみ加算されるが、
// 部分更新で明示的に上書きすることもできる（最後の書き込みが優先）。
type Todo struct {
	ID                 string
	UserID             string
	Title              string
	Description        *string
	Notes              *string
	IsCompleted        bool
	Priority           Priority
	DueDate            *string // YYYY-MM-DD
	ListName           string
	ReminderDate       *time.Time
	EstimatedPomodoros int
	CompletedPomodoros int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewTodo はタスク作成時の入力。
type NewTodo struct {
	Title              string     `json:"title"`
	Description        *string    `json:"description"`
	Notes              *string    `json:"notes"`
	Priority           Priority   `json:"priority"`
	DueDate            *string    `json:"due_date"`
	ListName           string     `json:"list_name"`
	ReminderDate       *time.Time `json:"reminder_date"`
	EstimatedPomodoros *int       `json:"estimated_pomodoros"`
}

// TodoPatch はタスクの部分更新内容。
type TodoPatch struct {
	Title              Optional[string]    `json:"title"`
	Description        Optional[string]    `json:"description"`
	Notes              Optional[string]    `json:"notes"`
	IsCompleted        Optional[bool]      `json:"is_completed"`
	Priority           Optional[Priority]  `json:"priority"`
	DueDate            Optional[string]    `json:"due_date"`
	ListName           Optional[string]    `json:"list_name"`
	ReminderDate       Optional[time.Time] `json:"reminder_date"`
	EstimatedPomodoros Optional[int]       `json:"estimated_pomodoros"`
	CompletedPomodoros Optional[int]       `json:"completed_pomodoros"`
}

// TodoFilter はタスク一覧の検索条件。
type TodoFilter struct {
	Completed *bool
	Priority  Priority // 空文字は全優先度
	ListName  string   // 空文字は全リスト
	Search    string   // title/description/notes の部分一致
	Limit     int
}
