package handler

import (
	"time"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/timeline"
	"github.com/hitoshi/mindjournal/internal/todo"
)

// answerResponse は回答のAPIレスポンス。
type answerResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Question1 *string   `json:"question_1"`
	Question2 *string   `json:"question_2"`
	Question3 *string   `json:"question_3"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// practiceResponse は練習記録のAPIレスポンス。
type practiceResponse struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	DurationSeconds int       `json:"duration_seconds"`
	CompletedAt     time.Time `json:"completed_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// todoResponse はタスクのAPIレスポンス。
type todoResponse struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        *string    `json:"description"`
	Notes              *string    `json:"notes"`
	IsCompleted        bool       `json:"is_completed"`
	Priority           string     `json:"priority"`
	DueDate            *string    `json:"due_date"`
	ListName           string     `json:"list_name"`
	ReminderDate       *time.Time `json:"reminder_date"`
	EstimatedPomodoros int        `json:"estimated_pomodoros"`
	CompletedPomodoros int        `json:"completed_pomodoros"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// todoCountsResponse はビューごとのタスク件数。
type todoCountsResponse struct {
	All       int            `json:"all"`
	Today     int            `json:"today"`
	Important int            `json:"important"`
	Planned   int            `json:"planned"`
	Completed int            `json:"completed"`
	Lists     map[string]int `json:"lists"`
}

// sessionResponse はポモドーロセッションのAPIレスポンス。
type sessionResponse struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	DurationMinutes int       `json:"duration_minutes"`
	TaskID          *string   `json:"task_id"`
	CompletedAt     time.Time `json:"completed_at"`
}

type statsResponse struct {
	CompletedToday    int `json:"completed_today"`
	TotalSessions     int `json:"total_sessions"`
	TotalFocusMinutes int `json:"total_focus_minutes"`
}

// settingsResponse はユーザー設定のAPIレスポンス。
type settingsResponse struct {
	ID                      string    `json:"id"`
	MorningNotificationTime *string   `json:"morning_notification_time"`
	EveningNotificationTime *string   `json:"evening_notification_time"`
	Theme                   string    `json:"theme"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// timelineEntryResponse は履歴1件のAPIレスポンス。kindに応じてanswerかpracticeが入る。
type timelineEntryResponse struct {
	Kind     string            `json:"kind"`
	At       time.Time         `json:"at"`
	Answer   *answerResponse   `json:"answer,omitempty"`
	Practice *practiceResponse `json:"practice,omitempty"`
}

type timelineResponse struct {
	Entries []timelineEntryResponse `json:"entries"`
}

// exportResponse はエクスポートファイルの内容。
type exportResponse struct {
	Answers    []answerResponse   `json:"answers"`
	Practices  []practiceResponse `json:"practices"`
	ExportedAt time.Time          `json:"exported_at"`
}

func toAnswerResponse(a *model.Answer) answerResponse {
	return answerResponse{
		ID:        a.ID,
		Type:      string(a.Type),
		Question1: a.Question1,
		Question2: a.Question2,
		Question3: a.Question3,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toAnswerResponses(answers []*model.Answer) []answerResponse {
	out := make([]answerResponse, len(answers))
	for i, a := range answers {
		out[i] = toAnswerResponse(a)
	}
	return out
}

func toPracticeResponse(p *model.Practice) practiceResponse {
	return practiceResponse{
		ID:              p.ID,
		Type:            string(p.Type),
		DurationSeconds: p.DurationSeconds,
		CompletedAt:     p.CompletedAt,
		CreatedAt:       p.CreatedAt,
	}
}

func toPracticeResponses(practices []*model.Practice) []practiceResponse {
	out := make([]practiceResponse, len(practices))
	for i, p := range practices {
		out[i] = toPracticeResponse(p)
	}
	return out
}

func toTodoResponse(t *model.Todo) todoResponse {
	return todoResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Notes:              t.Notes,
		IsCompleted:        t.IsCompleted,
		Priority:           string(t.Priority),
		DueDate:            t.DueDate,
		ListName:           t.ListName,
		ReminderDate:       t.ReminderDate,
		EstimatedPomodoros: t.EstimatedPomodoros,
		CompletedPomodoros: t.CompletedPomodoros,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func toTodoCountsResponse(c todo.ViewCounts) todoCountsResponse {
	lists := c.Lists
	if lists == nil {
		lists = map[string]int{}
	}
	return todoCountsResponse{
		All:       c.All,
		Today:     c.Today,
		Important: c.Important,
		Planned:   c.Planned,
		Completed: c.Completed,
		Lists:     lists,
	}
}

func toSessionResponse(s *model.PomodoroSession) sessionResponse {
	return sessionResponse{
		ID:              s.ID,
		Type:            string(s.Type),
		DurationMinutes: s.DurationMinutes,
		TaskID:          s.TaskID,
		CompletedAt:     s.CompletedAt,
	}
}

func toSettingsResponse(s *model.UserSettings) settingsResponse {
	return settingsResponse{
		ID:                      s.ID,
		MorningNotificationTime: s.MorningNotificationTime,
		EveningNotificationTime: s.EveningNotificationTime,
		Theme:                   string(s.Theme),
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
	}
}

func toTimelineResponse(feed *timeline.Feed) timelineResponse {
	entries := make([]timelineEntryResponse, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		item := timelineEntryResponse{Kind: string(e.Kind), At: e.At}
		switch {
		case e.Answer != nil:
			a := toAnswerResponse(e.Answer)
			item.Answer = &a
		case e.Practice != nil:
			p := toPracticeResponse(e.Practice)
			item.Practice = &p
		}
		entries = append(entries, item)
	}
	return timelineResponse{Entries: entries}
}

func toExportResponse(s *timeline.Snapshot) exportResponse {
	return exportResponse{
		Answers:    toAnswerResponses(s.Answers),
		Practices:  toPracticeResponses(s.Practices),
		ExportedAt: s.ExportedAt,
	}
}
