// Package todo はタスク管理のドメインロジックを提供する。
package todo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/repository"
	"github.com/hitoshi/mindjournal/internal/security"
)

// 一覧取得の件数
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

const dateLayout = "2006-01-02"

// ListParams はタスク一覧の取得条件。
type ListParams struct {
	Completed *bool
	Priority  model.Priority
	ListName  string
	Search    string
	View      ViewFilter // 空文字の場合は表示フィルタを適用しない
	Limit     int
}

// Service はタスクのサービス層。
type Service struct {
	repo      repository.TodoRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.TodoRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer, now: time.Now}
}

// CreateTodo はタスクを作成する。
// 優先度はmedium、リスト名は"My Tasks"、見積もりポモドーロ数は1が既定値となる。
func (s *Service) CreateTodo(ctx context.Context, userID string, in model.NewTodo) (*model.Todo, error) {
	var fields []model.FieldError
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields = append(fields, model.FieldError{Field: "title", Reason: "必須項目です"})
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	} else if !in.Priority.Valid() {
		fields = append(fields, priorityFieldError())
	}
	if in.DueDate != nil && !validDate(*in.DueDate) {
		fields = append(fields, dueDateFieldError())
	}
	estimated := model.DefaultEstimatedPomodoros
	if in.EstimatedPomodoros != nil {
		estimated = *in.EstimatedPomodoros
		if estimated < 1 {
			fields = append(fields, model.FieldError{Field: "estimated_pomodoros", Reason: "1以上を指定してください"})
		}
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	listName := strings.TrimSpace(in.ListName)
	if listName == "" {
		listName = model.DefaultListName
	}

	todo := &model.Todo{
		UserID:             userID,
		Title:              s.sanitizer.SanitizeText(title),
		Description:        security.SanitizePtr(s.sanitizer, in.Description),
		Notes:              security.SanitizePtr(s.sanitizer, in.Notes),
		Priority:           in.Priority,
		DueDate:            in.DueDate,
		ListName:           s.sanitizer.SanitizeText(listName),
		ReminderDate:       in.ReminderDate,
		EstimatedPomodoros: estimated,
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return todo, nil
}

// ListTodos はタスク一覧を表示順で返す。
func (s *Service) ListTodos(ctx context.Context, userID string, p ListParams) ([]*model.Todo, error) {
	if p.Priority != "" && !p.Priority.Valid() {
		return nil, model.NewInvalidFilterError("priority", string(p.Priority))
	}
	if p.View != "" && !p.View.Valid() {
		return nil, model.NewInvalidFilterError("view", string(p.View))
	}

	limit := normalizeLimit(p.Limit)
	if p.View == "" {
		todos, err := s.repo.List(ctx, userID, model.TodoFilter{
			Completed: p.Completed,
			Priority:  p.Priority,
			ListName:  p.ListName,
			Search:    strings.TrimSpace(p.Search),
			Limit:     limit,
		})
		if err != nil {
			return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
		}
		return todos, nil
	}

	// 表示フィルタは日付に依存するため、リストと検索語も含めてメモリ上で絞り込む
	todos, err := s.repo.List(ctx, userID, model.TodoFilter{
		Completed: p.Completed,
		Priority:  p.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	state := ViewState{}.SelectList(p.ListName).SelectFilter(p.View).WithSearch(p.Search)
	todos = ApplyView(todos, state, s.now())
	if len(todos) > limit {
		todos = todos[:limit]
	}
	return todos, nil
}

// CountTodos はフィルタごと・リストごとの件数を返す。
func (s *Service) CountTodos(ctx context.Context, userID string) (ViewCounts, error) {
	todos, err := s.repo.List(ctx, userID, model.TodoFilter{})
	if err != nil {
		return ViewCounts{}, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return CountViews(todos, s.now()), nil
}

// UpdateTodo はpatchで指定されたフィールドのみを更新する。
// completed_pomodorosの明示的な指定は連携による加算より後に書かれた値が優先される。
func (s *Service) UpdateTodo(ctx context.Context, userID, todoID string, patch model.TodoPatch) (*model.Todo, error) {
	if !model.IsValidID(todoID) {
		return nil, model.NewTodoNotFoundError(todoID)
	}
	if err := validatePatch(&patch); err != nil {
		return nil, err
	}

	patch.Title = sanitizeOptional(s.sanitizer, patch.Title)
	patch.Description = sanitizeOptional(s.sanitizer, patch.Description)
	patch.Notes = sanitizeOptional(s.sanitizer, patch.Notes)
	patch.ListName = sanitizeOptional(s.sanitizer, patch.ListName)

	todo, err := s.repo.Update(ctx, userID, todoID, patch)
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	if todo == nil {
		return nil, model.NewTodoNotFoundError(todoID)
	}
	if patch.CompletedPomodoros.Set {
		slog.Info("completed pomodoros overridden",
			slog.String("user_id", userID),
			slog.String("todo_id", todoID),
			slog.Int("completed_pomodoros", todo.CompletedPomodoros),
		)
	}
	return todo, nil
}

// DeleteTodo はタスクを削除する。紐づくポモドーロ記録は残る。
func (s *Service) DeleteTodo(ctx context.Context, userID, todoID string) error {
	if !model.IsValidID(todoID) {
		return model.NewTodoNotFoundError(todoID)
	}
	deleted, err := s.repo.Delete(ctx, userID, todoID)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewTodoNotFoundError(todoID)
	}
	return nil
}

// validatePatch は指定されたフィールドを検証する。
// NOT NULL列へのnull指定は検証エラーとする。
func validatePatch(p *model.TodoPatch) error {
	var fields []model.FieldError
	notNull := func(name string, set, hasValue bool) {
		if set && !hasValue {
			fields = append(fields, model.FieldError{Field: name, Reason: "nullは指定できません"})
		}
	}
	notNull("title", p.Title.Set, p.Title.HasValue())
	notNull("is_completed", p.IsCompleted.Set, p.IsCompleted.HasValue())
	notNull("priority", p.Priority.Set, p.Priority.HasValue())
	notNull("list_name", p.ListName.Set, p.ListName.HasValue())
	notNull("estimated_pomodoros", p.EstimatedPomodoros.Set, p.EstimatedPomodoros.HasValue())
	notNull("completed_pomodoros", p.CompletedPomodoros.Set, p.CompletedPomodoros.HasValue())

	if p.Title.HasValue() {
		p.Title.Value = strings.TrimSpace(p.Title.Value)
		if p.Title.Value == "" {
			fields = append(fields, model.FieldError{Field: "title", Reason: "空にはできません"})
		}
	}
	if p.ListName.HasValue() {
		p.ListName.Value = strings.TrimSpace(p.ListName.Value)
		if p.ListName.Value == "" {
			fields = append(fields, model.FieldError{Field: "list_name", Reason: "空にはできません"})
		}
	}
	if p.Priority.HasValue() && !p.Priority.Value.Valid() {
		fields = append(fields, priorityFieldError())
	}
	if p.DueDate.HasValue() && !validDate(p.DueDate.Value) {
		fields = append(fields, dueDateFieldError())
	}
	if p.EstimatedPomodoros.HasValue() && p.EstimatedPomodoros.Value < 1 {
		fields = append(fields, model.FieldError{Field: "estimated_pomodoros", Reason: "1以上を指定してください"})
	}
	if p.CompletedPomodoros.HasValue() && p.CompletedPomodoros.Value < 0 {
		fields = append(fields, model.FieldError{Field: "completed_pomodoros", Reason: "0以上を指定してください"})
	}

	if len(fields) > 0 {
		return model.NewValidationError(fields...)
	}
	return nil
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func priorityFieldError() model.FieldError {
	return model.FieldError{Field: "priority", Reason: "low, medium, high のいずれかを指定してください"}
}

func dueDateFieldError() model.FieldError {
	return model.FieldError{Field: "due_date", Reason: "YYYY-MM-DD形式で指定してください"}
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
