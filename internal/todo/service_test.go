package todo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/security"
)

const validID = "8b9cad0e-1d2f-4a3b-9c4d-5e6f7a8b9c0d"

type mockTodoRepo struct {
	createFn func(ctx context.Context, t *model.Todo) error
	listFn   func(ctx context.Context, userID string, filter model.TodoFilter) ([]*model.Todo, error)
	updateFn func(ctx context.Context, userID, id string, patch model.TodoPatch) (*model.Todo, error)
	deleteFn func(ctx context.Context, userID, id string) (bool, error)
}

func (m *mockTodoRepo) Create(ctx context.Context, t *model.Todo) error {
	return m.createFn(ctx, t)
}
func (m *mockTodoRepo) List(ctx context.Context, userID string, filter model.TodoFilter) ([]*model.Todo, error) {
	return m.listFn(ctx, userID, filter)
}
func (m *mockTodoRepo) Update(ctx context.Context, userID, id string, patch model.TodoPatch) (*model.Todo, error) {
	return m.updateFn(ctx, userID, id, patch)
}
func (m *mockTodoRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	return m.deleteFn(ctx, userID, id)
}

func newTestService(repo *mockTodoRepo) *Service {
	svc := NewService(repo, security.NewTextSanitizer())
	svc.now = func() time.Time { return viewNow }
	return svc
}

func fieldNames(err error) []string {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	names := make([]string, len(apiErr.Fields))
	for i, f := range apiErr.Fields {
		names[i] = f.Field
	}
	return names
}

// 作成時に優先度・リスト名・見積もり数の既定値が補われることを検証
func TestCreateTodo_Defaults(t *testing.T) {
	var stored *model.Todo
	repo := &mockTodoRepo{
		createFn: func(ctx context.Context, td *model.Todo) error {
			stored = td
			td.ID = validID
			return nil
		},
	}
	svc := newTestService(repo)

	td, err := svc.CreateTodo(context.Background(), "user-1", model.NewTodo{
		Title:       "  <b>Read</b> a book ",
		Description: strPtr("<script>x</script>chapter 3"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if td.Priority != model.PriorityMedium {
		t.Errorf("Priority = %q, want medium", td.Priority)
	}
	if td.ListName != model.DefaultListName {
		t.Errorf("ListName = %q, want %q", td.ListName, model.DefaultListName)
	}
	if td.EstimatedPomodoros != 1 || td.CompletedPomodoros != 0 {
		t.Errorf("pomodoros = %d/%d, want 0/1", td.CompletedPomodoros, td.EstimatedPomodoros)
	}
	if stored.Title != "Read a book" {
		t.Errorf("Title = %q, want sanitized", stored.Title)
	}
	if stored.Description == nil || *stored.Description != "chapter 3" {
		t.Errorf("Description = %v, want sanitized", stored.Description)
	}
	if stored.UserID != "user-1" {
		t.Errorf("UserID = %q", stored.UserID)
	}
}

func TestCreateTodo_Validation(t *testing.T) {
	svc := newTestService(&mockTodoRepo{})
	zero := 0

	_, err := svc.CreateTodo(context.Background(), "user-1", model.NewTodo{
		Title:              "   ",
		Priority:           "urgent",
		DueDate:            strPtr("14/03/2026"),
		EstimatedPomodoros: &zero,
	})
	want := []string{"title", "priority", "due_date", "estimated_pomodoros"}
	if got := fieldNames(err); !equalStrings(got, want) {
		t.Errorf("fields = %v, want %v", got, want)
	}
}

// 部分更新でNOT NULL列へのnullや範囲外の値が拒否されることを検証
func TestUpdateTodo_Validation(t *testing.T) {
	svc := newTestService(&mockTodoRepo{})

	tests := []struct {
		name  string
		patch model.TodoPatch
		field string
	}{
		{"タイトルにnull", model.TodoPatch{Title: model.Null[string]()}, "title"},
		{"空のタイトル", model.TodoPatch{Title: model.Some(" ")}, "title"},
		{"不正な優先度", model.TodoPatch{Priority: model.Some(model.Priority("urgent"))}, "priority"},
		{"見積もり0", model.TodoPatch{EstimatedPomodoros: model.Some(0)}, "estimated_pomodoros"},
		{"完了数が負", model.TodoPatch{CompletedPomodoros: model.Some(-1)}, "completed_pomodoros"},
		{"完了フラグにnull", model.TodoPatch{IsCompleted: model.Null[bool]()}, "is_completed"},
		{"不正な期限", model.TodoPatch{DueDate: model.Some("tomorrow")}, "due_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateTodo(context.Background(), "user-1", validID, tt.patch)
			got := fieldNames(err)
			if len(got) != 1 || got[0] != tt.field {
				t.Errorf("fields = %v, want [%s]", got, tt.field)
			}
		})
	}
}

// 期限のnullと完了数の明示的な上書きはそのままリポジトリに渡されることを検証
func TestUpdateTodo_PassesPatch(t *testing.T) {
	var got model.TodoPatch
	repo := &mockTodoRepo{
		updateFn: func(ctx context.Context, userID, id string, patch model.TodoPatch) (*model.Todo, error) {
			got = patch
			return &model.Todo{ID: id, CompletedPomodoros: patch.CompletedPomodoros.Value}, nil
		},
	}
	svc := newTestService(repo)

	td, err := svc.UpdateTodo(context.Background(), "user-1", validID, model.TodoPatch{
		DueDate:            model.Null[string](),
		CompletedPomodoros: model.Some(0),
		Notes:              model.Some("<i>draft</i>"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.DueDate.Set || !got.DueDate.Null {
		t.Error("due_date null was not passed through")
	}
	if got.Title.Set {
		t.Error("absent title became set")
	}
	if got.Notes.Value != "draft" {
		t.Errorf("Notes = %q, want sanitized", got.Notes.Value)
	}
	if td.CompletedPomodoros != 0 {
		t.Errorf("CompletedPomodoros = %d, want 0", td.CompletedPomodoros)
	}
}

func TestUpdateTodo_NotFound(t *testing.T) {
	repo := &mockTodoRepo{
		updateFn: func(ctx context.Context, userID, id string, patch model.TodoPatch) (*model.Todo, error) {
			return nil, nil
		},
	}
	svc := newTestService(repo)

	for _, id := range []string{validID, "not-a-uuid"} {
		_, err := svc.UpdateTodo(context.Background(), "user-1", id, model.TodoPatch{Title: model.Some("x")})
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTodoNotFound {
			t.Errorf("UpdateTodo(%s) err = %v, want TODO_NOT_FOUND", id, err)
		}
	}
}

func TestListTodos_ParamsAndView(t *testing.T) {
	var gotFilter model.TodoFilter
	repo := &mockTodoRepo{
		listFn: func(ctx context.Context, userID string, filter model.TodoFilter) ([]*model.Todo, error) {
			gotFilter = filter
			return []*model.Todo{
				newTodo("open", model.PriorityHigh, false, 0),
				newTodo("done", model.PriorityHigh, true, 1),
			}, nil
		},
	}
	svc := newTestService(repo)

	todos, err := svc.ListTodos(context.Background(), "user-1", ListParams{
		Priority: model.PriorityHigh,
		Search:   " DON ",
		View:     ViewCompleted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// viewありでは検索語と件数をメモリ上で適用する
	if gotFilter.Limit != 0 || gotFilter.Search != "" || gotFilter.Priority != model.PriorityHigh {
		t.Errorf("filter = %+v", gotFilter)
	}
	if got := titles(todos); !equalStrings(got, []string{"done"}) {
		t.Errorf("todos = %v, want [done]", got)
	}

	// viewなしではリポジトリの結果をそのまま返す
	todos, _ = svc.ListTodos(context.Background(), "user-1", ListParams{Search: " read ", Limit: 1000})
	if len(todos) != 2 || gotFilter.Limit != MaxListLimit || gotFilter.Search != "read" {
		t.Errorf("len = %d, filter = %+v", len(todos), gotFilter)
	}

	// view適用後に件数上限で切り詰める
	todos, _ = svc.ListTodos(context.Background(), "user-1", ListParams{View: ViewImportant, Limit: 1})
	if got := titles(todos); !equalStrings(got, []string{"open"}) {
		t.Errorf("todos = %v, want [open]", got)
	}
}

func TestListTodos_InvalidFilter(t *testing.T) {
	svc := newTestService(&mockTodoRepo{})

	for _, p := range []ListParams{{Priority: "urgent"}, {View: "someday"}} {
		_, err := svc.ListTodos(context.Background(), "user-1", p)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidFilter {
			t.Errorf("ListTodos(%+v) err = %v, want INVALID_FILTER", p, err)
		}
	}
}

func TestCountTodos(t *testing.T) {
	repo := &mockTodoRepo{
		listFn: func(ctx context.Context, userID string, filter model.TodoFilter) ([]*model.Todo, error) {
			if filter.Limit != 0 {
				t.Errorf("Limit = %d, want 0 (all)", filter.Limit)
			}
			return []*model.Todo{newTodo("a", model.PriorityHigh, false, 0)}, nil
		},
	}
	svc := newTestService(repo)

	c, err := svc.CountTodos(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.All != 1 || c.Important != 1 {
		t.Errorf("counts = %+v", c)
	}
}

// 削除の繰り返しは2回目以降NotFoundになることを検証
func TestDeleteTodo_Repeated(t *testing.T) {
	deleted := false
	repo := &mockTodoRepo{
		deleteFn: func(ctx context.Context, userID, id string) (bool, error) {
			if deleted {
				return false, nil
			}
			deleted = true
			return true, nil
		},
	}
	svc := newTestService(repo)

	if err := svc.DeleteTodo(context.Background(), "user-1", validID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	for i := 0; i < 2; i++ {
		err := svc.DeleteTodo(context.Background(), "user-1", validID)
		if !model.IsNotFound(err) {
			t.Errorf("repeat delete err = %v, want not found", err)
		}
	}
}
