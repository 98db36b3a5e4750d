package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mindjournal/internal/model"
	"github.com/hitoshi/mindjournal/internal/todo"
)

// TodoServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TodoServiceInterface interface {
	CreateTodo(ctx context.Context, userID string, in model.NewTodo) (*model.Todo, error)
	ListTodos(ctx context.Context, userID string, p todo.ListParams) ([]*model.Todo, error)
	CountTodos(ctx context.Context, userID string) (todo.ViewCounts, error)
	UpdateTodo(ctx context.Context, userID, todoID string, patch model.TodoPatch) (*model.Todo, error)
	DeleteTodo(ctx context.Context, userID, todoID string) error
}

// TodoHandler はタスク管理のHTTPハンドラー。
type TodoHandler struct {
	service TodoServiceInterface
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(service TodoServiceInterface) *TodoHandler {
	return &TodoHandler{service: service}
}

// ListTodos はタスク一覧を返す。
// GET /api/todos?completed=&priority=&list=&search=&view=&limit=
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	completed, err := queryBool(r, "completed")
	if err != nil {
		handleServiceError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	q := r.URL.Query()
	todos, err := h.service.ListTodos(r.Context(), userID, todo.ListParams{
		Completed: completed,
		Priority:  model.Priority(q.Get("priority")),
		ListName:  q.Get("list"),
		Search:    q.Get("search"),
		View:      todo.ViewFilter(q.Get("view")),
		Limit:     limit,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]todoResponse, len(todos))
	for i, t := range todos {
		out[i] = toTodoResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// CountTodos はビュー・リストごとの未完了件数を返す。
// GET /api/todos/counts
func (h *TodoHandler) CountTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	counts, err := h.service.CountTodos(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTodoCountsResponse(counts))
}

// CreateTodo はタスクを作成する。
// POST /api/todos
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req model.NewTodo
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.service.CreateTodo(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTodoResponse(t))
}

// UpdateTodo はタスクを部分更新する。
// PUT /api/todos/{id}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var patch model.TodoPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	t, err := h.service.UpdateTodo(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTodoResponse(t))
}

// DeleteTodo はタスクを削除する。
// DELETE /api/todos/{id}
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTodo(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}
