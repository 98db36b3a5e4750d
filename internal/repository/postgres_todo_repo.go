package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/mindjournal/internal/model"
)

const todoColumns = `id, user_id, title, description, notes, is_completed, priority,
	to_char(due_date, 'YYYY-MM-DD'), list_name, reminder_date,
	estimated_pomodoros, completed_pomodoros, created_at, updated_at`

// todoOrder は未完了→優先度(high,medium,low)→新しい順の表示順。
const todoOrder = ` ORDER BY is_completed ASC,
	CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END ASC,
	created_at DESC`

// incrementCompletedPomodorosSQL はタスクの完了ポモドーロ数を1加算する。
// 対象が存在しない場合は0行更新となる。
const incrementCompletedPomodorosSQL = `UPDATE todos
	SET completed_pomodoros = completed_pomodoros + 1, updated_at = now()
	WHERE id = $1 AND user_id = $2`

// PostgresTodoRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTodoRepo struct {
	db *sql.DB
}

// NewPostgresTodoRepo はPostgresTodoRepoを生成する。
func NewPostgresTodoRepo(db *sql.DB) *PostgresTodoRepo {
	return &PostgresTodoRepo{db: db}
}

// Create はタスクを作成する。
func (r *PostgresTodoRepo) Create(ctx context.Context, todo *model.Todo) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO todos (user_id, title, description, notes, is_completed, priority,
		                    due_date, list_name, reminder_date, estimated_pomodoros, completed_pomodoros)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		todo.UserID, todo.Title, todo.Description, todo.Notes, todo.IsCompleted, string(todo.Priority),
		todo.DueDate, todo.ListName, todo.ReminderDate, todo.EstimatedPomodoros, todo.CompletedPomodoros,
	).Scan(&todo.ID, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// List は検索条件に一致するタスクを表示順で返す。
func (r *PostgresTodoRepo) List(ctx context.Context, userID string, filter model.TodoFilter) ([]*model.Todo, error) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		conds = append(conds, fmt.Sprintf("is_completed = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.ListName != "" {
		args = append(args, filter.ListName)
		conds = append(conds, fmt.Sprintf("list_name = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, containsPattern(filter.Search))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR notes ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + todoColumns + ` FROM todos WHERE ` + strings.Join(conds, " AND ") + todoOrder
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []*model.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

// Update はpatchで指定されたフィールドのみを更新する。
// completed_pomodorosが指定された場合はその値で上書きする（最後の書き込みが優先）。
func (r *PostgresTodoRepo) Update(ctx context.Context, userID, id string, patch model.TodoPatch) (*model.Todo, error) {
	b := newUpdateBuilder("todos", userID, id)
	setOptional(b, "title", patch.Title)
	setOptional(b, "description", patch.Description)
	setOptional(b, "notes", patch.Notes)
	setOptional(b, "is_completed", patch.IsCompleted)
	setOptional(b, "priority", patch.Priority)
	setOptional(b, "due_date", patch.DueDate)
	setOptional(b, "list_name", patch.ListName)
	setOptional(b, "reminder_date", patch.ReminderDate)
	setOptional(b, "estimated_pomodoros", patch.EstimatedPomodoros)
	setOptional(b, "completed_pomodoros", patch.CompletedPomodoros)

	t, err := scanTodo(r.db.QueryRowContext(ctx,
		b.query("user_id = $1 AND id = $2", todoColumns), b.args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return t, nil
}

// Delete はタスクを削除する。
func (r *PostgresTodoRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	return deleteOwned(ctx, r.db, "todos", userID, id)
}

func scanTodo(s rowScanner) (*model.Todo, error) {
	t := &model.Todo{}
	var priority string
	err := s.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Notes, &t.IsCompleted, &priority,
		&t.DueDate, &t.ListName, &t.ReminderDate,
		&t.EstimatedPomodoros, &t.CompletedPomodoros, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Priority = model.Priority(priority)
	return t, nil
}

// compile-time interface check
var _ TodoRepository = (*PostgresTodoRepo)(nil)
