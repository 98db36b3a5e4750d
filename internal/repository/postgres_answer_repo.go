package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/mindjournal/internal/model"
)

const answerColumns = `id, user_id, type, question_1, question_2, question_3, created_at, updated_at`

// PostgresAnswerRepo はPostgreSQLを使用した回答リポジトリ。
type PostgresAnswerRepo struct {
	db *sql.DB
}

// NewPostgresAnswerRepo はPostgresAnswerRepoを生成する。
func NewPostgresAnswerRepo(db *sql.DB) *PostgresAnswerRepo {
	return &PostgresAnswerRepo{db: db}
}

// Create は回答を作成する。
func (r *PostgresAnswerRepo) Create(ctx context.Context, answer *model.Answer) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO answers (user_id, type, question_1, question_2, question_3)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		answer.UserID, string(answer.Type), answer.Question1, answer.Question2, answer.Question3,
	).Scan(&answer.ID, &answer.CreatedAt, &answer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	return nil
}

// List は検索条件に一致する回答をcreated_at降順で返す。
func (r *PostgresAnswerRepo) List(ctx context.Context, userID string, filter model.AnswerFilter) ([]*model.Answer, error) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, containsPattern(filter.Search))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(question_1 ILIKE $%d OR question_2 ILIKE $%d OR question_3 ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + answerColumns + ` FROM answers WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	answers := []*model.Answer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answers: %w", err)
	}
	return answers, nil
}

// Update はpatchで指定されたフィールドのみを更新する。
func (r *PostgresAnswerRepo) Update(ctx context.Context, userID, id string, patch model.AnswerPatch) (*model.Answer, error) {
	b := newUpdateBuilder("answers", userID, id)
	setOptional(b, "question_1", patch.Question1)
	setOptional(b, "question_2", patch.Question2)
	setOptional(b, "question_3", patch.Question3)

	a, err := scanAnswer(r.db.QueryRowContext(ctx,
		b.query("user_id = $1 AND id = $2", answerColumns), b.args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update answer: %w", err)
	}
	return a, nil
}

// Delete は回答を削除する。
func (r *PostgresAnswerRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	return deleteOwned(ctx, r.db, "answers", userID, id)
}

func scanAnswer(s rowScanner) (*model.Answer, error) {
	a := &model.Answer{}
	var typ string
	if err := s.Scan(&a.ID, &a.UserID, &typ, &a.Question1, &a.Question2, &a.Question3, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Type = model.AnswerType(typ)
	return a, nil
}

// compile-time interface check
var _ AnswerRepository = (*PostgresAnswerRepo)(nil)
