package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mindjournal/internal/model"
)

// PostgresPracticeRepo はPostgreSQLを使用した練習記録リポジトリ。
type PostgresPracticeRepo struct {
	db *sql.DB
}

// NewPostgresPracticeRepo はPostgresPracticeRepoを生成する。
func NewPostgresPracticeRepo(db *sql.DB) *PostgresPracticeRepo {
	return &PostgresPracticeRepo{db: db}
}

// Create は練習記録を作成する。CompletedAtがゼロ値の場合はDB側の現在時刻を使う。
func (r *PostgresPracticeRepo) Create(ctx context.Context, practice *model.Practice) error {
	var completedAt any
	if !practice.CompletedAt.IsZero() {
		completedAt = practice.CompletedAt
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO practices (user_id, type, duration_seconds, completed_at)
		 VALUES ($1, $2, $3, COALESCE($4::timestamptz, now()))
		 RETURNING id, completed_at, created_at, updated_at`,
		practice.UserID, string(practice.Type), practice.DurationSeconds, completedAt,
	).Scan(&practice.ID, &practice.CompletedAt, &practice.CreatedAt, &practice.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create practice: %w", err)
	}
	return nil
}

// List は練習記録をcompleted_at降順で返す。
func (r *PostgresPracticeRepo) List(ctx context.Context, userID string, limit int) ([]*model.Practice, error) {
	query := `SELECT id, user_id, type, duration_seconds, completed_at, created_at, updated_at
		 FROM practices
		 WHERE user_id = $1
		 ORDER BY completed_at DESC`
	args := []any{userID}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list practices: %w", err)
	}
	defer rows.Close()

	practices := []*model.Practice{}
	for rows.Next() {
		p := &model.Practice{}
		var typ string
		if err := rows.Scan(&p.ID, &p.UserID, &typ, &p.DurationSeconds, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan practice: %w", err)
		}
		p.Type = model.PracticeType(typ)
		practices = append(practices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate practices: %w", err)
	}
	return practices, nil
}

// Delete は練習記録を削除する。
func (r *PostgresPracticeRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	return deleteOwned(ctx, r.db, "practices", userID, id)
}

// compile-time interface check
var _ PracticeRepository = (*PostgresPracticeRepo)(nil)
