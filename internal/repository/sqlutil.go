package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// withTx はfnをトランザクション内で実行する。fnがエラーを返した場合はロールバックする。
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// deleteWhere はDELETE文を実行し、1行以上削除できたかを返す。
func deleteWhere(ctx context.Context, db *sql.DB, query string, args ...any) (bool, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// deleteOwned はuser_idとidの両方が一致する行を削除し、削除できたかを返す。
func deleteOwned(ctx context.Context, db *sql.DB, table, userID, id string) (bool, error) {
	deleted, err := deleteWhere(ctx, db,
		fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND id = $2`, table), userID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return deleted, nil
}

// findOne はqueryの結果1行をscanで読み出す。該当行がなければnil, nilを返す。
func findOne[T any](ctx context.Context, db *sql.DB, scan func(rowScanner) (*T, error), query string, args ...any) (*T, error) {
	v, err := scan(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}
