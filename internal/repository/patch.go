package repository

import (
	"fmt"
	"strings"

	"github.com/hitoshi/mindjournal/internal/model"
)

// updateBuilder は部分更新のSET句を組み立てる。
// $1=user_id, $2=id を予約し、指定されたフィールドのみ $3 以降に追加する。
type updateBuilder struct {
	table string
	sets  []string
	args  []any
}

func newUpdateBuilder(table string, keyArgs ...any) *updateBuilder {
	return &updateBuilder{table: table, args: keyArgs}
}

// setOptional はOptionalがSetの場合のみSET句に追加する。nullはNULLとして書き込む。
func setOptional[T any](b *updateBuilder, column string, o model.Optional[T]) {
	if !o.Set {
		return
	}
	b.args = append(b.args, o.SQLValue())
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

// query はUPDATE文を返す。updated_atは常に更新する。
func (b *updateBuilder) query(where, returning string) string {
	sets := append(append([]string{}, b.sets...), "updated_at = now()")
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING %s",
		b.table, strings.Join(sets, ", "), where, returning)
}

// escapeLike はLIKE/ILIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// containsPattern は部分一致用のILIKEパターンを返す。
func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}
