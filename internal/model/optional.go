package model

import "encoding/json"

// Optional は部分更新リクエストの1フィールドを表す。
// JSONにキーが存在しない場合はSet=false、nullの場合はSet=true,Null=trueとなる。
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some は値ありのOptionalを生成する。
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null は明示的なnullを表すOptionalを生成する。
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
// キーが出現した時点で呼ばれるため、呼ばれたこと自体をSetとして記録する。
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		var zero T
		o.Null = true
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// HasValue はnull以外の値が指定されたかを返す。
func (o Optional[T]) HasValue() bool {
	return o.Set && !o.Null
}

// SQLValue はSQLのパラメータとして渡す値を返す。nullの場合はnil。
func (o Optional[T]) SQLValue() any {
	if o.Null {
		return nil
	}
	return o.Value
}
