package model

import "github.com/google/uuid"

// IsValidID はレコードIDとして正しいUUID文字列かどうかを返す。
// 不正なIDはどの所有者のレコードにも一致しないため、呼び出し側はNotFoundとして扱う。
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
