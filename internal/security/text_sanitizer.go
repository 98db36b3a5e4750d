// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は日記やタスクの自由記述欄からHTMLマークアップを取り除く。
// 保存する値はプレーンテキストとして扱い、表示側で必ずエスケープすること。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由記述テキストのサニタイズ機能のインターフェース。
type TextSanitizer interface {
	// SanitizeText は全てのタグを除去したプレーンテキストを返す。
	// script, styleは中身ごと除去し、その他のタグは中身のテキストのみ残す。
	// 同一入力に対して常に同一出力を返す。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerの実装。bluemondayのポリシーはスレッドセーフ。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はタグを一切許可しないポリシーのTextSanitizerを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// SanitizeText はタグを除去する。
// bluemondayは&や引用符をエンティティ化するため、最後に元の文字へ戻す。
func (s *textSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return html.UnescapeString(s.policy.Sanitize(raw))
}

// SanitizePtr はnilを保ったままSanitizeTextを適用する。
func SanitizePtr(s TextSanitizer, raw *string) *string {
	if raw == nil {
		return nil
	}
	v := s.SanitizeText(*raw)
	return &v
}

// compile-time interface check
var _ TextSanitizer = (*textSanitizer)(nil)
