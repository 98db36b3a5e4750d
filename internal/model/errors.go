// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: auth, validation, not_found, upstream, system
	Action   string       // ユーザー向け対処方法
	Fields   []FieldError // フィールド単位の検証エラー（validationのみ）
}

// FieldError はリクエストの特定フィールドに対する検証エラーを表す。
type FieldError struct {
	Field  string
	Reason string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return fmt.Sprintf("[%s] %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

// 定義済みエラーコード
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeInvalidFilter    = "INVALID_FILTER"
	ErrCodeAnswerNotFound   = "ANSWER_NOT_FOUND"
	ErrCodePracticeNotFound = "PRACTICE_NOT_FOUND"
	ErrCodeTodoNotFound     = "TODO_NOT_FOUND"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeUpstreamFailure  = "UPSTREAM_FAILURE"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeCSRFInvalid      = "CSRF_TOKEN_INVALID"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// エラーカテゴリ
const (
	CategoryAuth       = "auth"
	CategoryValidation = "validation"
	CategoryNotFound   = "not_found"
	CategoryUpstream   = "upstream"
	CategorySystem     = "system"
)

// NewValidationError はフィールド単位の検証エラーを生成する。
func NewValidationError(fields ...FieldError) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "入力内容に誤りがあります。",
		Category: CategoryValidation,
		Action:   "各項目の入力内容を確認してください。",
		Fields:   fields,
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: CategoryValidation,
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidFilterError は無効なフィルタエラーを生成する。
func NewInvalidFilterError(name, value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFilter,
		Message:  fmt.Sprintf("無効なフィルタです: %s=%s", name, value),
		Category: CategoryValidation,
		Action:   "フィルタの指定値を確認してください。",
		Fields:   []FieldError{{Field: name, Reason: "invalid value"}},
	}
}

// NewAnswerNotFoundError は回答未検出エラーを生成する。
func NewAnswerNotFoundError(answerID string) *APIError {
	return &APIError{
		Code:     ErrCodeAnswerNotFound,
		Message:  fmt.Sprintf("指定された回答が見つかりません: %s", answerID),
		Category: CategoryNotFound,
		Action:   "回答IDを確認してください。",
	}
}

// NewPracticeNotFoundError は練習記録未検出エラーを生成する。
func NewPracticeNotFoundError(practiceID string) *APIError {
	return &APIError{
		Code:     ErrCodePracticeNotFound,
		Message:  fmt.Sprintf("指定された練習記録が見つかりません: %s", practiceID),
		Category: CategoryNotFound,
		Action:   "練習記録IDを確認してください。",
	}
}

// NewTodoNotFoundError はタスク未検出エラーを生成する。
func NewTodoNotFoundError(todoID string) *APIError {
	return &APIError{
		Code:     ErrCodeTodoNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", todoID),
		Category: CategoryNotFound,
		Action:   "タスクIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: CategoryAuth,
		Action:   "ログインし直してください。",
	}
}

// NewUpstreamFailureError は外部IdPなど依存先の呼び出し失敗エラーを生成する。
func NewUpstreamFailureError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailure,
		Message:  fmt.Sprintf("外部サービスとの通信に失敗しました: %s", reason),
		Category: CategoryUpstream,
		Action:   "しばらく待ってから再度ログインしてください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: CategoryAuth,
		Action:   "ログインしてください。",
	}
}

// NewCSRFError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: CategoryAuth,
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: CategorySystem,
		Action:   "Retry-Afterの秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: CategorySystem,
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// IsNotFound はエラーがnot_foundカテゴリのAPIErrorかどうかを返す。
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == CategoryNotFound
}
