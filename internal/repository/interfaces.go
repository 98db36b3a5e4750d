// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/mindjournal/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 回答・練習記録・タスク・セッション履歴・設定はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はログインセッションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// AnswerRepository は振り返り回答の永続化インターフェース。
// すべての操作はuser_idを検索条件に含め、他ユーザーのレコードには触れない。
type AnswerRepository interface {
	// Create は回答を作成し、採番されたIDとタイムスタンプをanswerに設定する。
	Create(ctx context.Context, answer *model.Answer) error

	// List は検索条件に一致する回答をcreated_at降順で返す。
	List(ctx context.Context, userID string, filter model.AnswerFilter) ([]*model.Answer, error)

	// Update はpatchで指定されたフィールドのみを更新する。
	// 対象が存在しない（または他ユーザーのもの）場合はnilを返す。
	Update(ctx context.Context, userID, id string, patch model.AnswerPatch) (*model.Answer, error)

	// Delete は回答を削除する。削除対象がなかった場合はfalseを返す。
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// PracticeRepository は呼吸法練習記録の永続化インターフェース。
type PracticeRepository interface {
	// Create は練習記録を作成する。
	Create(ctx context.Context, practice *model.Practice) error

	// List は練習記録をcompleted_at降順で返す。limitが0以下の場合は全件を返す。
	List(ctx context.Context, userID string, limit int) ([]*model.Practice, error)

	// Delete は練習記録を削除する。削除対象がなかった場合はfalseを返す。
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// TodoRepository はタスクの永続化インターフェース。
type TodoRepository interface {
	// Create はタスクを作成する。
	Create(ctx context.Context, todo *model.Todo) error

	// List は未完了→優先度(high,medium,low)→作成日時降順でタスクを返す。
	// filter.Limitが0以下の場合は全件を返す。
	List(ctx context.Context, userID string, filter model.TodoFilter) ([]*model.Todo, error)

	// Update はpatchで指定されたフィールドのみを更新する。対象がない場合はnilを返す。
	Update(ctx context.Context, userID, id string, patch model.TodoPatch) (*model.Todo, error)

	// Delete はタスクを削除する。削除対象がなかった場合はfalseを返す。
	// 紐付いたポモドーロセッションは削除しない。
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// PomodoroSessionRepository はポモドーロセッション履歴の永続化インターフェース。
type PomodoroSessionRepository interface {
	// CreateWithTaskLink はセッションを記録する。
	// linkTaskがtrueの場合、同一トランザクションでsession.TaskIDのタスクの
	// completed_pomodorosを1加算する。タスクが存在しない場合は加算をスキップし、
	// セッションのみ記録してlinked=falseを返す。
	CreateWithTaskLink(ctx context.Context, session *model.PomodoroSession, linkTask bool) (linked bool, err error)

	// List はセッション履歴をcompleted_at降順で返す。
	List(ctx context.Context, userID string, limit int) ([]*model.PomodoroSession, error)

	// Stats はセッション履歴を集計する。since以降のworkセッション数をCompletedTodayとする。
	Stats(ctx context.Context, userID string, since time.Time) (*model.PomodoroStats, error)
}

// SettingsRepository はユーザー設定の永続化インターフェース。
type SettingsRepository interface {
	// GetOrCreate は設定を返す。存在しない場合はデフォルト値で作成してから返す。
	// createdは今回の呼び出しで作成された場合にtrueとなる。
	GetOrCreate(ctx context.Context, userID string) (settings *model.UserSettings, created bool, err error)

	// Update はpatchで指定されたフィールドのみを更新する。
	// 設定行が存在しない場合はデフォルト値で作成してから適用する。
	Update(ctx context.Context, userID string, patch model.SettingsPatch) (*model.UserSettings, error)
}
